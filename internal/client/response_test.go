package client

import (
	"testing"

	"github.com/autocritique/reflect-go/internal/types"
)

type selfDescribing struct{ text string }

func (s selfDescribing) Text() string { return s.text }

func TestResponseText(t *testing.T) {
	tests := []struct {
		name string
		resp any
		want string
	}{
		{
			name: "Typed completion pointer",
			resp: &types.ChatCompletion{Choices: []types.Choice{
				{Message: types.Message{Role: types.RoleAssistant, Content: "hello"}},
			}},
			want: "hello",
		},
		{
			name: "Typed completion value",
			resp: types.ChatCompletion{Choices: []types.Choice{
				{Message: types.Message{Content: "value shape"}},
			}},
			want: "value shape",
		},
		{
			name: "Nested map shape",
			resp: map[string]any{
				"choices": []any{
					map[string]any{"message": map[string]any{"content": "from map"}},
				},
			},
			want: "from map",
		},
		{
			name: "Text method shape",
			resp: selfDescribing{text: "spoken"},
			want: "spoken",
		},
		{
			name: "Empty choices falls through to coercion",
			resp: &types.ChatCompletion{},
			want: "&{[]}",
		},
		{
			name: "Map without choices falls through",
			resp: map[string]any{"error": "rate limited"},
			want: "map[error:rate limited]",
		},
		{
			name: "Arbitrary value coerced",
			resp: 42,
			want: "42",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResponseText(tt.resp); got != tt.want {
				t.Errorf("ResponseText() = %q, want %q", got, tt.want)
			}
		})
	}
}
