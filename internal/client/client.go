package client

import (
	"context"
	"fmt"

	"github.com/autocritique/reflect-go/internal/types"
)

// ChatClient is the single capability the reflection loop depends on: send a
// role-tagged transcript plus a model identifier, get back a reply. The reply
// is deliberately untyped; ResponseText resolves it to text regardless of
// which shape the concrete client produces.
type ChatClient interface {
	Send(ctx context.Context, messages []types.Message, model string) (any, error)
	GetUsageSummary() types.UsageSummary
	ModelName() string
}

// New constructs the configured ChatClient. Provider selection is explicit:
// callers decide from configuration, never from ambient environment probing.
func New(provider, apiKey, baseURL, model string) (ChatClient, error) {
	switch provider {
	case "gemini":
		return NewGeminiClient(apiKey, model)
	case "openai", "groq":
		return NewOpenAIClient(baseURL, apiKey, model)
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want gemini, openai, groq or mock)", provider)
	}
}
