package client

import (
	"context"
	"strings"

	"github.com/autocritique/reflect-go/internal/types"
)

const mockMergeSort = "```python\n" +
	"def merge_sort(arr):\n" +
	"    if len(arr) <= 1:\n" +
	"        return arr\n" +
	"    mid = len(arr)//2\n" +
	"    left = merge_sort(arr[:mid])\n" +
	"    right = merge_sort(arr[mid:])\n" +
	"    merged = []\n" +
	"    i = j = 0\n" +
	"    while i < len(left) and j < len(right):\n" +
	"        if left[i] <= right[j]:\n" +
	"            merged.append(left[i]); i += 1\n" +
	"        else:\n" +
	"            merged.append(right[j]); j += 1\n" +
	"    merged.extend(left[i:]); merged.extend(right[j:])\n" +
	"    return merged\n" +
	"```\n"

// MockClient is a deterministic offline stand-in, useful without credentials
// and in tests. It answers generation prompts with a canned merge sort and
// reflection prompts with an approval. Replies use the nested-map shape, the
// same one the OpenAI-compatible endpoints produce.
type MockClient struct {
	usage types.UsageSummary
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (c *MockClient) Send(ctx context.Context, messages []types.Message, model string) (any, error) {
	var sysParts, userParts []string
	for _, m := range messages {
		switch m.Role {
		case types.RoleSystem:
			sysParts = append(sysParts, m.Content)
		case types.RoleUser:
			userParts = append(userParts, m.Content)
		}
	}
	sysText := strings.ToLower(strings.Join(sysParts, " "))
	userText := strings.Join(userParts, " ")

	c.usage.TotalCalls++

	if strings.Contains(sysText, "programmer") || strings.Contains(sysText, "generate") {
		return mapReply(mockMergeSort), nil
	}
	if strings.Contains(sysText, "review") || strings.Contains(sysText, "expert") {
		if strings.Contains(userText, "```python") || strings.Contains(strings.ToLower(userText), "<ok>") {
			return mapReply("<OK>"), nil
		}
		return mapReply("Looks fine. Consider adding type hints and tests. <OK>"), nil
	}
	return mapReply("<OK>"), nil
}

func mapReply(content string) map[string]any {
	return map[string]any{
		"choices": []any{
			map[string]any{
				"message": map[string]any{"content": content},
			},
		},
	}
}

func (c *MockClient) GetUsageSummary() types.UsageSummary {
	return c.usage
}

func (c *MockClient) ModelName() string {
	return "mock-model"
}
