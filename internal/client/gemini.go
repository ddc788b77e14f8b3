package client

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/autocritique/reflect-go/internal/observability"
	"github.com/autocritique/reflect-go/internal/types"
)

type GeminiClient struct {
	client    *genai.Client
	modelName string
	usage     types.UsageSummary
}

func NewGeminiClient(apiKey string, modelName string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	return &GeminiClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// Send converts the transcript to Gemini format and normalizes the vendor
// reply into the typed ChatCompletion shape.
func (c *GeminiClient) Send(ctx context.Context, messages []types.Message, model string) (any, error) {
	if model == "" {
		model = c.modelName
	}

	var contents []*genai.Content
	var systemInstruction *genai.Content

	for _, msg := range messages {
		if msg.Role == types.RoleSystem {
			systemInstruction = &genai.Content{
				Parts: []*genai.Part{
					{Text: msg.Content},
				},
			}
		} else {
			role := msg.Role
			if role == types.RoleAssistant {
				role = "model"
			}
			contents = append(contents, &genai.Content{
				Role: role,
				Parts: []*genai.Part{
					{Text: msg.Content},
				},
			})
		}
	}

	config := &genai.GenerateContentConfig{}
	if systemInstruction != nil {
		config.SystemInstruction = systemInstruction
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		slog.Error("Gemini API call failed", "error", err, "model", model)
		return nil, err
	}

	if resp.UsageMetadata != nil {
		inputTokens := int(resp.UsageMetadata.PromptTokenCount)
		outputTokens := int(resp.UsageMetadata.CandidatesTokenCount)

		c.usage.TotalCalls++
		c.usage.TotalInputTokens += inputTokens
		c.usage.TotalOutputTokens += outputTokens

		observability.TokenUsage.WithLabelValues(model, "input").Add(float64(inputTokens))
		observability.TokenUsage.WithLabelValues(model, "output").Add(float64(outputTokens))
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		slog.Warn("No response content from model", "model", model)
		return nil, fmt.Errorf("no response from model")
	}

	return &types.ChatCompletion{
		Choices: []types.Choice{
			{Message: types.Message{Role: types.RoleAssistant, Content: resp.Candidates[0].Content.Parts[0].Text}},
		},
	}, nil
}

func (c *GeminiClient) GetUsageSummary() types.UsageSummary {
	return c.usage
}

func (c *GeminiClient) ModelName() string {
	return c.modelName
}
