package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/autocritique/reflect-go/internal/observability"
	"github.com/autocritique/reflect-go/internal/types"
)

// OpenAIClient speaks the OpenAI-compatible chat/completions protocol, which
// also covers Groq and most self-hosted gateways. Replies are returned as the
// decoded JSON map; the response adapters handle extraction.
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	modelName  string
	httpClient *http.Client
	usage      types.UsageSummary
}

func NewOpenAIClient(baseURL, apiKey, modelName string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	return &OpenAIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		modelName:  modelName,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

type chatCompletionRequest struct {
	Model    string          `json:"model"`
	Messages []types.Message `json:"messages"`
}

func (c *OpenAIClient) Send(ctx context.Context, messages []types.Message, model string) (any, error) {
	if model == "" {
		model = c.modelName
	}

	body, err := json.Marshal(chatCompletionRequest{Model: model, Messages: messages})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("Chat completion request failed", "error", err, "model", model)
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat completion returned status %d: %s", resp.StatusCode, data)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decode chat completion: %w", err)
	}

	c.trackUsage(model, decoded)
	return decoded, nil
}

func (c *OpenAIClient) trackUsage(model string, decoded map[string]any) {
	usage, ok := decoded["usage"].(map[string]any)
	if !ok {
		return
	}
	input, _ := usage["prompt_tokens"].(float64)
	output, _ := usage["completion_tokens"].(float64)

	c.usage.TotalCalls++
	c.usage.TotalInputTokens += int(input)
	c.usage.TotalOutputTokens += int(output)

	observability.TokenUsage.WithLabelValues(model, "input").Add(input)
	observability.TokenUsage.WithLabelValues(model, "output").Add(output)
}

func (c *OpenAIClient) GetUsageSummary() types.UsageSummary {
	return c.usage
}

func (c *OpenAIClient) ModelName() string {
	return c.modelName
}
