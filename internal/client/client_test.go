package client

import (
	"context"
	"strings"
	"testing"

	"github.com/autocritique/reflect-go/internal/types"
)

func TestNew(t *testing.T) {
	if _, err := New("carrier-pigeon", "", "", ""); err == nil {
		t.Error("Expected error for unknown provider")
	}

	c, err := New("mock", "", "", "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if c.ModelName() != "mock-model" {
		t.Errorf("Expected mock-model, got %s", c.ModelName())
	}
}

func TestNewGeminiClient(t *testing.T) {
	// Error when no key is provided
	if _, err := NewGeminiClient("", ""); err == nil {
		t.Error("Expected error when api key is missing")
	}

	c, err := NewGeminiClient("dummy-key", "gemini-model")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if c.modelName != "gemini-model" {
		t.Errorf("Expected model gemini-model, got %s", c.modelName)
	}
}

func TestNewOpenAIClient(t *testing.T) {
	if _, err := NewOpenAIClient("", "", ""); err == nil {
		t.Error("Expected error when api key is missing")
	}

	c, err := NewOpenAIClient("https://api.groq.com/openai/v1/", "dummy-key", "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if strings.HasSuffix(c.baseURL, "/") {
		t.Errorf("Expected trailing slash trimmed, got %s", c.baseURL)
	}
	if c.modelName == "" {
		t.Error("Expected a default model name")
	}
}

func TestMockClient(t *testing.T) {
	c := NewMockClient()

	gen, err := c.Send(context.Background(), []types.Message{
		{Role: types.RoleSystem, Content: "You are a Python programmer."},
		{Role: types.RoleUser, Content: "Write merge sort"},
	}, "")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	genText := ResponseText(gen)
	if !strings.Contains(genText, "```python") || !strings.Contains(genText, "merge_sort") {
		t.Errorf("Expected a python merge sort block, got %q", genText)
	}

	crit, err := c.Send(context.Background(), []types.Message{
		{Role: types.RoleSystem, Content: "You are an expert reviewer."},
		{Role: types.RoleUser, Content: genText},
	}, "")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if got := ResponseText(crit); got != "<OK>" {
		t.Errorf("Expected approval, got %q", got)
	}

	if c.GetUsageSummary().TotalCalls != 2 {
		t.Errorf("Expected 2 calls tracked, got %d", c.GetUsageSummary().TotalCalls)
	}
}
