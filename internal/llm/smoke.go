// Package llm verifies connectivity to an OpenAI-compatible API. The smoke
// test sends a minimal completion request and reports what came back, so a
// misconfigured key or endpoint shows up before any real feature needs it.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const defaultModel = openai.GPT4oMini

// Result is the smoke-test outcome served to clients. APISuffix is the last
// four characters of the key, enough to tell keys apart without leaking one.
type Result struct {
	OK         bool          `json:"ok"`
	Model      string        `json:"model"`
	OutputText string        `json:"output_text"`
	ResponseID string        `json:"response_id,omitempty"`
	Usage      *openai.Usage `json:"usage,omitempty"`
	APISuffix  string        `json:"API,omitempty"`
}

// SmokeTester runs connectivity checks against a configured endpoint.
type SmokeTester struct {
	client *openai.Client
	model  string
	suffix string
}

// NewSmokeTester builds a tester for the given key. baseURL overrides the
// endpoint (for proxies or local OpenAI-compatible servers); model falls back
// to a small default when empty.
func NewSmokeTester(apiKey, model, baseURL string) (*SmokeTester, error) {
	if apiKey == "" {
		return nil, errors.New("llm api key is not set")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = defaultModel
	}

	suffix := apiKey
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}

	return &SmokeTester{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		suffix: suffix,
	}, nil
}

// Run sends a single completion asking for "OK" and returns what the model
// produced along with token usage.
func (s *SmokeTester) Run(ctx context.Context) (Result, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "Reply with exactly: OK"},
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("llm smoke test: %w", err)
	}

	var output string
	if len(resp.Choices) > 0 {
		output = strings.TrimSpace(resp.Choices[0].Message.Content)
	}

	usage := resp.Usage
	return Result{
		OK:         true,
		Model:      s.model,
		OutputText: output,
		ResponseID: resp.ID,
		Usage:      &usage,
		APISuffix:  s.suffix,
	}, nil
}
