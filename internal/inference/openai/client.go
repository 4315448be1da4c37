// Package openai implements inference.Client on the OpenAI chat completion
// API via the go-openai SDK.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hoverlearn/hoverlearn/internal/inference"
)

type Client struct {
	api   *openai.Client
	model string
}

func NewClient(apiKey, model string, timeout time.Duration) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		api:   openai.NewClientWithConfig(cfg),
		model: model,
	}
}

// NewClientWithBaseURL creates a client pointed at an alternative endpoint.
// Used by tests and OpenAI-compatible proxies.
func NewClientWithBaseURL(apiKey, model, baseURL string, timeout time.Duration) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	if timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		api:   openai.NewClientWithConfig(cfg),
		model: model,
	}
}

// Define implements the inference.Client interface
func (client *Client) Define(ctx context.Context, word string) (inference.WordDefinition, error) {
	resp, err := client.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: client.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: inference.DefinePrompt(word),
			},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return inference.WordDefinition{}, fmt.Errorf("CreateChatCompletion > %w", err)
	}
	if len(resp.Choices) == 0 {
		return inference.WordDefinition{}, fmt.Errorf("empty choices in response")
	}

	content := inference.StripCodeFences(resp.Choices[0].Message.Content)
	slog.Default().Debug("openai response content",
		"word", word,
		"content", content,
	)

	var decoded inference.WordDefinition
	if err := json.Unmarshal([]byte(content), &decoded); err != nil {
		return inference.WordDefinition{}, fmt.Errorf("json.Unmarshal(%s) > %w", content, err)
	}
	if decoded.Definition == "" {
		return inference.WordDefinition{}, fmt.Errorf("response has no definition: %s", content)
	}
	return decoded, nil
}
