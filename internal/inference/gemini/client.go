// Package gemini implements inference.Client on the Google Generative
// Language REST API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"resty.dev/v3"

	"github.com/hoverlearn/hoverlearn/internal/inference"
)

type Client struct {
	httpClient       *resty.Client
	model            string
	maxRetryAttempts uint
}

func NewClient(apiKey, model string, timeout time.Duration, retryAttempts uint) *Client {
	client := resty.New()
	client.SetBaseURL("https://generativelanguage.googleapis.com/v1beta")
	client.SetHeader("x-goog-api-key", apiKey)
	client.SetHeader("Content-Type", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return &Client{
		httpClient:       client,
		model:            model,
		maxRetryAttempts: retryAttempts,
	}
}

func (client Client) Close() error {
	return client.httpClient.Close()
}

// GetModel returns the model name configured for this client
func (client Client) GetModel() string {
	return client.model
}

type GenerateContentRequest struct {
	Contents []Content `json:"contents"`
}

type Content struct {
	Parts []Part `json:"parts"`
}

type Part struct {
	Text string `json:"text"`
}

type GenerateContentResponse struct {
	Candidates []Candidate `json:"candidates"`
}

type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "i/o timeout") {
		return true
	}

	// Retry on 5xx errors (server errors)
	if strings.Contains(errStr, "response error 5") {
		return true
	}

	// Retry on rate limiting (429)
	if strings.Contains(errStr, "response error 429") {
		return true
	}

	return false
}

// Define implements the inference.Client interface
func (client *Client) Define(ctx context.Context, word string) (inference.WordDefinition, error) {
	var result inference.WordDefinition
	if err := retry.Do(
		func() error {
			response, err := client.define(ctx, word)
			if err != nil {
				if !isRetryableError(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			result = response
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(client.maxRetryAttempts+1),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
	); err != nil {
		return inference.WordDefinition{}, err
	}
	return result, nil
}

func (client *Client) define(ctx context.Context, word string) (inference.WordDefinition, error) {
	requestBody := GenerateContentRequest{
		Contents: []Content{
			{Parts: []Part{{Text: inference.DefinePrompt(word)}}},
		},
	}

	response, err := client.httpClient.R().
		SetContext(ctx).
		SetBody(requestBody).
		SetResult(&GenerateContentResponse{}).
		Post(fmt.Sprintf("/models/%s:generateContent", client.model))
	if err != nil {
		return inference.WordDefinition{}, fmt.Errorf("httpClient.Post > %w", err)
	}
	if response.IsError() {
		return inference.WordDefinition{}, fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
	}

	responseBody := response.Result().(*GenerateContentResponse)
	if responseBody == nil || len(responseBody.Candidates) == 0 {
		return inference.WordDefinition{}, fmt.Errorf("empty response body or candidates: %s", response.String())
	}

	parts := responseBody.Candidates[0].Content.Parts
	if len(parts) == 0 || parts[0].Text == "" {
		return inference.WordDefinition{}, fmt.Errorf("empty response content: %s", response.String())
	}

	content := inference.StripCodeFences(parts[0].Text)
	slog.Default().Debug("gemini response content",
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
