package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoverlearn/hoverlearn/internal/inference"
)

func TestClient_Define(t *testing.T) {
	tests := []struct {
		name    string
		content string

		wantResponse    inference.WordDefinition
		wantError       bool
		wantErrorString string
	}{
		{
			name:    "success with fenced JSON",
			content: "```json\n{\"definition\":\"a four-legged animal\",\"hindi\":\"kutta\",\"synonyms\":[\"pup\",\"hound\",\"canine\"]}\n```",
			wantResponse: inference.WordDefinition{
				Definition: "a four-legged animal",
				Hindi:      "kutta",
				Synonyms:   []string{"pup", "hound", "canine"},
			},
		},
		{
			name:    "success with bare JSON",
			content: `{"definition":"feeling joy","hindi":"khush","synonyms":["glad","merry","cheerful"]}`,
			wantResponse: inference.WordDefinition{
				Definition: "feeling joy",
				Hindi:      "khush",
				Synonyms:   []string{"glad", "merry", "cheerful"},
			},
		},
		{
			name:            "prose instead of JSON",
			content:         "A dog is a four-legged animal.",
			wantError:       true,
			wantErrorString: "json.Unmarshal",
		},
		{
			name:            "JSON without definition",
			content:         `{"hindi":"kutta","synonyms":[]}`,
			wantError:       true,
			wantErrorString: "response has no definition",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/chat/completions", r.URL.Path)

				var reqBody openai.ChatCompletionRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
				assert.Equal(t, "gpt-4o-mini", reqBody.Model)
				require.NotEmpty(t, reqBody.Messages)
				assert.Contains(t, reqBody.Messages[0].Content, "'dog'")

				resp := openai.ChatCompletionResponse{
					Choices: []openai.ChatCompletionChoice{
						{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: tt.content}},
					},
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(resp)
			}))
			defer server.Close()

			client := NewClientWithBaseURL("test-key", "gpt-4o-mini", server.URL, 0)

			got, err := client.Define(context.Background(), "dog")
			if tt.wantError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrorString)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantResponse, got)
		})
	}
}

func TestClient_Define_WithTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{
					Role:    openai.ChatMessageRoleAssistant,
					Content: `{"definition":"a four-legged animal","hindi":"kutta","synonyms":[]}`,
				}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClientWithBaseURL("test-key", "gpt-4o-mini", server.URL, 5*time.Second)

	got, err := client.Define(context.Background(), "dog")
	require.NoError(t, err)
	assert.Equal(t, "a four-legged animal", got.Definition)
}

func TestClient_Define_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClientWithBaseURL("test-key", "gpt-4o-mini", server.URL, 0)

	_, err := client.Define(context.Background(), "dog")
	require.Error(t, err)
}
