// Package inference defines the contract for generative text-completion
// backends used to define words.
package inference

import (
	"context"
	"fmt"
	"strings"
)

//go:generate mockgen -source=interface.go -destination=../mocks/inference/mock_client.go -package=mock_inference

// Client interface defines the methods for AI inference operations.
type Client interface {
	// Define asks the completion backend for a simple-English definition,
	// a Hindi translation, and three synonyms of word. Implementations
	// return an error for any request or parse failure; callers treat every
	// error as a tier failure and fall through.
	Define(ctx context.Context, word string) (WordDefinition, error)
}

// WordDefinition is the structured answer a completion backend produces.
type WordDefinition struct {
	Definition string   `json:"definition"`
	Hindi      string   `json:"hindi"`
	Synonyms   []string `json:"synonyms"`
}

// DefinePrompt builds the fixed instruction template shared by all backends.
func DefinePrompt(word string) string {
	return fmt.Sprintf(
		"Define the word '%s' in simple English. "+
			"Also provide the Hindi translation and 3 synonyms. "+
			"Return ONLY a JSON object with keys: 'definition', 'hindi', 'synonyms' (list).",
		word,
	)
}

// StripCodeFences removes surrounding Markdown code-fence markup from a raw
// completion response so the remainder can be parsed as JSON.
func StripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
