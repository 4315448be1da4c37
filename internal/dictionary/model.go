// Package dictionary implements word resolution: a tiered fallback chain
// that turns a raw subtitle token into a definition, translation, and
// synonym list, backed by a persistent cache.
package dictionary

import (
	"database/sql"
	"strings"
	"time"
	"unicode"
)

// NotAvailable is the sentinel definition returned when every tier fails.
const NotAvailable = "Definition not available."

// synonymDelimiter joins synonym lists for storage.
const synonymDelimiter = ","

// Entry is a row of the persistent word cache. Once written, an entry is
// authoritative for its normalized word and is never re-fetched from
// external sources.
type Entry struct {
	Word        string         `db:"word"`
	Definition  string         `db:"definition"`
	Translation sql.NullString `db:"translation"`
	Synonyms    string         `db:"synonyms"`
	CreatedAt   time.Time      `db:"created_at"`
}

// SavedWord is a user-curated vocabulary item keyed on the display-case
// word. The resolution bundle is denormalized into it at save time.
type SavedWord struct {
	Word        string         `db:"word"`
	Meaning     string         `db:"meaning"`
	Translation sql.NullString `db:"translation"`
	Synonyms    string         `db:"synonyms"`
	CreatedAt   time.Time      `db:"created_at"`
}

// SynonymList returns the stored synonyms as a slice.
func (w SavedWord) SynonymList() []string {
	return splitSynonyms(w.Synonyms)
}

// NewSavedWord denormalizes a resolution result into a saved-word row keyed
// on the display-case word.
func NewSavedWord(word string, result Result) SavedWord {
	saved := SavedWord{
		Word:     word,
		Meaning:  result.Definition,
		Synonyms: joinSynonyms(result.Synonyms),
	}
	if result.Translation != "" {
		saved.Translation = sql.NullString{String: result.Translation, Valid: true}
	}
	return saved
}

// Result is the resolution contract. Found is false only when every tier
// failed; the caller still gets the sentinel definition and renders a
// not-found card instead of an error.
type Result struct {
	Definition  string   `json:"definition"`
	Translation string   `json:"translation,omitempty"`
	Synonyms    []string `json:"synonyms"`
	Found       bool     `json:"found"`
}

// Normalize strips every non-alphanumeric rune from raw and returns the
// cleaned token plus its uppercased form, which keys the persistent cache.
func Normalize(raw string) (clean, normalized string) {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	clean = b.String()
	return clean, strings.ToUpper(clean)
}

// splitSynonyms turns a stored synonym string back into a list; an empty
// string means no synonyms, not one empty synonym.
func splitSynonyms(joined string) []string {
	if joined == "" {
		return []string{}
	}
	return strings.Split(joined, synonymDelimiter)
}

// joinSynonyms is the inverse of splitSynonyms.
func joinSynonyms(synonyms []string) string {
	return strings.Join(synonyms, synonymDelimiter)
}
