package dictionary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// EntryRepository defines operations on the persistent word cache.
type EntryRepository interface {
	// FindByWord returns the entry for a normalized word, or nil when the
	// cache has no row for it.
	FindByWord(ctx context.Context, word string) (*Entry, error)
	Upsert(ctx context.Context, entry *Entry) error
}

// SavedWordRepository defines operations on the user-curated word list.
type SavedWordRepository interface {
	Upsert(ctx context.Context, word *SavedWord) error
	// FindAll returns saved words, newest first.
	FindAll(ctx context.Context) ([]SavedWord, error)
	Delete(ctx context.Context, word string) error
}

// ErrNotFound is returned when a keyed record does not exist.
var ErrNotFound = errors.New("not found")

// DBEntryRepository implements EntryRepository using MySQL.
type DBEntryRepository struct {
	db *sqlx.DB
}

// NewDBEntryRepository creates a new DBEntryRepository.
func NewDBEntryRepository(db *sqlx.DB) *DBEntryRepository {
	return &DBEntryRepository{db: db}
}

// FindByWord returns the cached entry for a normalized word, nil on a miss.
func (r *DBEntryRepository) FindByWord(ctx context.Context, word string) (*Entry, error) {
	var entry Entry
	err := r.db.GetContext(ctx, &entry, "SELECT * FROM dictionary_entries WHERE word = ?", word)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find dictionary entry: %w", err)
	}
	return &entry, nil
}

// Upsert inserts or updates a dictionary entry keyed by its word.
func (r *DBEntryRepository) Upsert(ctx context.Context, entry *Entry) error {
	_, err := r.db.NamedExecContext(ctx,
		"INSERT INTO dictionary_entries (word, definition, translation, synonyms) VALUES (:word, :definition, :translation, :synonyms) "+
			"ON DUPLICATE KEY UPDATE definition = VALUES(definition), translation = VALUES(translation), synonyms = VALUES(synonyms)",
		entry)
	if err != nil {
		return fmt.Errorf("upsert dictionary entry: %w", err)
	}
	return nil
}

// DBSavedWordRepository implements SavedWordRepository using MySQL.
type DBSavedWordRepository struct {
	db *sqlx.DB
}

// NewDBSavedWordRepository creates a new DBSavedWordRepository.
func NewDBSavedWordRepository(db *sqlx.DB) *DBSavedWordRepository {
	return &DBSavedWordRepository{db: db}
}

// Upsert inserts or overwrites a saved word keyed by its raw-case word.
func (r *DBSavedWordRepository) Upsert(ctx context.Context, word *SavedWord) error {
	_, err := r.db.NamedExecContext(ctx,
		"INSERT INTO saved_words (word, meaning, translation, synonyms) VALUES (:word, :meaning, :translation, :synonyms) "+
			"ON DUPLICATE KEY UPDATE meaning = VALUES(meaning), translation = VALUES(translation), synonyms = VALUES(synonyms)",
		word)
	if err != nil {
		return fmt.Errorf("upsert saved word: %w", err)
	}
	return nil
}

// FindAll returns all saved words, newest first.
func (r *DBSavedWordRepository) FindAll(ctx context.Context) ([]SavedWord, error) {
	var words []SavedWord
	if err := r.db.SelectContext(ctx, &words, "SELECT * FROM saved_words ORDER BY created_at DESC, word DESC"); err != nil {
		return nil, fmt.Errorf("load saved words: %w", err)
	}
	return words, nil
}

// Delete removes a saved word; deleting an unknown word is ErrNotFound.
func (r *DBSavedWordRepository) Delete(ctx context.Context, word string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM saved_words WHERE word = ?", word)
	if err != nil {
		return fmt.Errorf("delete saved word: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete saved word rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
