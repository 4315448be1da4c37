package dictionary

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hoverlearn/hoverlearn/internal/inference"
	"github.com/hoverlearn/hoverlearn/internal/lexicon"
)

const (
	// maxLexiconSenses bounds how many senses contribute synonym lemmas.
	maxLexiconSenses = 3
	// maxLexiconSynonyms caps the synonym list produced by the lexicon tier.
	maxLexiconSynonyms = 5
)

// Resolver resolves raw word tokens through an ordered chain of tiers:
// persistent cache, static table, generative completion, offline lexicon.
// The first tier that answers wins; answers from tiers after the cache are
// written back to it.
type Resolver struct {
	entries    EntryRepository
	static     StaticTable
	completion inference.Client
	lexicon    lexicon.Lexicon
	tiers      []tier
	memo       *lru.Cache[string, Result]
	logger     *slog.Logger
}

// tier is one ranked fallback strategy. ok reports whether the tier
// produced an answer; a tier that fails internally reports !ok and the
// chain moves on.
type tier struct {
	name    string
	resolve func(ctx context.Context, clean, normalized string) (Result, bool)
}

// NewResolver builds a Resolver with the given collaborators. memoCapacity
// bounds the in-process memoization of raw tokens.
func NewResolver(
	entries EntryRepository,
	static StaticTable,
	completion inference.Client,
	lex lexicon.Lexicon,
	memoCapacity int,
	logger *slog.Logger,
) (*Resolver, error) {
	memo, err := lru.New[string, Result](memoCapacity)
	if err != nil {
		return nil, fmt.Errorf("create memoization cache: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Resolver{
		entries:    entries,
		static:     static,
		completion: completion,
		lexicon:    lex,
		memo:       memo,
		logger:     logger,
	}
	r.tiers = []tier{
		{name: "static_table", resolve: r.resolveStatic},
		{name: "completion", resolve: r.resolveCompletion},
		{name: "lexicon", resolve: r.resolveLexicon},
	}
	return r, nil
}

// Resolve turns a raw token into a Result. It never returns an error: every
// failure mode degrades to the next tier, and total failure yields the
// sentinel definition with Found=false.
//
// Memoization keys on the raw token as given, including case, so different
// spellings of the same word occupy separate memo slots even though they
// share one cache row. That mirrors the persistent cache being keyed on the
// normalized form while callers pass display-case words.
func (r *Resolver) Resolve(ctx context.Context, raw string) Result {
	if cached, ok := r.memo.Get(raw); ok {
		return cached
	}

	result := r.resolve(ctx, raw)
	r.memo.Add(raw, result)
	return result
}

func (r *Resolver) resolve(ctx context.Context, raw string) Result {
	clean, normalized := Normalize(raw)
	logger := r.logger.With("word", raw, "normalized", normalized)

	// Tier 1: the persistent cache is authoritative and terminal. A hit is
	// returned as-is and is never overwritten through this path.
	entry, err := r.entries.FindByWord(ctx, normalized)
	if err != nil {
		logger.Warn("dictionary cache lookup failed", "error", err)
	}
	if entry != nil {
		return Result{
			Definition:  entry.Definition,
			Translation: entry.Translation.String,
			Synonyms:    splitSynonyms(entry.Synonyms),
			Found:       true,
		}
	}

	for _, t := range r.tiers {
		result, ok := t.resolve(ctx, clean, normalized)
		if !ok {
			continue
		}
		if result.Synonyms == nil {
			result.Synonyms = []string{}
		}
		r.writeThrough(ctx, normalized, result, logger)
		return result
	}

	return Result{
		Definition: NotAvailable,
		Synonyms:   []string{},
		Found:      false,
	}
}

// resolveStatic consults the in-memory common-words table.
func (r *Resolver) resolveStatic(_ context.Context, _ string, normalized string) (Result, bool) {
	definition, ok := r.static.Lookup(normalized)
	if !ok {
		return Result{}, false
	}
	return Result{Definition: definition, Found: true}, true
}

// resolveCompletion performs a single generative-completion request. Any
// request or parse failure fails the whole tier; the error is logged, not
// propagated.
func (r *Resolver) resolveCompletion(ctx context.Context, clean string, _ string) (Result, bool) {
	definition, err := r.completion.Define(ctx, clean)
	if err != nil {
		r.logger.Warn("completion tier failed", "word", clean, "error", err)
		return Result{}, false
	}
	return Result{
		Definition:  definition.Definition,
		Translation: definition.Hindi,
		Synonyms:    definition.Synonyms,
		Found:       true,
	}, true
}

// resolveLexicon looks the cleaned word up in the offline lexicon. The
// first sense supplies the definition; lemmas of up to the first three
// senses supply synonyms, excluding the word itself, capped at five. No
// translation is available offline.
func (r *Resolver) resolveLexicon(_ context.Context, clean string, _ string) (Result, bool) {
	senses := r.lexicon.Senses(clean)
	if len(senses) == 0 {
		return Result{}, false
	}

	seen := map[string]bool{}
	var synonyms []string
	for i, sense := range senses {
		if i >= maxLexiconSenses {
			break
		}
		for _, lemma := range sense.Lemmas {
			name := strings.ReplaceAll(lemma, "_", " ")
			if strings.EqualFold(name, clean) {
				continue
			}
			if seen[name] {
				continue
			}
			seen[name] = true
			synonyms = append(synonyms, name)
			if len(synonyms) == maxLexiconSynonyms {
				break
			}
		}
		if len(synonyms) == maxLexiconSynonyms {
			break
		}
	}

	return Result{
		Definition: senses[0].Definition,
		Synonyms:   synonyms,
		Found:      true,
	}, true
}

// writeThrough persists a fresh (non-cache) resolution. Failures are logged
// and swallowed: the caller still gets the resolved result, and the same
// word will retry the upsert on a future uncached call.
func (r *Resolver) writeThrough(ctx context.Context, normalized string, result Result, logger *slog.Logger) {
	entry := &Entry{
		Word:       normalized,
		Definition: result.Definition,
		Synonyms:   joinSynonyms(result.Synonyms),
	}
	if result.Translation != "" {
		entry.Translation = sql.NullString{String: result.Translation, Valid: true}
	}
	if err := r.entries.Upsert(ctx, entry); err != nil {
		logger.Warn("dictionary cache write-through failed", "error", err)
	}
}
