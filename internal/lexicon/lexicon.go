// Package lexicon provides an offline word-sense database used as the last
// resolution fallback when no online source is reachable.
package lexicon

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sense is one distinct meaning of a word: its definition and the lemmas
// (synonym-bearing word forms) that share it.
type Sense struct {
	Definition string
	Lemmas     []string
}

// Lexicon exposes the ordered senses known for a word.
type Lexicon interface {
	Senses(word string) []Sense
}

// FileLexicon is an in-memory Lexicon loaded once from tab-separated sense
// files. Each line is `lemma<TAB>definition<TAB>lemma1,lemma2,...`; one file
// per part of speech, senses appear in file order. Multi-word lemmas use
// "_" as the word joiner, WordNet style.
type FileLexicon struct {
	senses map[string][]Sense
}

// Load reads every *.tsv file in dir. A missing or empty directory yields an
// empty lexicon, not an error: the fallback tier simply never matches.
func Load(dir string) (*FileLexicon, error) {
	lex := &FileLexicon{senses: map[string][]Sense{}}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return lex, nil
		}
		return nil, fmt.Errorf("os.ReadDir(%s): %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tsv") {
			continue
		}
		if err := lex.loadFile(filepath.Join(dir, entry.Name())); err != nil {
			return nil, fmt.Errorf("load sense file %s: %w", entry.Name(), err)
		}
	}
	return lex, nil
}

func (l *FileLexicon) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("os.Open: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.SplitN(line, "\t", 3)
		if len(fields) < 2 {
			continue
		}

		key := strings.ToLower(fields[0])
		sense := Sense{Definition: fields[1]}
		if len(fields) == 3 && fields[2] != "" {
			sense.Lemmas = strings.Split(fields[2], ",")
		}
		l.senses[key] = append(l.senses[key], sense)
	}
	return scanner.Err()
}

// Senses returns the senses for word in file order. Lookup is
// case-insensitive; an unknown word yields nil.
func (l *FileLexicon) Senses(word string) []Sense {
	return l.senses[strings.ToLower(word)]
}

// Len reports the number of distinct words in the lexicon.
func (l *FileLexicon) Len() int {
	return len(l.senses)
}
