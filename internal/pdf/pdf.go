// Package pdf renders a study sheet of saved words and notes as PDF.
package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mandolyte/mdtopdf"

	"github.com/hoverlearn/hoverlearn/internal/catalog"
	"github.com/hoverlearn/hoverlearn/internal/dictionary"
)

// BuildStudySheet renders saved words and notes as a Markdown document.
func BuildStudySheet(words []dictionary.SavedWord, notes []catalog.Note) string {
	var b strings.Builder
	b.WriteString("# Study Sheet\n\n")

	b.WriteString("## Saved Words\n\n")
	if len(words) == 0 {
		b.WriteString("No saved words yet.\n\n")
	}
	for _, word := range words {
		fmt.Fprintf(&b, "### %s\n\n", word.Word)
		fmt.Fprintf(&b, "%s\n\n", word.Meaning)
		if word.Translation.Valid {
			fmt.Fprintf(&b, "- Translation: %s\n", word.Translation.String)
		}
		if synonyms := word.SynonymList(); len(synonyms) > 0 {
			fmt.Fprintf(&b, "- Synonyms: %s\n", strings.Join(synonyms, ", "))
		}
		b.WriteString("\n")
	}

	if len(notes) > 0 {
		b.WriteString("## Notes\n\n")
		for _, note := range notes {
			if timestamp := note.FormattedTimestamp(); timestamp != "" {
				fmt.Fprintf(&b, "- [%s] %s\n", timestamp, note.Content)
			} else {
				fmt.Fprintf(&b, "- %s\n", note.Content)
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}

// ExportStudySheet writes the Markdown next to the requested PDF path and
// converts it. It returns the absolute path of the generated PDF.
func ExportStudySheet(pdfPath string, words []dictionary.SavedWord, notes []catalog.Note) (string, error) {
	if !strings.HasSuffix(pdfPath, ".pdf") {
		return "", fmt.Errorf("output file must have .pdf extension: %s", pdfPath)
	}

	markdownPath := strings.TrimSuffix(pdfPath, ".pdf") + ".md"
	content := BuildStudySheet(words, notes)
	if err := os.WriteFile(markdownPath, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("os.WriteFile(%s) > %w", markdownPath, err)
	}

	renderer := mdtopdf.NewPdfRenderer("P", "A4", pdfPath, "", nil, mdtopdf.LIGHT)
	if err := renderer.Process([]byte(content)); err != nil {
		return "", fmt.Errorf("renderer.Process() > %w", err)
	}

	absPath, err := filepath.Abs(pdfPath)
	if err != nil {
		return pdfPath, nil
	}
	return absPath, nil
}
