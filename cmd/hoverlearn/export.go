package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hoverlearn/hoverlearn/internal/database"
	"github.com/hoverlearn/hoverlearn/internal/dictionary"
	"github.com/hoverlearn/hoverlearn/internal/pdf"
)

func newExportCommand() *cobra.Command {
	rootCommand := cobra.Command{
		Use: "export",
	}

	var output string
	savedWordsCommand := &cobra.Command{
		Use:   "saved-words",
		Short: "Export the saved-word list as a PDF study sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("loadConfig() > %w", err)
			}
			db, err := database.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("database.Open() > %w", err)
			}
			defer func() {
				_ = db.Close()
			}()

			words, err := dictionary.NewDBSavedWordRepository(db).FindAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("FindAll() > %w", err)
			}

			path, err := pdf.ExportStudySheet(output, words, nil)
			if err != nil {
				return fmt.Errorf("pdf.ExportStudySheet() > %w", err)
			}
			fmt.Printf("Wrote %s (%d words)\n", path, len(words))
			return nil
		},
	}
	savedWordsCommand.Flags().StringVar(&output, "output", "study-sheet.pdf", "output PDF path")
	rootCommand.AddCommand(savedWordsCommand)

	return &rootCommand
}
