package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hoverlearn/hoverlearn/internal/catalog"
	"github.com/hoverlearn/hoverlearn/internal/database"
)

func newCatalogCommand() *cobra.Command {
	rootCommand := cobra.Command{
		Use: "catalog",
	}

	rootCommand.AddCommand(&cobra.Command{
		Use:   "import <videos.yml>",
		Short: "Seed the video catalog from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seeds, err := catalog.LoadSeedFile(args[0])
			if err != nil {
				return fmt.Errorf("catalog.LoadSeedFile() > %w", err)
			}

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
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("database.Migrate() > %w", err)
			}

			count, err := catalog.Import(cmd.Context(), catalog.NewDBVideoRepository(db), seeds)
			if err != nil {
				return fmt.Errorf("catalog.Import() > %w", err)
			}
			fmt.Printf("Imported %d videos\n", count)
			return nil
		},
	})

	return &rootCommand
}
