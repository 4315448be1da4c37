package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hoverlearn/hoverlearn/internal/config"
	"github.com/hoverlearn/hoverlearn/internal/database"
	"github.com/hoverlearn/hoverlearn/internal/dictionary"
	"github.com/hoverlearn/hoverlearn/internal/inference"
	"github.com/hoverlearn/hoverlearn/internal/inference/gemini"
	"github.com/hoverlearn/hoverlearn/internal/inference/openai"
	"github.com/hoverlearn/hoverlearn/internal/lexicon"
)

type Provider string

func (p *Provider) Set(val string) error {
	for _, provider := range allProviders {
		if val == string(provider) {
			*p = provider
			return nil
		}
	}
	return fmt.Errorf("invalid provider: %s", val)
}

func (p Provider) String() string {
	return string(p)
}

func (p *Provider) Type() string {
	return "Provider"
}

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

var (
	_            pflag.Value = (*Provider)(nil)
	allProviders             = []Provider{ProviderGemini, ProviderOpenAI}
)

func newDefineCommand() *cobra.Command {
	var provider Provider
	command := &cobra.Command{
		Use:   "define <word>",
		Short: "Resolve a word through the full lookup chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			word := args[0]

			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("loadConfig() > %w", err)
			}
			if provider != "" {
				cfg.Completion.Provider = string(provider)
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

			resolver, err := newResolver(cfg, db)
			if err != nil {
				return err
			}

			result := resolver.Resolve(cmd.Context(), word)
			printResult(word, result)
			return nil
		},
	}
	command.Flags().Var(&provider, "provider",
		fmt.Sprintf("Completion provider to use. Possible values are %v", allProviders))
	return command
}

func newResolver(cfg *config.Config, db *sqlx.DB) (*dictionary.Resolver, error) {
	staticTable, err := dictionary.LoadStaticTable(cfg.Dictionary.StaticTableFile)
	if err != nil {
		return nil, fmt.Errorf("dictionary.LoadStaticTable() > %w", err)
	}
	lex, err := lexicon.Load(cfg.Lexicon.Directory)
	if err != nil {
		return nil, fmt.Errorf("lexicon.Load() > %w", err)
	}

	var completion inference.Client
	switch cfg.Completion.Provider {
	case "gemini":
		completion = gemini.NewClient(cfg.Completion.Gemini.APIKey, cfg.Completion.Gemini.Model,
			cfg.Completion.Timeout, cfg.Completion.RetryAttempts)
	case "openai":
		completion = openai.NewClient(cfg.Completion.OpenAI.APIKey, cfg.Completion.OpenAI.Model,
			cfg.Completion.Timeout)
	default:
		return nil, fmt.Errorf("unknown completion provider: %s", cfg.Completion.Provider)
	}

	return dictionary.NewResolver(
		dictionary.NewDBEntryRepository(db),
		staticTable,
		completion,
		lex,
		cfg.Dictionary.MemoCapacity,
		slog.Default(),
	)
}

func printResult(word string, result dictionary.Result) {
	if !result.Found {
		color.Red("No definition found for %q", word)
		return
	}

	color.Green("%s", word)
	fmt.Println(result.Definition)
	if result.Translation != "" {
		fmt.Printf("Translation: %s\n", result.Translation)
	}
	if len(result.Synonyms) > 0 {
		fmt.Printf("Synonyms: %s\n", strings.Join(result.Synonyms, ", "))
	}
}
