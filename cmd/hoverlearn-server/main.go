package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/hoverlearn/hoverlearn/internal/bootstrap"
	"github.com/hoverlearn/hoverlearn/internal/catalog"
	"github.com/hoverlearn/hoverlearn/internal/config"
	"github.com/hoverlearn/hoverlearn/internal/database"
	"github.com/hoverlearn/hoverlearn/internal/dictionary"
	"github.com/hoverlearn/hoverlearn/internal/inference"
	"github.com/hoverlearn/hoverlearn/internal/inference/gemini"
	"github.com/hoverlearn/hoverlearn/internal/inference/openai"
	"github.com/hoverlearn/hoverlearn/internal/lexicon"
	"github.com/hoverlearn/hoverlearn/internal/media"
	"github.com/hoverlearn/hoverlearn/internal/server"
)

var configFile string

func main() {
	rootCommand := cobra.Command{
		Use:           "hoverlearn-server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
	rootCommand.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	if err := rootCommand.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loadConfig() > %w", err)
	}
	if cfg.Auth.Secret == "" {
		return fmt.Errorf("AUTH_SECRET environment variable is required")
	}

	app := bootstrap.New(logger)

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("database.Open() > %w", err)
	}
	app.AddShutdownHook("database", func(ctx context.Context) error {
		return db.Close()
	})
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("database.Migrate() > %w", err)
	}

	staticTable, err := dictionary.LoadStaticTable(cfg.Dictionary.StaticTableFile)
	if err != nil {
		return fmt.Errorf("dictionary.LoadStaticTable() > %w", err)
	}
	lex, err := lexicon.Load(cfg.Lexicon.Directory)
	if err != nil {
		return fmt.Errorf("lexicon.Load() > %w", err)
	}
	logger.Info("lexicon loaded", slog.Int("lemmas", lex.Len()))

	completion, err := newCompletionClient(cfg.Completion)
	if err != nil {
		return err
	}

	resolver, err := dictionary.NewResolver(
		dictionary.NewDBEntryRepository(db),
		staticTable,
		completion,
		lex,
		cfg.Dictionary.MemoCapacity,
		logger,
	)
	if err != nil {
		return fmt.Errorf("dictionary.NewResolver() > %w", err)
	}

	handler := server.NewHandler(
		resolver,
		dictionary.NewDBSavedWordRepository(db),
		catalog.NewDBVideoRepository(db),
		catalog.NewDBNoteRepository(db),
		catalog.NewDBHistoryRepository(db),
		catalog.NewDBVoteRepository(db),
		media.NewS3Store(cfg.Media),
		logger,
	)
	router := server.NewRouter(handler, cfg.Server, []byte(cfg.Auth.Secret), logger)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: h2c.NewHandler(router, &http2.Server{}),
	}
	app.AddShutdownHook("http server", func(ctx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return app.Run(ctx, func(ctx context.Context) error {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("httpServer.ListenAndServe() > %w", err)
		}
		return nil
	})
}

func newCompletionClient(cfg config.CompletionConfig) (inference.Client, error) {
	switch cfg.Provider {
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
		}
		return gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Timeout, cfg.RetryAttempts), nil
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
		}
		return openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.Timeout), nil
	}
	return nil, fmt.Errorf("unknown completion provider: %s", cfg.Provider)
}

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("config.NewConfigLoader() > %w", err)
	}
	return loader.Load()
}
