package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"condense/internal/config"
	"condense/internal/database"
	"condense/internal/page"
	"condense/internal/pagesummary"
	"condense/internal/settings"
	"condense/internal/summarizer"
)

const defaultProfile = "local"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "condense",
		Short:        "Summarize web pages with Cohere or OpenAI",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newSummarizeCmd(),
		newOptionsCmd(),
		newBotCmd(),
	)

	return rootCmd
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// openScopes opens the configured settings backend. The returned close
// function releases it.
func openScopes(
	ctx context.Context,
	cfg config.Config,
	log *slog.Logger,
) (settings.Scopes, func() error, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		db, err := database.New(ctx, cfg.DBPath, log)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}

		log.InfoContext(ctx, "DB is initialized",
			"dbPath", cfg.DBPath)

		return func(scope string) settings.Store { return db.Settings(scope) }, db.Close, nil

	case config.StoreRedis:
		r, err := settings.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open redis: %w", err)
		}

		log.InfoContext(ctx, "Redis is initialized")

		return func(scope string) settings.Store { return r.Scope(scope) }, r.Close, nil

	case config.StoreMemory:
		log.WarnContext(ctx, "Settings are kept in memory and will be lost on exit")

		return settings.NewMemoryScopes().Scope, func() error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func newRunner(
	cfg config.Config,
	recorder pagesummary.Recorder,
	log *slog.Logger,
) (*pagesummary.Runner, error) {
	extractor, err := page.NewExtractor(cfg.Extractor)
	if err != nil {
		return nil, fmt.Errorf("create extractor: %w", err)
	}

	providers := summarizer.NewRegistry(summarizer.Config{
		CohereBaseURL: cfg.CohereBaseURL,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
	})

	return pagesummary.New(extractor, providers, recorder, log), nil
}

func closeWithLog(ctx context.Context, log *slog.Logger, closeFn func() error) {
	if err := closeFn(); err != nil {
		log.ErrorContext(ctx, "Failed to close settings store",
			"error", err)
	}
}
