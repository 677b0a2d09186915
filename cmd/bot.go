package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"condense/internal/bot"
	"condense/internal/config"
	"condense/internal/metrics"
	"condense/internal/page"
)

const metricsShutdownTimeout = 5 * time.Second

func newBotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot that summarizes links sent to it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateBot(); err != nil {
				return err
			}

			return runBot(cmd.Context(), cfg)
		},
	}
}

func runBot(parent context.Context, cfg config.Config) error {
	log := newLogger(os.Stdout, cfg.LogLevel)

	start := time.Now()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	scopes, closeStore, err := openScopes(ctx, cfg, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize settings store",
			"error", err,
			"store", cfg.Store)

		return err
	}
	defer closeWithLog(ctx, log, closeStore)

	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	runner, err := newRunner(cfg, m, log)
	if err != nil {
		return err
	}

	botInst, err := bot.New(cfg.Token, scopes, page.NewFetcher(nil, log), runner, cfg.AllowedUsers, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize bot",
			"error", err,
			"allowedUsersCount", len(cfg.AllowedUsers))

		return err
	}
	log.InfoContext(ctx, "Bot is initialized",
		"allowedUsersCount", len(cfg.AllowedUsers),
		"extractor", cfg.Extractor)

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metrics.Handler(reg),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.ErrorContext(ctx, "Failed to serve metrics",
					"error", err,
					"addr", cfg.MetricsAddr)
			}
		}()
		log.InfoContext(ctx, "Metrics server is started",
			"addr", cfg.MetricsAddr)
	}

	go func() {
		botInst.Start(ctx)
	}()
	log.InfoContext(ctx, "Bot is started")

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)

	select {
	case sig := <-c:
		log.InfoContext(ctx, "Shutdown signal is received",
			"signal", sig.String())
	case <-parent.Done():
	}
	cancel()

	log.InfoContext(ctx, "Exiting...",
		"uptimeSeconds", time.Since(start).Seconds())

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), metricsShutdownTimeout)
		defer shutdownCancel()

		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.ErrorContext(ctx, "Failed to stop metrics server",
				"error", err)
		}
	}

	botInst.Stop()
	log.InfoContext(ctx, "Bot is stopped",
		"uptimeSeconds", time.Since(start).Seconds())

	return nil
}
