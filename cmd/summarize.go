package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"condense/internal/config"
	"condense/internal/overlay"
	"condense/internal/page"
	"condense/internal/pagesummary"
)

func newSummarizeCmd() *cobra.Command {
	var (
		profile string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "summarize <url>",
		Short: "Summarize a web page and print the banner text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			log := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)

			scopes, closeStore, err := openScopes(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeWithLog(ctx, log, closeStore)

			runner, err := newRunner(cfg, nil, log)
			if err != nil {
				return err
			}

			p, err := page.NewFetcher(nil, log).Fetch(ctx, args[0])
			if err != nil {
				return err
			}

			banner := overlay.NewBanner(p.Doc)
			display := overlay.Multi(banner, overlay.NewWriter(cmd.OutOrStdout()))

			outcome := runner.Run(ctx, scopes(profile), p, display)

			if output != "" && banner.Text() != "" {
				if err := writePage(output, p); err != nil {
					return err
				}

				log.InfoContext(ctx, "Page with banner is written",
					"path", output)
			}

			switch outcome {
			case pagesummary.OutcomeSettingsFailed, pagesummary.OutcomeExtractFailed:
				return fmt.Errorf("summarize page: %s", outcome)
			default:
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&profile, "profile", defaultProfile, "settings profile to read")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the page HTML with the banner to this file")

	return cmd
}

func writePage(path string, p *page.Page) error {
	html, err := p.HTML()
	if err != nil {
		return fmt.Errorf("render page: %w", err)
	}

	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return fmt.Errorf("write page: %w", err)
	}

	return nil
}
