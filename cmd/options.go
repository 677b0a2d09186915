package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"condense/internal/config"
	"condense/internal/options"
	"condense/internal/settings"
)

// cliView prints the options form as plain lines.
type cliView struct {
	w           io.Writer
	model       settings.Model
	value       string
	placeholder string
}

func (v *cliView) SetModel(model settings.Model)           { v.model = model }
func (v *cliView) SetAPIKeyValue(value string)             { v.value = value }
func (v *cliView) SetAPIKeyPlaceholder(placeholder string) { v.placeholder = placeholder }

func (v *cliView) SetStatus(text string) {
	if text != "" {
		fmt.Fprintln(v.w, text)
	}
}

func (v *cliView) print() {
	fmt.Fprintf(v.w, "Model: %s\n", v.model)

	if v.value == "" {
		fmt.Fprintf(v.w, "API key: (%s)\n", v.placeholder)
		return
	}

	fmt.Fprintf(v.w, "API key: %s\n", options.MaskAPIKey(v.value))
}

func newOptionsCmd() *cobra.Command {
	var profile string

	cmd := &cobra.Command{
		Use:   "options",
		Short: "Show or change the summarization model and API keys",
	}
	cmd.PersistentFlags().StringVar(&profile, "profile", defaultProfile, "settings profile to use")

	cmd.AddCommand(newOptionsShowCmd(&profile), newOptionsSetCmd(&profile))

	return cmd
}

func newOptionsShowCmd(profile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the selected model and its API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			view := &cliView{w: cmd.OutOrStdout()}
			controller := options.New(scopes(*profile), view, log)
			defer controller.Close()

			if _, err := controller.Load(ctx); err != nil {
				return err
			}

			view.print()

			return nil
		},
	}
}

func newOptionsSetCmd(profile *string) *cobra.Command {
	var (
		model  string
		apiKey string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Select a model and store its API key",
		Long: "Select a model and store its API key. Without --api-key the key " +
			"already stored for the model is kept. Other models' keys are never touched.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			view := &cliView{w: cmd.OutOrStdout()}
			controller := options.New(scopes(*profile), view, log)
			defer controller.Close()

			return setOptions(cmd, controller, view, settings.Model(model), apiKey)
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "model to select (cohere or openai)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key for the selected model")

	return cmd
}

// setOptions drives the form the way a user would: load, switch model,
// edit the key field, submit.
func setOptions(
	cmd *cobra.Command,
	controller *options.Controller,
	view *cliView,
	model settings.Model,
	apiKey string,
) error {
	ctx := cmd.Context()

	if _, err := controller.Load(ctx); err != nil {
		return err
	}

	if cmd.Flags().Changed("model") {
		if !model.Valid() {
			return fmt.Errorf("unknown model %q", model)
		}

		if err := controller.ChangeModel(ctx, model); err != nil {
			return err
		}
	}

	if cmd.Flags().Changed("api-key") {
		view.SetAPIKeyValue(apiKey)
	}

	if err := controller.Submit(ctx, view.model, view.value); err != nil {
		return err
	}

	view.print()

	return nil
}
