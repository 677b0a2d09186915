package pagesummary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"condense/internal/overlay"
	"condense/internal/page"
	"condense/internal/settings"
	"condense/internal/summarizer"
)

const (
	// MinTextLength is the shortest extracted text worth summarizing.
	MinTextLength = 100

	SummarizingMessage  = "Summarizing... 🧠"
	MissingModelMessage = "Please select a model and set its API key in the extension's options."

	missingKeyMessageFormat    = "Please set your %s API key in the extension's options."
	providerErrorMessageFormat = "Error with %s API: %s"
	transportMessageFormat     = "Failed to fetch summary from %s."
)

// Outcome is the terminal state of one summarization flow.
type Outcome string

const (
	OutcomeSettingsFailed Outcome = "settings_failed"
	OutcomeNotConfigured  Outcome = "not_configured"
	OutcomeExtractFailed  Outcome = "extract_failed"
	OutcomeTooShort       Outcome = "too_short"
	OutcomeSummarized     Outcome = "summarized"
	OutcomeProviderError  Outcome = "provider_error"
	OutcomeTransportError Outcome = "transport_error"
)

type Providers interface {
	ForModel(model settings.Model) (summarizer.Provider, bool)
}

type Recorder interface {
	ObserveOutcome(provider string, outcome string)
	ObserveRequest(provider string, d time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) ObserveOutcome(string, string)        {}
func (noopRecorder) ObserveRequest(string, time.Duration) {}

// Runner drives one page through settings lookup, extraction and the
// provider request, rendering every user-visible step on a display.
type Runner struct {
	extractor page.Extractor
	providers Providers
	recorder  Recorder
	log       *slog.Logger
}

func New(
	extractor page.Extractor,
	providers Providers,
	recorder Recorder,
	log *slog.Logger,
) *Runner {
	if extractor == nil {
		extractor = page.VisibleTextExtractor{}
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}

	return &Runner{
		extractor: extractor,
		providers: providers,
		recorder:  recorder,
		log:       log,
	}
}

// Start runs the flow in the background. Nothing deduplicates or cancels
// flows: when two run for one display, the last one to finish wins.
func (r *Runner) Start(
	ctx context.Context,
	store settings.Store,
	p *page.Page,
	display overlay.Display,
) {
	go r.Run(ctx, store, p, display)
}

func (r *Runner) Run(
	ctx context.Context,
	store settings.Store,
	p *page.Page,
	display overlay.Display,
) Outcome {
	outcome, providerName := r.run(ctx, store, p, display)
	r.recorder.ObserveOutcome(providerName, string(outcome))

	return outcome
}

func (r *Runner) run(
	ctx context.Context,
	store settings.Store,
	p *page.Page,
	display overlay.Display,
) (Outcome, string) {
	s, err := settings.Load(ctx, store)
	if err != nil {
		r.log.ErrorContext(ctx, "Failed to load settings",
			"error", err,
			"url", p.URL.String())

		return OutcomeSettingsFailed, ""
	}

	provider, ok := r.providers.ForModel(s.SelectedModel)
	if !ok {
		r.show(ctx, display, MissingModelMessage)

		return OutcomeNotConfigured, ""
	}

	apiKey := s.APIKey()
	if apiKey == "" {
		r.show(ctx, display, fmt.Sprintf(missingKeyMessageFormat, provider.Name()))

		return OutcomeNotConfigured, string(provider.Model())
	}

	text, err := r.extractor.Extract(p)
	if err != nil {
		r.log.ErrorContext(ctx, "Failed to extract page text",
			"error", err,
			"url", p.URL.String())

		return OutcomeExtractFailed, string(provider.Model())
	}

	textLength := utf8.RuneCountInString(text)
	if textLength < MinTextLength {
		r.log.InfoContext(ctx, "Page content is too short to summarize.",
			"url", p.URL.String(),
			"textLength", textLength)

		return OutcomeTooShort, string(provider.Model())
	}

	r.log.InfoContext(ctx, "Text sent for summarization",
		"url", p.URL.String(),
		"provider", provider.Name(),
		"textLength", textLength)
	r.log.DebugContext(ctx, "Text sent for summarization",
		"text", text)

	r.show(ctx, display, SummarizingMessage)

	return r.summarize(ctx, provider, text, apiKey, display), string(provider.Model())
}

func (r *Runner) summarize(
	ctx context.Context,
	provider summarizer.Provider,
	text string,
	apiKey string,
	display overlay.Display,
) Outcome {
	start := time.Now()
	summary, err := provider.Summarize(ctx, text, apiKey)
	r.recorder.ObserveRequest(string(provider.Model()), time.Since(start))

	if err == nil {
		r.show(ctx, display, provider.Label()+summary)

		return OutcomeSummarized
	}

	var apiErr *summarizer.APIError
	if errors.As(err, &apiErr) {
		r.log.WarnContext(ctx, "Provider reported an error",
			"error", err,
			"provider", provider.Name())

		r.show(ctx, display, fmt.Sprintf(providerErrorMessageFormat, provider.Name(), apiErr.DisplayMessage()))

		return OutcomeProviderError
	}

	r.log.ErrorContext(ctx, "Failed to fetch summary",
		"error", err,
		"provider", provider.Name())

	r.show(ctx, display, fmt.Sprintf(transportMessageFormat, provider.Name()))

	return OutcomeTransportError
}

func (r *Runner) show(ctx context.Context, display overlay.Display, text string) {
	if err := display.Show(ctx, text); err != nil {
		r.log.WarnContext(ctx, "Failed to display text",
			"error", err,
			"text", text)
	}
}
