package summarizer

import (
	"context"
	"fmt"
	"net/http"

	"condense/internal/settings"
)

const unknownErrorMessage = "Unknown error"

// Provider is a third-party summarization API.
type Provider interface {
	Model() settings.Model
	// Name is the human-readable provider name used in messages.
	Name() string
	// Label prefixes a successful summary.
	Label() string
	Summarize(ctx context.Context, text string, apiKey string) (string, error)
}

// APIError is an error the provider reported itself, or a response that
// lacked the expected summary field.
type APIError struct {
	Provider string
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: %s", e.Provider, e.DisplayMessage())
}

// DisplayMessage is the provider message, or "Unknown error" when the
// provider did not send one.
func (e *APIError) DisplayMessage() string {
	if e.Message == "" {
		return unknownErrorMessage
	}

	return e.Message
}

// TransportError means no usable response arrived: the request failed or the
// body could not be decoded.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type Config struct {
	HTTPClient    *http.Client
	CohereBaseURL string
	OpenAIBaseURL string
}

// Registry holds one provider per selectable model.
type Registry struct {
	cohere *Cohere
	openai *OpenAI
}

func NewRegistry(cfg Config) *Registry {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	return &Registry{
		cohere: NewCohere(client, cfg.CohereBaseURL),
		openai: NewOpenAI(client, cfg.OpenAIBaseURL),
	}
}

// ForModel returns the provider for model, or false when model is not
// selectable.
func (r *Registry) ForModel(model settings.Model) (Provider, bool) {
	switch model {
	case settings.ModelCohere:
		return r.cohere, true
	case settings.ModelOpenAI:
		return r.openai, true
	case settings.ModelUnset:
		return nil, false
	default:
		return nil, false
	}
}
