package settings

import (
	"context"
	"fmt"
	"strings"
)

const (
	KeySelectedModel = "selectedModel"
	KeyCohereAPIKey  = "cohereApiKey"
	KeyOpenAIAPIKey  = "openaiApiKey"
)

// Model identifies the summarization provider chosen in the options.
type Model string

const (
	ModelUnset  Model = ""
	ModelCohere Model = "cohere"
	ModelOpenAI Model = "openai"

	DefaultModel = ModelCohere
)

// Models lists every selectable model in display order.
var Models = []Model{ModelCohere, ModelOpenAI} //nolint:gochecknoglobals // Read-only enumeration.

func (m Model) Valid() bool {
	switch m {
	case ModelCohere, ModelOpenAI:
		return true
	default:
		return false
	}
}

// KeyName returns the store key holding the API key for m, or "" for
// models without one.
func (m Model) KeyName() string {
	switch m {
	case ModelCohere:
		return KeyCohereAPIKey
	case ModelOpenAI:
		return KeyOpenAIAPIKey
	default:
		return ""
	}
}

// Title upper-cases the first letter, so "openai" becomes "Openai".
func (m Model) Title() string {
	s := string(m)
	if s == "" {
		return ""
	}

	return strings.ToUpper(s[:1]) + s[1:]
}

type Settings struct {
	SelectedModel Model
	CohereAPIKey  string
	OpenAIAPIKey  string
}

// APIKey returns the key that belongs to the selected model.
func (s Settings) APIKey() string {
	switch s.SelectedModel {
	case ModelCohere:
		return s.CohereAPIKey
	case ModelOpenAI:
		return s.OpenAIAPIKey
	default:
		return ""
	}
}

// Store is a persistent string-to-string mapping. Get returns only the keys
// that are present. Set merges: keys missing from values stay untouched.
type Store interface {
	Get(ctx context.Context, keys ...string) (map[string]string, error)
	Set(ctx context.Context, values map[string]string) error
}

// Scopes opens the store of one settings owner, such as a CLI profile or a
// chat user.
type Scopes func(scope string) Store

func Load(ctx context.Context, store Store) (Settings, error) {
	items, err := store.Get(ctx, KeySelectedModel, KeyCohereAPIKey, KeyOpenAIAPIKey)
	if err != nil {
		return Settings{}, fmt.Errorf("get settings: %w", err)
	}

	return FromItems(items), nil
}

func FromItems(items map[string]string) Settings {
	return Settings{
		SelectedModel: Model(items[KeySelectedModel]),
		CohereAPIKey:  items[KeyCohereAPIKey],
		OpenAIAPIKey:  items[KeyOpenAIAPIKey],
	}
}
