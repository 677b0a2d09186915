package options

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"condense/internal/settings"
)

const (
	SavedMessage = "Options saved."

	DefaultStatusDuration = 1500 * time.Millisecond

	placeholderPrefix = "Enter API Key for "
)

// View is the options form: a model selector, an API key field and a
// status line.
type View interface {
	SetModel(model settings.Model)
	SetAPIKeyValue(value string)
	SetAPIKeyPlaceholder(placeholder string)
	SetStatus(text string)
}

type Option func(*Controller)

func WithStatusDuration(d time.Duration) Option {
	return func(c *Controller) {
		c.statusDuration = d
	}
}

type Controller struct {
	store          settings.Store
	view           View
	statusDuration time.Duration
	log            *slog.Logger

	mu          sync.Mutex
	statusTimer *time.Timer
}

func New(
	store settings.Store,
	view View,
	log *slog.Logger,
	opts ...Option,
) *Controller {
	c := &Controller{
		store:          store,
		view:           view,
		statusDuration: DefaultStatusDuration,
		log:            log,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Load populates the form from the store and returns the selected model.
// An absent or empty model selects the default.
func (c *Controller) Load(ctx context.Context) (settings.Model, error) {
	items, err := c.store.Get(ctx,
		settings.KeySelectedModel,
		settings.KeyCohereAPIKey,
		settings.KeyOpenAIAPIKey)
	if err != nil {
		return "", fmt.Errorf("get settings: %w", err)
	}

	model := settings.Model(items[settings.KeySelectedModel])
	if model == settings.ModelUnset {
		model = settings.DefaultModel
	}

	c.view.SetModel(model)
	c.refreshKeyField(model, items)

	return model, nil
}

// ChangeModel reloads the key field for model. Unsaved edits in the field
// are discarded.
func (c *Controller) ChangeModel(ctx context.Context, model settings.Model) error {
	items, err := c.store.Get(ctx, settings.KeyCohereAPIKey, settings.KeyOpenAIAPIKey)
	if err != nil {
		return fmt.Errorf("get api keys: %w", err)
	}

	c.view.SetModel(model)
	c.refreshKeyField(model, items)

	return nil
}

// Submit stores the model and, for known models, the key field value under
// that model's key. Other keys are left untouched. The key is not validated
// and may be empty.
func (c *Controller) Submit(ctx context.Context, model settings.Model, apiKey string) error {
	values := map[string]string{
		settings.KeySelectedModel: string(model),
	}
	if keyName := model.KeyName(); keyName != "" {
		values[keyName] = apiKey
	}

	if err := c.store.Set(ctx, values); err != nil {
		return fmt.Errorf("set settings: %w", err)
	}

	c.log.InfoContext(ctx, "Options saved",
		"model", model,
		"apiKeySet", apiKey != "")

	c.showStatus(SavedMessage)

	return nil
}

// Close stops a pending status clear.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.statusTimer != nil {
		c.statusTimer.Stop()
		c.statusTimer = nil
	}
}

func (c *Controller) refreshKeyField(model settings.Model, items map[string]string) {
	c.view.SetAPIKeyPlaceholder(placeholderPrefix + model.Title())

	if keyName := model.KeyName(); keyName != "" {
		c.view.SetAPIKeyValue(items[keyName])
	}
}

func (c *Controller) showStatus(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.view.SetStatus(text)

	if c.statusTimer != nil {
		c.statusTimer.Stop()
	}

	c.statusTimer = time.AfterFunc(c.statusDuration, func() {
		c.view.SetStatus("")
	})
}
