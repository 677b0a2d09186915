package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot/models"

	"condense/internal/markdown"
)

const (
	welcomeText = "Send me a link and I will summarize the page. " +
		"Use /options to pick a model and set its API key."
	noURLText       = "✖️ Send me a link to summarize, or /options to configure a model."
	fetchFailedText = "✖️ Failed to load the page."
	apiKeyCommand   = "/apikey"
	optionsCommand  = "/options"
	startCommand    = "/start"
	helpCommand     = "/help"
)

func (b *Bot) handleMessage(ctx context.Context, message *models.Message) error {
	text := strings.TrimSpace(message.Text)
	chatID := message.Chat.ID
	userID := message.From.ID

	switch {
	case strings.HasPrefix(text, startCommand), strings.HasPrefix(text, helpCommand):
		_, err := b.send(ctx, chatID, markdown.EscapeV2(welcomeText), nil)
		return err
	case strings.HasPrefix(text, optionsCommand):
		return b.handleOptionsCommand(ctx, chatID, userID)
	case strings.HasPrefix(text, apiKeyCommand):
		value, _ := strings.CutPrefix(text, apiKeyCommand)
		return b.handleAPIKeyCommand(ctx, chatID, userID, strings.TrimSpace(value), message.ID)
	default:
		return b.handleRandomText(ctx, text, chatID, userID)
	}
}

func (b *Bot) handleOptionsCommand(ctx context.Context, chatID int64, userID int64) error {
	form, err := b.form(ctx, chatID, userID, true)
	if err != nil {
		return fmt.Errorf("load options: %w", err)
	}

	return form.view.render(ctx)
}

// handleAPIKeyCommand submits the form. Without a value the key currently
// shown on the card is saved again.
func (b *Bot) handleAPIKeyCommand(
	ctx context.Context,
	chatID int64,
	userID int64,
	value string,
	messageID int,
) error {
	form, err := b.form(ctx, chatID, userID, false)
	if err != nil {
		return fmt.Errorf("load options: %w", err)
	}

	model, shown := form.view.selected()
	if value == "" {
		value = shown
	}

	var errs []error

	if err := form.controller.Submit(ctx, model, value); err != nil {
		errs = append(errs, fmt.Errorf("submit options: %w", err))
	}

	// The key should not linger in the chat history.
	if value != shown {
		if err := b.delete(ctx, chatID, messageID); err != nil {
			b.log.WarnContext(ctx, "Failed to delete API key message",
				"error", err,
				"chatID", chatID)
		}
	}

	if len(errs) == 0 {
		form.view.SetAPIKeyValue(value)
		if err := form.view.render(ctx); err != nil {
			errs = append(errs, fmt.Errorf("render options: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (b *Bot) handleRandomText(
	ctx context.Context,
	text string,
	chatID int64,
	userID int64,
) error {
	rawURL := b.urlRe.FindString(text)
	if rawURL == "" {
		_, err := b.send(ctx, chatID, markdown.EscapeV2(noURLText), nil)
		return err
	}

	return b.withSpinner(ctx, chatID, func() error {
		p, err := b.fetcher.Fetch(ctx, rawURL)
		if err != nil {
			var errs []error
			errs = append(errs, fmt.Errorf("fetch page: %w", err))

			if _, sendErr := b.send(ctx, chatID, markdown.EscapeV2(fetchFailedText), nil); sendErr != nil {
				errs = append(errs, fmt.Errorf("send message: %w", sendErr))
			}

			return errors.Join(errs...)
		}

		// The flow outlives this update and is never cancelled.
		b.runner.Start(context.WithoutCancel(ctx), b.store(userID), p, b.newMessageDisplay(chatID))

		return nil
	})
}
