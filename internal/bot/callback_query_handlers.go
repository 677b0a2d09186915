package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"condense/internal/settings"
)

func (b *Bot) handleCallbackQuery(ctx context.Context, callback *models.CallbackQuery) error {
	data := strings.TrimSpace(callback.Data)

	if modelStr, ok := strings.CutPrefix(data, optionsModelCallbackPrefix); ok {
		return b.withEmptyCallbackAnswer(ctx, callback, func() error {
			return b.handleOptionsModelQuery(ctx, settings.Model(modelStr), callback)
		})
	}

	return b.withEmptyCallbackAnswer(ctx, callback, func() error {
		return nil
	})
}

// handleOptionsModelQuery switches the card to model without saving it.
func (b *Bot) handleOptionsModelQuery(
	ctx context.Context,
	model settings.Model,
	callback *models.CallbackQuery,
) error {
	chatID, messageID := callbackMessage(callback)
	if chatID == 0 {
		return errors.New("callback message is inaccessible")
	}

	form, err := b.form(ctx, chatID, callback.From.ID, false)
	if err != nil {
		return fmt.Errorf("load options: %w", err)
	}

	if err := form.controller.ChangeModel(ctx, model); err != nil {
		return fmt.Errorf("change model: %w", err)
	}

	form.view.mu.Lock()
	form.view.cardID = messageID
	form.view.mu.Unlock()

	return form.view.render(ctx)
}

func (b *Bot) withEmptyCallbackAnswer(
	ctx context.Context,
	callback *models.CallbackQuery,
	function func() error,
) error {
	var errs []error

	if _, err := b.api.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
		CallbackQueryID: callback.ID,
	}); err != nil {
		errs = append(errs, fmt.Errorf("answer callback query: %w", err))
	}

	if err := function(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
