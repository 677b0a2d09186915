package bot

import (
	"context"
	"strings"
	"sync"

	"github.com/go-telegram/bot/models"

	"condense/internal/markdown"
	"condense/internal/options"
	"condense/internal/settings"
)

const optionsModelCallbackPrefix = "options_model_"

// optionsForm is one user's options card together with its controller.
type optionsForm struct {
	controller *options.Controller
	view       *chatOptionsView
}

// chatOptionsView renders the options form as an editable chat message.
// The status line is a separate message removed when the status clears.
type chatOptionsView struct {
	bot *Bot
	// ctx outlives single updates because the status clear fires later.
	ctx    context.Context
	chatID int64

	mu          sync.Mutex
	model       settings.Model
	value       string
	placeholder string
	cardID      int
	statusID    int
}

func (v *chatOptionsView) SetModel(model settings.Model) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.model = model
}

func (v *chatOptionsView) SetAPIKeyValue(value string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = value
}

func (v *chatOptionsView) SetAPIKeyPlaceholder(placeholder string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.placeholder = placeholder
}

func (v *chatOptionsView) SetStatus(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.statusID != 0 {
		if err := v.bot.delete(v.ctx, v.chatID, v.statusID); err != nil {
			v.bot.log.WarnContext(v.ctx, "Failed to delete status message",
				"error", err,
				"chatID", v.chatID,
				"messageID", v.statusID)
		}
		v.statusID = 0
	}

	if text == "" {
		return
	}

	messageID, err := v.bot.send(v.ctx, v.chatID, markdown.EscapeV2(text), nil)
	if err != nil {
		v.bot.log.WarnContext(v.ctx, "Failed to send status message",
			"error", err,
			"chatID", v.chatID)

		return
	}

	v.statusID = messageID
}

func (v *chatOptionsView) selected() (settings.Model, string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.model, v.value
}

// render sends the card the first time and edits it afterwards.
func (v *chatOptionsView) render(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	text := optionsCardText(v.model, v.value, v.placeholder)
	keyboard := getModelKeyboard(v.model)

	if v.cardID == 0 {
		messageID, err := v.bot.send(ctx, v.chatID, text, keyboard)
		if err != nil {
			return err
		}

		v.cardID = messageID

		return nil
	}

	return v.bot.edit(ctx, v.chatID, v.cardID, text, keyboard)
}

func optionsCardText(model settings.Model, value string, placeholder string) string {
	var b strings.Builder

	b.WriteString(markdown.Bold("Options"))
	b.WriteString("\n\n")
	b.WriteString(markdown.EscapeV2("Model: "))
	b.WriteString(markdown.EscapeV2(model.Title()))
	b.WriteString("\n")
	b.WriteString(markdown.EscapeV2("API key: "))

	if value == "" {
		b.WriteString(markdown.Italic(placeholder))
	} else {
		b.WriteString(markdown.Code(options.MaskAPIKey(value)))
	}

	b.WriteString("\n\n")
	b.WriteString(markdown.EscapeV2("Pick a model below, then send /apikey <key> to save it. " +
		"Send /apikey alone to save the model with the key shown."))

	return b.String()
}

func getModelKeyboard(selected settings.Model) [][]models.InlineKeyboardButton {
	row := make([]models.InlineKeyboardButton, 0, len(settings.Models))

	for _, model := range settings.Models {
		text := model.Title()
		if model == selected {
			text = "✅ " + text
		}

		row = append(row, models.InlineKeyboardButton{
			Text:         text,
			CallbackData: optionsModelCallbackPrefix + string(model),
		})
	}

	return [][]models.InlineKeyboardButton{row}
}

// form returns the user's options form, loading a fresh one from the store
// when none is open or when reset is set.
func (b *Bot) form(
	ctx context.Context,
	chatID int64,
	userID int64,
	reset bool,
) (*optionsForm, error) {
	b.formsMu.Lock()
	defer b.formsMu.Unlock()

	if form, ok := b.forms[userID]; ok {
		if !reset && form.view.chatID == chatID {
			return form, nil
		}

		form.controller.Close()
		delete(b.forms, userID)
	}

	view := &chatOptionsView{
		bot:    b,
		ctx:    context.WithoutCancel(ctx),
		chatID: chatID,
	}
	controller := options.New(b.store(userID), view, b.log,
		options.WithStatusDuration(b.statusDuration))

	if _, err := controller.Load(ctx); err != nil {
		return nil, err
	}

	form := &optionsForm{controller: controller, view: view}
	b.forms[userID] = form

	return form, nil
}
