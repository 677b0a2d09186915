package bot

import (
	"context"
	"sync"

	"condense/internal/markdown"
)

const telegramMessageMaxLength = 4096

// messageDisplay renders the summary banner as a single chat message: the
// first text is sent, later texts replace it in place.
type messageDisplay struct {
	bot    *Bot
	chatID int64

	mu        sync.Mutex
	messageID int
	lastText  string
}

func (b *Bot) newMessageDisplay(chatID int64) *messageDisplay {
	return &messageDisplay{bot: b, chatID: chatID}
}

func (d *messageDisplay) Show(ctx context.Context, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	escaped := markdown.EscapeV2Limit(text, telegramMessageMaxLength)

	if d.messageID == 0 {
		messageID, err := d.bot.send(ctx, d.chatID, escaped, nil)
		if err != nil {
			return err
		}

		d.messageID = messageID
		d.lastText = text

		return nil
	}

	// Telegram rejects edits that leave the text unchanged.
	if text == d.lastText {
		return nil
	}

	if err := d.bot.edit(ctx, d.chatID, d.messageID, escaped, nil); err != nil {
		return err
	}

	d.lastText = text

	return nil
}
