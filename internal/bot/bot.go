package bot

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"mvdan.cc/xurls/v2"

	"condense/internal/options"
	"condense/internal/page"
	"condense/internal/pagesummary"
	"condense/internal/ratelimiter"
	"condense/internal/settings"
)

const updateProcessingTimeout = 60 * time.Second

// api is the part of the Telegram client the bot talks to.
type api interface {
	SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *tgbot.EditMessageTextParams) (*models.Message, error)
	DeleteMessage(ctx context.Context, params *tgbot.DeleteMessageParams) (bool, error)
	AnswerCallbackQuery(ctx context.Context, params *tgbot.AnswerCallbackQueryParams) (bool, error)
	SendChatAction(ctx context.Context, params *tgbot.SendChatActionParams) (bool, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*page.Page, error)
}

type Bot struct {
	client         *tgbot.Bot
	api            api
	rateLimiter    *ratelimiter.RateLimiter
	scopes         settings.Scopes
	fetcher        Fetcher
	runner         *pagesummary.Runner
	allowedUsers   []int64
	urlRe          *regexp.Regexp
	statusDuration time.Duration
	log            *slog.Logger

	formsMu sync.Mutex
	forms   map[int64]*optionsForm
}

func New(
	token string,
	scopes settings.Scopes,
	fetcher Fetcher,
	runner *pagesummary.Runner,
	allowedUsers []int64,
	log *slog.Logger,
) (*Bot, error) {
	b, err := newBot(nil, scopes, fetcher, runner, allowedUsers, log)
	if err != nil {
		return nil, err
	}

	client, err := tgbot.New(strings.TrimSpace(token),
		tgbot.WithDefaultHandler(b.handleUpdate))
	if err != nil {
		return nil, fmt.Errorf("create bot client: %w", err)
	}

	b.client = client
	b.api = client

	return b, nil
}

func newBot(
	api api,
	scopes settings.Scopes,
	fetcher Fetcher,
	runner *pagesummary.Runner,
	allowedUsers []int64,
	log *slog.Logger,
) (*Bot, error) {
	urlRe, err := xurls.StrictMatchingScheme(`https?://`)
	if err != nil {
		return nil, fmt.Errorf("compile url regexp: %w", err)
	}

	return &Bot{
		api:            api,
		rateLimiter:    ratelimiter.New(log),
		scopes:         scopes,
		fetcher:        fetcher,
		runner:         runner,
		allowedUsers:   allowedUsers,
		urlRe:          urlRe,
		statusDuration: options.DefaultStatusDuration,
		log:            log,
		forms:          make(map[int64]*optionsForm),
	}, nil
}

// Start polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	b.log.InfoContext(ctx, "Bot is starting")

	b.client.Start(ctx)

	b.log.InfoContext(ctx, "Bot context is done",
		"error", ctx.Err())
}

// Stop releases per-user option forms.
func (b *Bot) Stop() {
	b.formsMu.Lock()
	defer b.formsMu.Unlock()

	for userID, form := range b.forms {
		form.controller.Close()
		delete(b.forms, userID)
	}
}

func (b *Bot) handleUpdate(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	updateCtx, cancel := context.WithTimeout(ctx, updateProcessingTimeout)
	defer cancel()

	switch {
	case update.Message != nil:
		message := update.Message
		if message.From == nil {
			return
		}

		userID := message.From.ID
		if !b.userAllowed(userID) {
			b.log.DebugContext(updateCtx, "User is not allowed",
				"userID", userID,
				"chatID", message.Chat.ID,
				"username", message.From.Username,
				"chatType", message.Chat.Type)

			return
		}

		if err := b.handleMessage(updateCtx, message); err != nil {
			b.log.ErrorContext(updateCtx, "Failed to handle message",
				"error", err,
				"chatID", message.Chat.ID,
				"userID", userID,
				"chatType", message.Chat.Type,
				"messageID", message.ID)
		}

	case update.CallbackQuery != nil:
		callback := update.CallbackQuery

		if !b.userAllowed(callback.From.ID) {
			b.log.DebugContext(updateCtx, "User is not allowed",
				"userID", callback.From.ID,
				"username", callback.From.Username,
				"data", callback.Data)

			return
		}

		if err := b.handleCallbackQuery(updateCtx, callback); err != nil {
			chatID, messageID := callbackMessage(callback)

			b.log.ErrorContext(updateCtx, "Failed to handle callback query",
				"error", err,
				"chatID", chatID,
				"userID", callback.From.ID,
				"data", callback.Data,
				"messageID", messageID)
		}
	}
}

func (b *Bot) userAllowed(userID int64) bool {
	return len(b.allowedUsers) == 0 || slices.Contains(b.allowedUsers, userID)
}

// store returns the settings of one Telegram user.
func (b *Bot) store(userID int64) settings.Store {
	return b.scopes(strconv.FormatInt(userID, 10))
}

func callbackMessage(callback *models.CallbackQuery) (int64, int) {
	if callback == nil || callback.Message.Message == nil {
		return 0, 0
	}

	return callback.Message.Message.Chat.ID, callback.Message.Message.ID
}
