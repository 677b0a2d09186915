package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"condense/internal/page"
	"condense/internal/pagesummary"
	"condense/internal/ratelimiter"
	"condense/internal/settings"
	"condense/internal/summarizer"
)

const (
	testChatID = 100
	testUserID = 100
)

type sentMessage struct {
	id       int
	text     string
	keyboard [][]models.InlineKeyboardButton
}

type fakeAPI struct {
	mu       sync.Mutex
	nextID   int
	sent     []sentMessage
	edits    map[int][]string
	deleted  []int
	answered []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{nextID: 1000, edits: make(map[int][]string)}
}

func (f *fakeAPI) SendMessage(_ context.Context, params *tgbot.SendMessageParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	msg := sentMessage{id: f.nextID, text: params.Text}
	if markup, ok := params.ReplyMarkup.(*models.InlineKeyboardMarkup); ok {
		msg.keyboard = markup.InlineKeyboard
	}
	f.sent = append(f.sent, msg)

	return &models.Message{ID: f.nextID}, nil
}

func (f *fakeAPI) EditMessageText(_ context.Context, params *tgbot.EditMessageTextParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.edits[params.MessageID] = append(f.edits[params.MessageID], params.Text)

	return &models.Message{ID: params.MessageID}, nil
}

func (f *fakeAPI) DeleteMessage(_ context.Context, params *tgbot.DeleteMessageParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleted = append(f.deleted, params.MessageID)

	return true, nil
}

func (f *fakeAPI) AnswerCallbackQuery(_ context.Context, params *tgbot.AnswerCallbackQueryParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.answered = append(f.answered, params.CallbackQueryID)

	return true, nil
}

func (f *fakeAPI) SendChatAction(context.Context, *tgbot.SendChatActionParams) (bool, error) {
	return true, nil
}

func (f *fakeAPI) sentMessages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]sentMessage(nil), f.sent...)
}

func (f *fakeAPI) editsOf(messageID int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.edits[messageID]...)
}

func (f *fakeAPI) deletedMessages() []int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]int(nil), f.deleted...)
}

type stubFetcher struct {
	body string
	err  error
}

func (f stubFetcher) Fetch(_ context.Context, _ string) (*page.Page, error) {
	if f.err != nil {
		return nil, f.err
	}

	return page.Parse(strings.NewReader(f.body), nil)
}

type stubProvider struct {
	model settings.Model
}

func (p stubProvider) Model() settings.Model { return p.model }
func (p stubProvider) Name() string          { return "Cohere" }
func (p stubProvider) Label() string         { return "tl;dr: " }

func (p stubProvider) Summarize(context.Context, string, string) (string, error) {
	return "short and sweet.", nil
}

type stubProviders struct{}

func (stubProviders) ForModel(model settings.Model) (summarizer.Provider, bool) {
	if model != settings.ModelCohere {
		return nil, false
	}

	return stubProvider{model: model}, true
}

func newTestBot(t *testing.T, fetcher Fetcher, allowedUsers ...int64) (*Bot, *fakeAPI, *settings.MemoryScopes) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	api := newFakeAPI()
	scopes := settings.NewMemoryScopes()
	runner := pagesummary.New(nil, stubProviders{}, nil, log)

	b, err := newBot(api, scopes.Scope, fetcher, runner, allowedUsers, log)
	if err != nil {
		t.Fatalf("new bot: %v", err)
	}
	b.statusDuration = 10 * time.Millisecond
	b.rateLimiter = ratelimiter.New(log, ratelimiter.WithRates(0, 0))
	t.Cleanup(b.Stop)

	return b, api, scopes
}

func textUpdate(userID int64, text string) *models.Update {
	return &models.Update{
		Message: &models.Message{
			ID:   1,
			From: &models.User{ID: userID, Username: "reader"},
			Chat: models.Chat{ID: testChatID, Type: models.ChatTypePrivate},
			Text: text,
		},
	}
}

func callbackUpdate(data string, cardID int) *models.Update {
	return &models.Update{
		CallbackQuery: &models.CallbackQuery{
			ID:   "cb-1",
			From: models.User{ID: testUserID},
			Message: models.MaybeInaccessibleMessage{
				Message: &models.Message{
					ID:   cardID,
					Chat: models.Chat{ID: testChatID, Type: models.ChatTypePrivate},
				},
			},
			Data: data,
		},
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStartCommandSendsWelcome(t *testing.T) {
	b, api, _ := newTestBot(t, stubFetcher{})

	b.handleUpdate(context.Background(), nil, textUpdate(testUserID, "/start"))

	sent := api.sentMessages()
	if len(sent) != 1 || !strings.Contains(sent[0].text, "/options") {
		t.Fatalf("unexpected messages: %+v", sent)
	}
}

func TestDisallowedUserIsIgnored(t *testing.T) {
	b, api, _ := newTestBot(t, stubFetcher{}, 1)

	b.handleUpdate(context.Background(), nil, textUpdate(2, "/start"))

	if len(api.sentMessages()) != 0 {
		t.Fatalf("expected no messages for a disallowed user")
	}
}

func TestTextWithoutURLSendsHint(t *testing.T) {
	b, api, _ := newTestBot(t, stubFetcher{})

	b.handleUpdate(context.Background(), nil, textUpdate(testUserID, "hello there"))

	sent := api.sentMessages()
	if len(sent) != 1 || !strings.Contains(sent[0].text, "Send me a link") {
		t.Fatalf("unexpected messages: %+v", sent)
	}
}

func TestURLMessageSummarizesIntoOneMessage(t *testing.T) {
	body := "<html><body><article><p>" + strings.Repeat("A sentence about the page. ", 10) +
		"</p></article></body></html>"
	b, api, scopes := newTestBot(t, stubFetcher{body: body})

	if err := scopes.Scope("100").Set(context.Background(), map[string]string{
		settings.KeySelectedModel: "cohere",
		settings.KeyCohereAPIKey:  "co-key",
	}); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	b.handleUpdate(context.Background(), nil, textUpdate(testUserID, "please read https://example.com/post"))

	waitFor(t, "summary edit", func() bool {
		sent := api.sentMessages()
		return len(sent) == 1 && len(api.editsOf(sent[0].id)) == 1
	})

	sent := api.sentMessages()
	if sent[0].text != `Summarizing\.\.\. 🧠` {
		t.Fatalf("unexpected first text: %q", sent[0].text)
	}

	if got := api.editsOf(sent[0].id)[0]; got != `tl;dr: short and sweet\.` {
		t.Fatalf("unexpected summary text: %q", got)
	}
}

func TestURLMessageWithoutSettingsAsksForModel(t *testing.T) {
	body := "<html><body><p>" + strings.Repeat("Enough words to pass the length check. ", 5) + "</p></body></html>"
	b, api, _ := newTestBot(t, stubFetcher{body: body})

	b.handleUpdate(context.Background(), nil, textUpdate(testUserID, "https://example.com"))

	waitFor(t, "guard message", func() bool { return len(api.sentMessages()) == 1 })

	if got := api.sentMessages()[0].text; !strings.HasPrefix(got, "Please select a model") {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestURLMessageFetchFailure(t *testing.T) {
	b, api, _ := newTestBot(t, stubFetcher{err: errors.New("unexpected status 404")})

	b.handleUpdate(context.Background(), nil, textUpdate(testUserID, "https://example.com/missing"))

	sent := api.sentMessages()
	if len(sent) != 1 || !strings.Contains(sent[0].text, "Failed to load the page") {
		t.Fatalf("unexpected messages: %+v", sent)
	}
}

func TestOptionsFlow(t *testing.T) {
	b, api, scopes := newTestBot(t, stubFetcher{})
	store := scopes.Scope("100")
	ctx := context.Background()

	if err := store.Set(ctx, map[string]string{settings.KeyOpenAIAPIKey: "sk-existing-openai"}); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	b.handleUpdate(ctx, nil, textUpdate(testUserID, "/options"))

	sent := api.sentMessages()
	if len(sent) != 1 {
		t.Fatalf("expected options card, got %+v", sent)
	}
	card := sent[0]

	if !strings.Contains(card.text, "Model: Cohere") ||
		!strings.Contains(card.text, "_Enter API Key for Cohere_") {
		t.Fatalf("unexpected card: %q", card.text)
	}

	if len(card.keyboard) != 1 || len(card.keyboard[0]) != 2 ||
		card.keyboard[0][0].Text != "✅ Cohere" ||
		card.keyboard[0][1].CallbackData != "options_model_openai" {
		t.Fatalf("unexpected keyboard: %+v", card.keyboard)
	}

	b.handleUpdate(ctx, nil, callbackUpdate("options_model_openai", card.id))

	edits := api.editsOf(card.id)
	if len(edits) != 1 || !strings.Contains(edits[0], "Model: Openai") ||
		!strings.Contains(edits[0], "••••enai") {
		t.Fatalf("unexpected card after model change: %q", edits)
	}

	items, err := store.Get(ctx, settings.KeySelectedModel)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("model change must not be saved before submit, got %v", items)
	}

	b.handleUpdate(ctx, nil, textUpdate(testUserID, "/apikey sk-new-openai-key"))

	s, err := settings.Load(ctx, store)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.SelectedModel != settings.ModelOpenAI || s.OpenAIAPIKey != "sk-new-openai-key" || s.CohereAPIKey != "" {
		t.Fatalf("unexpected settings: %+v", s)
	}

	if _, ok := mustGet(t, store, settings.KeyCohereAPIKey); ok {
		t.Fatalf("cohere key must stay absent")
	}

	var status *sentMessage
	for _, msg := range api.sentMessages() {
		if msg.text == `Options saved\.` {
			status = &msg
		}
	}
	if status == nil {
		t.Fatalf("expected status message, got %+v", api.sentMessages())
	}

	waitFor(t, "status removal", func() bool {
		for _, id := range api.deletedMessages() {
			if id == status.id {
				return true
			}
		}
		return false
	})

	keyDeleted := false
	for _, id := range api.deletedMessages() {
		if id == 1 {
			keyDeleted = true
		}
	}
	if !keyDeleted {
		t.Fatalf("expected the message carrying the key to be deleted, got %v", api.deletedMessages())
	}
}

func mustGet(t *testing.T, store settings.Store, key string) (string, bool) {
	t.Helper()

	items, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	value, ok := items[key]

	return value, ok
}

func TestMessageDisplaySkipsUnchangedText(t *testing.T) {
	b, api, _ := newTestBot(t, stubFetcher{})
	display := b.newMessageDisplay(testChatID)
	ctx := context.Background()

	for _, text := range []string{"one", "one", "two"} {
		if err := display.Show(ctx, text); err != nil {
			t.Fatalf("show: %v", err)
		}
	}

	sent := api.sentMessages()
	if len(sent) != 1 || sent[0].text != "one" {
		t.Fatalf("unexpected sent messages: %+v", sent)
	}

	if edits := api.editsOf(sent[0].id); len(edits) != 1 || edits[0] != "two" {
		t.Fatalf("unexpected edits: %q", edits)
	}
}

func TestMessageDisplayFitsTelegramLimit(t *testing.T) {
	b, api, _ := newTestBot(t, stubFetcher{})
	display := b.newMessageDisplay(testChatID)
	ctx := context.Background()

	if err := display.Show(ctx, "Summarizing... 🧠"); err != nil {
		t.Fatalf("show: %v", err)
	}

	long := "At a Glance: " + strings.Repeat("A long sentence. ", 400)
	if err := display.Show(ctx, long); err != nil {
		t.Fatalf("show: %v", err)
	}

	sent := api.sentMessages()
	edits := api.editsOf(sent[0].id)
	if len(edits) != 1 {
		t.Fatalf("expected the summary to replace the status, got %d edits", len(edits))
	}

	if len(edits[0]) > telegramMessageMaxLength {
		t.Fatalf("summary is %d bytes, over the Telegram limit", len(edits[0]))
	}

	if !strings.HasPrefix(edits[0], "At a Glance: A long sentence\\. ") || !strings.HasSuffix(edits[0], "…") {
		t.Fatalf("unexpected summary text: %q", edits[0][:64])
	}
}
