package handlers

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threec/aurion/internal/config"
	"github.com/threec/aurion/internal/database"
	"github.com/threec/aurion/internal/logger"
)

type fakeMessenger struct {
	mu       sync.Mutex
	sent     []*bot.SendMessageParams
	answered []string
	edited   []*bot.EditMessageTextParams
}

func (f *fakeMessenger) SendMessage(_ context.Context, p *bot.SendMessageParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, p)
	return &models.Message{ID: len(f.sent)}, nil
}

func (f *fakeMessenger) AnswerCallbackQuery(_ context.Context, p *bot.AnswerCallbackQueryParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered = append(f.answered, p.CallbackQueryID)
	return true, nil
}

func (f *fakeMessenger) EditMessageText(_ context.Context, p *bot.EditMessageTextParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edited = append(f.edited, p)
	return &models.Message{}, nil
}

func (f *fakeMessenger) texts() []string {
	out := make([]string, 0, len(f.sent))
	for _, p := range f.sent {
		out = append(out, p.Text)
	}
	return out
}

// fakeStore counts every call so tests can assert that nothing was touched.
type fakeStore struct {
	database.Store

	mu       sync.Mutex
	calls    int
	greeted  map[int64]bool
	inserts  int
	faqs     []database.FAQEntry
	facts    []database.Fact
	keywords []database.KeywordResponse
	res      []database.Resource
	err      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{greeted: map[int64]bool{}}
}

func (s *fakeStore) touch() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *fakeStore) MarkGreeted(_ context.Context, userID int64) (bool, error) {
	s.touch()
	if s.err != nil {
		return false, s.err
	}
	if s.greeted[userID] {
		return false, nil
	}
	s.greeted[userID] = true
	s.inserts++
	return true, nil
}

func (s *fakeStore) MatchFAQ(_ context.Context, q string) (*database.FAQEntry, error) {
	s.touch()
	if s.err != nil {
		return nil, s.err
	}
	for _, e := range s.faqs {
		if database.NormalizeQuestion(e.Question) == database.NormalizeQuestion(q) {
			return &e, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *fakeStore) ListFAQ(context.Context) ([]database.FAQEntry, error) {
	s.touch()
	return s.faqs, s.err
}

func (s *fakeStore) GetFAQ(_ context.Context, id int64) (*database.FAQEntry, error) {
	s.touch()
	for _, e := range s.faqs {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *fakeStore) RandomFact(context.Context) (*database.Fact, error) {
	s.touch()
	if len(s.facts) == 0 {
		return nil, database.ErrNotFound
	}
	return &s.facts[0], nil
}

func (s *fakeStore) ListResources(context.Context) ([]database.Resource, error) {
	s.touch()
	return s.res, s.err
}

func (s *fakeStore) ListKeywords(context.Context) ([]database.KeywordResponse, error) {
	s.touch()
	return s.keywords, nil
}

type fakeLLM struct {
	calls  int
	system string
	prompt string
	text   string
	err    error
}

func (f *fakeLLM) Complete(_ context.Context, system, prompt string) (string, error) {
	f.calls++
	f.system, f.prompt = system, prompt
	return f.text, f.err
}

func testConfig() *config.Config {
	return &config.Config{
		Telegram: config.TelegramConfig{AdminUserIDs: []int64{1}},
		LLM:      config.LLMConfig{SystemPrompt: config.DefaultLLMPrompt},
		Community: config.CommunityConfig{
			Hashtags:  []string{"#Topics", "#Blog"},
			Topics:    []config.Topic{{Name: "Aurion Gems", URL: "https://t.me/c/2377255109/138"}},
			RulesURL:  config.DefaultRulesURL,
			WebAppURL: config.DefaultWebAppURL,
			Signoff:   config.DefaultSignoff,
		},
		Messages: config.DefaultMessages,
	}
}

func testDeps(store *fakeStore, client *fakeLLM) HandlerDeps {
	deps := HandlerDeps{Logger: logger.Discard(), Config: testConfig(), Store: store}
	if client != nil {
		deps.LLM = client
	}
	return deps
}

func textUpdate(userID int64, text string) *models.Update {
	return &models.Update{
		ID: 1,
		Message: &models.Message{
			ID:   10,
			Chat: models.Chat{ID: -1002377255109},
			From: &models.User{ID: userID, FirstName: "Ana"},
			Text: text,
		},
	}
}

func TestStartWelcomesOnce(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	m := &fakeMessenger{}
	h := startHandler{testDeps(store, nil)}

	h.handle(context.Background(), m, textUpdate(42, "/start"))
	h.handle(context.Background(), m, textUpdate(42, "/start"))

	require.Len(t, m.sent, 2)
	assert.Contains(t, m.sent[0].Text, "Welcome to 3C Thread To Success")
	assert.Contains(t, m.sent[0].Text, config.DefaultWebAppURL)
	assert.NotContains(t, m.sent[0].Text, "{links}")
	assert.Contains(t, config.DefaultMessages.Processing, m.sent[1].Text)
	assert.Equal(t, 1, store.inserts)
}

func TestStartStoreError(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.err = errors.New("db down")
	m := &fakeMessenger{}

	startHandler{testDeps(store, nil)}.handle(context.Background(), m, textUpdate(42, "/start"))
	assert.Equal(t, []string{config.DefaultMessages.GeneralError}, m.texts())
}

func TestAskWithoutQuestionTouchesNothing(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	client := &fakeLLM{text: "unused"}
	m := &fakeMessenger{}

	askHandler{testDeps(store, client)}.handle(context.Background(), m, textUpdate(42, "/ask   "))

	assert.Equal(t, []string{"Champ, you gotta ask a question after /ask!"}, m.texts())
	assert.Zero(t, store.calls)
	assert.Zero(t, client.calls)
}

func TestAskAnswerSources(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		question string
		llmText  string
		llmErr   error
		noLLM    bool
		want     string
		llmCalls int
	}{
		{name: "faq match", question: "what is 3c", want: "Think it. Do it. Own it."},
		{name: "keyword", question: "I need to motivate myself", want: "You've got this, Champ!"},
		{
			name:     "llm with signoff",
			question: "How do I set goals?",
			llmText:  "Start small. Stay shining, Champ! 💎",
			want:     "Start small.\n\nStay shining, Champ! 💎",
			llmCalls: 1,
		},
		{
			name:     "llm error",
			question: "How do I set goals?",
			llmErr:   errors.New("rate limited"),
			want:     "Oops! Something went wrong while I was thinking: rate limited",
			llmCalls: 1,
		},
		{name: "llm disabled", question: "How do I set goals?", noLLM: true, want: config.DefaultMessages.AskUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := newFakeStore()
			store.faqs = []database.FAQEntry{{ID: 1, Question: "What is 3C?", Answer: "Think it. Do it. Own it."}}
			store.keywords = []database.KeywordResponse{{Keyword: "Motivate", Response: "You've got this, Champ!"}}

			client := &fakeLLM{text: tt.llmText, err: tt.llmErr}
			deps := testDeps(store, client)
			if tt.noLLM {
				deps.LLM = nil
			}
			m := &fakeMessenger{}

			askHandler{deps}.handle(context.Background(), m, textUpdate(42, "/ask "+tt.question))

			require.Len(t, m.sent, 2)
			assert.Contains(t, config.DefaultMessages.Processing, m.sent[0].Text)
			assert.Equal(t, tt.want, m.sent[1].Text)
			assert.Equal(t, tt.llmCalls, client.calls)
			if tt.llmCalls > 0 {
				assert.Equal(t, config.DefaultLLMPrompt, client.system)
				assert.Equal(t, tt.question, client.prompt)
			}
		})
	}
}

func TestFAQKeyboardAndCallback(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.faqs = []database.FAQEntry{
		{ID: 1, Question: "What is 3C?", Answer: "Think it. Do it. Own it."},
		{ID: 2, Question: "How do I use Aurion?", Answer: "Type /ask."},
	}
	deps := testDeps(store, nil)
	m := &fakeMessenger{}

	faqHandler{deps}.handle(context.Background(), m, textUpdate(42, "/faq"))
	require.Len(t, m.sent, 1)
	assert.Equal(t, "Select a FAQ:", m.sent[0].Text)
	kb, ok := m.sent[0].ReplyMarkup.(*models.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, "faq_2", kb.InlineKeyboard[1][0].CallbackData)

	cb := &models.Update{CallbackQuery: &models.CallbackQuery{
		ID:   "cb-1",
		Data: "faq_2",
		Message: models.MaybeInaccessibleMessage{
			Message: &models.Message{ID: 55, Chat: models.Chat{ID: -1002377255109}},
		},
	}}
	faqCallbackHandler{deps}.handle(context.Background(), m, cb)

	assert.Equal(t, []string{"cb-1"}, m.answered)
	require.Len(t, m.edited, 1)
	assert.Equal(t, "Type /ask.", m.edited[0].Text)
	assert.Equal(t, 55, m.edited[0].MessageID)

	cb.CallbackQuery.Data = "faq_99"
	faqCallbackHandler{deps}.handle(context.Background(), m, cb)
	require.Len(t, m.edited, 2)
	assert.Equal(t, "No answer found.", m.edited[1].Text)
}

func TestFAQEmpty(t *testing.T) {
	t.Parallel()
	m := &fakeMessenger{}
	faqHandler{testDeps(newFakeStore(), nil)}.handle(context.Background(), m, textUpdate(42, "/faq"))
	assert.Equal(t, []string{"No FAQ available yet."}, m.texts())
}

func TestInfoCommands(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.facts = []database.Fact{{ID: 1, Text: "Diamonds form under pressure."}}
	store.res = []database.Resource{{Title: "3C Links", Link: "https://anica-blip.github.io/3c-links/"}}
	deps := testDeps(store, nil)

	tests := []struct {
		name string
		h    func(context.Context, Messenger, *models.Update)
		want string
	}{
		{name: "fact", h: infoHandler{deps, "fact", renderFact}.handle, want: "💎 Aurion Fact:\nDiamonds form under pressure."},
		{name: "resources", h: infoHandler{deps, "resources", renderResources}.handle, want: "📚 Resources:\n• 3C Links: https://anica-blip.github.io/3c-links/"},
		{name: "help", h: helpHandler{deps}.handle, want: config.DefaultMessages.Help},
		{name: "rules", h: infoHandler{deps, "rules", renderRules}.handle, want: "Community Rules: https://t.me/c/2377255109/6/400"},
		{name: "id", h: infoHandler{deps, "id", renderID}.handle, want: "Check out our digital 3C /id card: https://anica-blip.github.io/3c-links/"},
		{name: "hashtags", h: infoHandler{deps, "hashtags", renderHashtags}.handle, want: "Here are the main 3C hashtags:\n#Topics\n#Blog\n\nFor more information, just ask Aurion!"},
	}

	for _, tt := range tests {
		m := &fakeMessenger{}
		tt.h(context.Background(), m, textUpdate(42, "/"+tt.name))
		assert.Equal(t, []string{tt.want}, m.texts(), tt.name)
	}
}

func TestTopicsAndRegistry(t *testing.T) {
	t.Parallel()
	deps := testDeps(newFakeStore(), nil)

	text, markup, err := renderTopics(context.Background(), deps)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultMessages.TopicsHeader, text)
	kb, ok := markup.(*models.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, "https://t.me/c/2377255109/138", kb.InlineKeyboard[0][0].URL)

	handlers := RegisterAllCommands(deps)
	for _, name := range []string{"/start", "/help", "/ask", "/faq", "/fact", "/resources", "/rules", "/topics", "/hashtags", "/id", "/manual_post", "faq_callback"} {
		assert.Contains(t, handlers, name)
	}
	assert.Len(t, handlers["/manual_post"].Middleware, 1)
	assert.Equal(t, bot.MatchTypePrefix, handlers["faq_callback"].MatchType)
}

func TestManualPostAndAdminGate(t *testing.T) {
	t.Parallel()
	deps := testDeps(newFakeStore(), nil)

	m := &fakeMessenger{}
	assert.False(t, allowAdmin(context.Background(), deps, m, textUpdate(42, "/manual_post hi")))
	assert.Equal(t, []string{"Only the owner can use this command."}, m.texts())

	m = &fakeMessenger{}
	assert.True(t, allowAdmin(context.Background(), deps, m, textUpdate(1, "/manual_post hi")))
	assert.Empty(t, m.sent)

	manualPostHandler{deps}.handle(context.Background(), m, textUpdate(1, "/manual_post New challenge is live!"))
	manualPostHandler{deps}.handle(context.Background(), m, textUpdate(1, "/manual_post"))
	assert.Equal(t, []string{"📢 New challenge is live!", "Usage: /manual_post <message>"}, m.texts())
}

func TestDefaultHandler(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.keywords = []database.KeywordResponse{{Keyword: "motivate", Response: "You've got this, Champ!"}}
	h := defaultHandler{testDeps(store, nil)}

	m := &fakeMessenger{}
	join := textUpdate(42, "")
	join.Message.NewChatMembers = []models.User{{ID: 5, FirstName: "Rui"}, {ID: 6, IsBot: true, Username: "spam_bot"}}
	h.handle(context.Background(), m, join)
	assert.Equal(t, []string{"Welcome Rui! I'm Aurion, your 3C assistant. Type /ask followed by your question!"}, m.texts())

	m = &fakeMessenger{}
	leave := textUpdate(42, "")
	leave.Message.LeftChatMember = &models.User{ID: 5, FirstName: "Rui"}
	h.handle(context.Background(), m, leave)
	assert.Equal(t, []string{config.DefaultMessages.Farewell}, m.texts())

	m = &fakeMessenger{}
	h.handle(context.Background(), m, textUpdate(42, "How do I MOTIVATE the team?"))
	h.handle(context.Background(), m, textUpdate(42, "nothing to see"))
	h.handle(context.Background(), m, textUpdate(42, "/motivate"))
	assert.Equal(t, []string{"You've got this, Champ!"}, m.texts())
}

func TestCommandArgs(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"/ask":                    "",
		"/ask   ":                 "",
		"/ask what is 3C?":        "what is 3C?",
		"/ask@aurion_bot  hello ": "hello",
		"/ask\nmulti\nline":       "multi\nline",
	}
	for in, want := range tests {
		assert.Equal(t, want, commandArgs(in), in)
	}
}

func TestReplyKeepsForumTopic(t *testing.T) {
	t.Parallel()
	m := &fakeMessenger{}
	u := textUpdate(42, "/rules")
	u.Message.IsTopicMessage = true
	u.Message.MessageThreadID = 6

	reply(context.Background(), m, logger.Discard(), u.Message, "hi", nil)
	require.Len(t, m.sent, 1)
	assert.Equal(t, 6, m.sent[0].MessageThreadID)
	assert.Equal(t, int64(-1002377255109), m.sent[0].ChatID)
}
