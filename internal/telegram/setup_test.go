package telegram

import (
	"context"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threec/aurion/internal/bot/handlers"
	"github.com/threec/aurion/internal/logger"
)

type registration struct {
	handlerType bot.HandlerType
	pattern     string
	matchType   bot.MatchType
	handler     bot.HandlerFunc
}

type fakeRegistrar struct {
	regs []registration
}

func (f *fakeRegistrar) RegisterHandler(ht bot.HandlerType, pattern string, mt bot.MatchType, h bot.HandlerFunc, _ ...bot.Middleware) string {
	f.regs = append(f.regs, registration{ht, pattern, mt, h})
	return pattern
}

func TestApplyMiddlewareOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) bot.Middleware {
		return func(next bot.HandlerFunc) bot.HandlerFunc {
			return func(ctx context.Context, b *bot.Bot, u *models.Update) {
				order = append(order, name)
				next(ctx, b, u)
			}
		}
	}
	h := applyMiddleware(func(context.Context, *bot.Bot, *models.Update) {
		order = append(order, "handler")
	}, []bot.Middleware{mw("outer"), mw("inner")})

	h(context.Background(), nil, &models.Update{})
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestRegisterHandlers(t *testing.T) {
	t.Parallel()

	noop := func(context.Context, *bot.Bot, *models.Update) {}
	r := &fakeRegistrar{}
	err := RegisterHandlers(r, logger.Discard(), map[string]handlers.RegisteredHandler{
		"/start": {HandlerType: bot.HandlerTypeMessageText, Pattern: "start", Handler: noop, MatchType: bot.MatchTypeCommandStartOnly},
		"/nil":   {HandlerType: bot.HandlerTypeMessageText, Pattern: "nil"},
	})
	require.NoError(t, err)
	require.Len(t, r.regs, 1)
	assert.Equal(t, "start", r.regs[0].pattern)
	assert.Equal(t, bot.MatchTypeCommandStartOnly, r.regs[0].matchType)

	assert.Error(t, RegisterHandlers(nil, logger.Discard(), nil))
}

func TestNewTelegramBotRequiresToken(t *testing.T) {
	t.Parallel()

	_, err := NewTelegramBot("", logger.Discard())
	assert.Error(t, err)
	assert.Equal(t, "***", maskToken("short"))
	assert.Equal(t, "12345678...", maskToken("123456789:secret"))
}
