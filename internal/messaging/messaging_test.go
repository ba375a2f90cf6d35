package messaging

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/order-notifier/internal/domain"
)

type recordingSender struct {
	calls  [][]Message
	failAt int
}

func (r *recordingSender) Send(_ context.Context, _ string, msgs []Message) (Receipt, error) {
	r.calls = append(r.calls, msgs)
	if r.failAt > 0 && len(r.calls) == r.failAt {
		return Receipt{}, errors.New("push failed")
	}
	return Receipt{Accepted: len(msgs)}, nil
}

func texts(n int) []Message {
	out := make([]Message, n)
	for i := range out {
		out[i] = Text(fmt.Sprintf("m%d", i))
	}
	return out
}

func TestBatches(t *testing.T) {
	assert.Empty(t, Batches(nil, 5))

	b := Batches(texts(12), 5)
	require.Len(t, b, 3)
	assert.Len(t, b[0], 5)
	assert.Len(t, b[1], 5)
	assert.Len(t, b[2], 2)
	assert.Equal(t, "m10", b[2][0].Text)

	assert.Len(t, Batches(texts(7), 0), 2, "non-positive size falls back to MaxPerRequest")
}

func TestSendAll_StopsAtFirstFailure(t *testing.T) {
	s := &recordingSender{failAt: 2}
	rcpts, err := SendAll(context.Background(), s, "g", texts(11))
	require.Error(t, err)
	assert.Len(t, s.calls, 2)
	assert.Len(t, rcpts, 1)
}

func TestSendAll_PreservesOrder(t *testing.T) {
	s := &recordingSender{}
	_, err := SendAll(context.Background(), s, "g", texts(6))
	require.NoError(t, err)
	require.Len(t, s.calls, 2)
	assert.Equal(t, "m5", s.calls[1][0].Text)
}

func TestImage_PreviewDefaultsToOriginal(t *testing.T) {
	m := Image("https://x/a.jpg")
	assert.Equal(t, KindImage, m.Kind)
	assert.Equal(t, m.OriginalURL, m.PreviewURL)
}

func newRegistryDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.SenderBot{}))
	return db
}

func TestRegistry_SenderFor(t *testing.T) {
	db := newRegistryDB(t)
	off := false
	require.NoError(t, db.Create([]domain.SenderBot{
		{ID: "line-ok", Platform: domain.BotLine, ChannelAccessToken: "t", ChannelSecret: "s"},
		{ID: "line-nosecret", Platform: domain.BotLine, ChannelAccessToken: "t"},
		{ID: "tg-ok", Platform: domain.BotTelegram, ChannelAccessToken: "t"},
		{ID: "off", Platform: domain.BotLine, ChannelAccessToken: "t", ChannelSecret: "s", NotificationEnabled: &off},
		{ID: "other", Platform: "whatsapp", ChannelAccessToken: "t", ChannelSecret: "s"},
	}).Error)

	built := 0
	fake := &recordingSender{}
	f := func(domain.SenderBot) (Sender, error) { built++; return fake, nil }
	reg := NewRegistry(db, time.Minute, map[domain.BotPlatform]Factory{
		domain.BotLine:     f,
		domain.BotTelegram: f,
	})
	ctx := context.Background()

	s, err := reg.SenderFor(ctx, "line-ok", domain.BotLine)
	require.NoError(t, err)
	assert.Same(t, fake, s)

	_, err = reg.SenderFor(ctx, " line-ok ", domain.BotLine)
	require.NoError(t, err)
	assert.Equal(t, 1, built, "second lookup is served from cache")

	_, err = reg.SenderFor(ctx, "tg-ok", domain.BotTelegram)
	require.NoError(t, err)

	_, err = reg.SenderFor(ctx, "line-nosecret", domain.BotLine)
	assert.ErrorIs(t, err, ErrBotCredentials)

	_, err = reg.SenderFor(ctx, "off", domain.BotLine)
	assert.ErrorIs(t, err, ErrBotDisabled)

	_, err = reg.SenderFor(ctx, "missing", domain.BotLine)
	assert.ErrorIs(t, err, ErrBotNotFound)

	_, err = reg.SenderFor(ctx, "", domain.BotLine)
	assert.ErrorIs(t, err, ErrBotNotFound)

	_, err = reg.SenderFor(ctx, "other", "whatsapp")
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)

	_, err = reg.SenderFor(ctx, "tg-ok", domain.BotLine)
	assert.ErrorIs(t, err, ErrPlatformMismatch, "cached client still checks the platform")
	_, err = reg.SenderFor(ctx, "line-nosecret", domain.BotTelegram)
	assert.ErrorIs(t, err, ErrBotCredentials)

	reg.Forget("line-ok")
	_, err = reg.SenderFor(ctx, "line-ok", domain.BotLine)
	require.NoError(t, err)
	assert.Equal(t, 3, built)
}
