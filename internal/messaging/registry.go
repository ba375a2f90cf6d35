package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/tbourn/order-notifier/internal/domain"
	"github.com/tbourn/order-notifier/internal/repo"
)

// Factory builds a Sender from a bot's stored credentials.
type Factory func(bot domain.SenderBot) (Sender, error)

// Registry resolves sender bots from storage and caches the built clients
// per bot ID for TTL.
type Registry struct {
	DB        *gorm.DB
	Factories map[domain.BotPlatform]Factory

	clients *cache.Cache
}

// NewRegistry returns a Registry whose client cache expires entries after ttl.
func NewRegistry(db *gorm.DB, ttl time.Duration, factories map[domain.BotPlatform]Factory) *Registry {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Registry{
		DB:        db,
		Factories: factories,
		clients:   cache.New(ttl, 2*ttl),
	}
}

type cachedSender struct {
	platform domain.BotPlatform
	sender   Sender
}

// SenderFor implements Resolver. The bot must talk to platform.
func (r *Registry) SenderFor(ctx context.Context, botID string, platform domain.BotPlatform) (Sender, error) {
	botID = strings.TrimSpace(botID)
	if botID == "" {
		return nil, ErrBotNotFound
	}
	if v, ok := r.clients.Get(botID); ok {
		c := v.(cachedSender)
		if c.platform != platform {
			return nil, fmt.Errorf("%w: bot is %s, channel is %s", ErrPlatformMismatch, c.platform, platform)
		}
		return c.sender, nil
	}

	bot, err := repo.GetSenderBot(ctx, r.DB, botID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrBotNotFound
	}
	if err != nil {
		return nil, err
	}
	if bot.NotificationsDisabled() {
		return nil, ErrBotDisabled
	}
	if !hasCredentials(*bot) {
		return nil, ErrBotCredentials
	}
	if bot.Platform != platform {
		return nil, fmt.Errorf("%w: bot is %s, channel is %s", ErrPlatformMismatch, bot.Platform, platform)
	}

	f, ok := r.Factories[bot.Platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, bot.Platform)
	}
	s, err := f(*bot)
	if err != nil {
		return nil, err
	}
	r.clients.SetDefault(botID, cachedSender{platform: bot.Platform, sender: s})
	return s, nil
}

// Forget drops a cached client, e.g. after a credential rotation.
func (r *Registry) Forget(botID string) { r.clients.Delete(strings.TrimSpace(botID)) }

// Telegram bots authenticate with the token alone; LINE also needs the
// channel secret.
func hasCredentials(b domain.SenderBot) bool {
	if strings.TrimSpace(b.ChannelAccessToken) == "" {
		return false
	}
	if b.Platform == domain.BotTelegram {
		return true
	}
	return strings.TrimSpace(b.ChannelSecret) != ""
}
