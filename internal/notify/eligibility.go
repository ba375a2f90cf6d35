package notify

import (
	"strings"

	"github.com/tbourn/order-notifier/internal/domain"
)

// UniqueSources normalizes and deduplicates channel sources by
// (platform, botId), dropping entries without a bot.
func UniqueSources(in []domain.ChannelSource) []domain.ChannelSource {
	seen := make(map[domain.ChannelSource]struct{}, len(in))
	out := make([]domain.ChannelSource, 0, len(in))
	for _, s := range in {
		s = domain.ChannelSource{
			Platform: domain.NormalizePlatform(string(s.Platform)),
			BotID:    strings.TrimSpace(s.BotID),
		}
		if s.BotID == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// ShouldNotifyChannelForOrder reports whether ch receives the new-order
// notification for o. The channel must be active, not scheduled, and
// subscribed to new orders; then it either takes every bot or lists the
// order's (platform, bot) pair among its sources.
func ShouldNotifyChannelForOrder(ch domain.NotificationChannel, o domain.Order) bool {
	if !ch.IsActive || ch.IsScheduled() || !ch.Subscribes(domain.EventNewOrder) {
		return false
	}
	if ch.ReceiveFromAllBots {
		return true
	}
	bot := strings.TrimSpace(o.BotID)
	if bot == "" {
		return false
	}
	want := domain.ChannelSource{Platform: domain.NormalizePlatform(string(o.Platform)), BotID: bot}
	for _, s := range UniqueSources(ch.Sources) {
		if s == want {
			return true
		}
	}
	return false
}
