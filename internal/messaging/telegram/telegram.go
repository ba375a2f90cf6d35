// Package telegram delivers notifications to Telegram groups via the Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/tbourn/order-notifier/internal/domain"
	"github.com/tbourn/order-notifier/internal/messaging"
)

// Sender posts messages one by one with a single bot token.
type Sender struct {
	bot *tele.Bot
}

// New builds a Sender. apiURL overrides the Bot API base URL when set.
// The bot is created offline so construction does no network I/O.
func New(token, apiURL string) (*Sender, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	b, err := tele.NewBot(tele.Settings{
		Token:   token,
		URL:     strings.TrimSpace(apiURL),
		Offline: true,
		Client:  &http.Client{Timeout: 15 * time.Second},
	})
	if err != nil {
		return nil, err
	}
	return &Sender{bot: b}, nil
}

// Factory returns a messaging.Factory for Telegram bots.
func Factory(apiURL string) messaging.Factory {
	return func(bot domain.SenderBot) (messaging.Sender, error) {
		return New(bot.ChannelAccessToken, apiURL)
	}
}

// Send implements messaging.Sender. target is the numeric chat ID.
func (s *Sender) Send(ctx context.Context, target string, msgs []messaging.Message) (messaging.Receipt, error) {
	chatID, err := strconv.ParseInt(strings.TrimSpace(target), 10, 64)
	if err != nil {
		return messaging.Receipt{}, fmt.Errorf("telegram: invalid chat id %q", target)
	}
	chat := &tele.Chat{ID: chatID}

	var rcpt messaging.Receipt
	for _, m := range msgs {
		select {
		case <-ctx.Done():
			return rcpt, ctx.Err()
		default:
		}

		var what any = m.Text
		if m.Kind == messaging.KindImage {
			what = &tele.Photo{File: tele.FromURL(m.OriginalURL)}
		}
		sent, err := s.bot.Send(chat, what, &tele.SendOptions{DisableWebPagePreview: true})
		if err != nil {
			return rcpt, err
		}
		rcpt.Accepted++
		if sent != nil {
			rcpt.Raw = append(rcpt.Raw, strconv.Itoa(sent.ID))
		}
	}
	return rcpt, nil
}
