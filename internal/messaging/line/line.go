// Package line delivers notifications to LINE groups through the
// Messaging API push endpoint.
package line

import (
	"context"
	"errors"
	"strings"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/tbourn/order-notifier/internal/domain"
	"github.com/tbourn/order-notifier/internal/messaging"
)

// Sender pushes messages with one bot's channel access token.
type Sender struct {
	api *messaging_api.MessagingApiAPI
}

// New builds a Sender for token. An empty endpoint uses the public API.
func New(token, endpoint string) (*Sender, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("line: channel access token is empty")
	}
	var opts []messaging_api.MessagingApiAPIOption
	if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
		opts = append(opts, messaging_api.WithEndpoint(endpoint))
	}
	api, err := messaging_api.NewMessagingApiAPI(token, opts...)
	if err != nil {
		return nil, err
	}
	return &Sender{api: api}, nil
}

// Factory returns a messaging.Factory that builds LINE senders against
// endpoint.
func Factory(endpoint string) messaging.Factory {
	return func(bot domain.SenderBot) (messaging.Sender, error) {
		return New(bot.ChannelAccessToken, endpoint)
	}
}

// Send implements messaging.Sender. All msgs go out in one push request, so
// callers must respect messaging.MaxPerRequest.
func (s *Sender) Send(ctx context.Context, target string, msgs []messaging.Message) (messaging.Receipt, error) {
	if len(msgs) == 0 {
		return messaging.Receipt{}, nil
	}
	payload := make([]messaging_api.MessageInterface, 0, len(msgs))
	for _, m := range msgs {
		switch m.Kind {
		case messaging.KindImage:
			payload = append(payload, messaging_api.ImageMessage{
				OriginalContentUrl: m.OriginalURL,
				PreviewImageUrl:    m.PreviewURL,
			})
		default:
			payload = append(payload, messaging_api.TextMessage{Text: m.Text})
		}
	}

	resp, err := s.api.WithContext(ctx).PushMessage(&messaging_api.PushMessageRequest{
		To:       target,
		Messages: payload,
	}, "")
	if err != nil {
		return messaging.Receipt{}, err
	}

	rcpt := messaging.Receipt{Accepted: len(msgs)}
	if resp != nil {
		for _, sm := range resp.SentMessages {
			rcpt.Raw = append(rcpt.Raw, sm.Id)
		}
	}
	return rcpt, nil
}
