// Package messaging defines the outbound message shape and the capability
// the delivery engine uses to push messages into group chats.
//
// Platform clients live in subpackages (line, telegram). A Registry turns a
// sender bot identity into a ready Sender, caching clients per bot.
package messaging

import (
	"context"
	"errors"

	"github.com/tbourn/order-notifier/internal/domain"
)

// Kind discriminates Message variants.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Message is a text message or an image referenced by URL.
type Message struct {
	Kind        Kind   `json:"type"`
	Text        string `json:"text,omitempty"`
	OriginalURL string `json:"originalContentUrl,omitempty"`
	PreviewURL  string `json:"previewImageUrl,omitempty"`
}

// Text returns a text message.
func Text(s string) Message { return Message{Kind: KindText, Text: s} }

// Image returns an image message whose preview is the original URL.
func Image(url string) Message {
	return Message{Kind: KindImage, OriginalURL: url, PreviewURL: url}
}

// Receipt is what a platform returned for one Send call.
type Receipt struct {
	// Accepted is the number of messages the platform acknowledged.
	Accepted int
	// Raw holds platform response identifiers, if any.
	Raw []string
}

// Sender pushes messages to a target group. Implementations send the
// messages of one call in order and fail on the first rejected message.
type Sender interface {
	Send(ctx context.Context, target string, msgs []Message) (Receipt, error)
}

// Resolver returns the Sender for a sender bot.
type Resolver interface {
	SenderFor(ctx context.Context, botID string, platform domain.BotPlatform) (Sender, error)
}

// MaxPerRequest is the platform ceiling on messages per push call.
const MaxPerRequest = 5

var (
	// ErrBotNotFound is returned when the sender bot does not exist.
	ErrBotNotFound = errors.New("sender bot not found")
	// ErrBotCredentials is returned when the bot lacks usable credentials.
	ErrBotCredentials = errors.New("sender bot credentials missing")
	// ErrBotDisabled is returned when the bot has notifications turned off.
	ErrBotDisabled = errors.New("sender bot notifications disabled")
	// ErrUnsupportedPlatform is returned when no client exists for the bot.
	ErrUnsupportedPlatform = errors.New("unsupported sender platform")
	// ErrPlatformMismatch is returned when the bot's platform differs from
	// the one the channel delivers on.
	ErrPlatformMismatch = errors.New("sender bot platform does not match channel type")
)

// Batches splits msgs into consecutive groups of at most size messages.
// A non-positive size falls back to MaxPerRequest.
func Batches(msgs []Message, size int) [][]Message {
	if size <= 0 {
		size = MaxPerRequest
	}
	var out [][]Message
	for i := 0; i < len(msgs); i += size {
		end := i + size
		if end > len(msgs) {
			end = len(msgs)
		}
		out = append(out, msgs[i:end])
	}
	return out
}

// SendAll delivers msgs in batches of MaxPerRequest, in order. It stops at
// the first failing batch and returns the receipts collected so far.
func SendAll(ctx context.Context, s Sender, target string, msgs []Message) ([]Receipt, error) {
	var out []Receipt
	for _, batch := range Batches(msgs, MaxPerRequest) {
		r, err := s.Send(ctx, target, batch)
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	return out, nil
}
