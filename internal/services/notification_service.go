// Package services – NotificationService
//
// NotificationService is the delivery engine. It loads channel
// configuration and orders, applies deduplication and formatting, resolves
// customer image attachments, pushes messages through the sender bot of
// each channel, and appends one audit log entry per delivery attempt.
//
// Structured outcomes (missing order, inactive channel, bad window, failed
// push) are returned inside DeliveryResult. Go errors are reserved for
// malformed identifiers and storage read failures.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/order-notifier/internal/domain"
	"github.com/tbourn/order-notifier/internal/messaging"
	"github.com/tbourn/order-notifier/internal/notify"
	"github.com/tbourn/order-notifier/internal/repo"
)

// DeliveryResult is the outcome of one engine call.
type DeliveryResult struct {
	Success    bool      `json:"success"`
	Error      ErrorCode `json:"error,omitempty"`
	SentCount  int       `json:"sentCount"`
	OrderCount int       `json:"orderCount,omitempty"`
}

func failed(code ErrorCode) DeliveryResult {
	return DeliveryResult{Success: false, Error: code}
}

// SummaryWindow is the half-open range [Start, End) of extraction times a
// summary covers.
type SummaryWindow struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether both bounds are set and End is after Start.
func (w SummaryWindow) Valid() bool {
	return !w.Start.IsZero() && !w.End.IsZero() && w.End.After(w.Start)
}

// NotificationService delivers order notifications to channels.
type NotificationService struct {
	DB      *gorm.DB
	Senders messaging.Resolver
	// Links shortens admin chat links; nil disables shortening.
	Links *ShortLinkService
	// BaseURL is the public admin origin used for links and image URLs.
	BaseURL string
	// Location is the timezone for channels without their own.
	Location *time.Location
	Log      zerolog.Logger
	// Now is the clock; time.Now when nil.
	Now func() time.Time
}

// NewNotificationService constructs a NotificationService with the global
// logger and the default timezone.
func NewNotificationService(db *gorm.DB, senders messaging.Resolver, links *ShortLinkService, baseURL string) *NotificationService {
	return &NotificationService{
		DB:       db,
		Senders:  senders,
		Links:    links,
		BaseURL:  strings.TrimSpace(baseURL),
		Location: notify.LoadLocation(""),
		Log:      log.Logger.With().Str("component", "notifier").Logger(),
	}
}

// SendNewOrder notifies every eligible channel about one order. Channels
// are independent: a failed push is logged and the loop continues.
// SentCount is the number of channels that accepted the notification.
func (s *NotificationService) SendNewOrder(ctx context.Context, orderID string) (DeliveryResult, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "SendNewOrder", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	orderID = strings.TrimSpace(orderID)
	if !domain.ValidID(orderID) {
		return DeliveryResult{}, ErrInvalidID
	}

	o, err := repo.GetOrder(ctx, s.DB, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return failed(CodeOrderNotFound), nil
	}
	if err != nil {
		return DeliveryResult{}, fmt.Errorf("load order: %w", err)
	}

	channels, err := repo.ListActiveChannels(ctx, s.DB)
	if err != nil {
		return DeliveryResult{}, fmt.Errorf("load channels: %w", err)
	}

	var targets []domain.NotificationChannel
	for _, ch := range channels {
		if !notify.ShouldNotifyChannelForOrder(ch, *o) {
			continue
		}
		if ch.Sender() == "" || ch.Target() == "" {
			s.Log.Debug().Str("channel_id", ch.ID).Msg("skip channel without sender or target")
			continue
		}
		targets = append(targets, ch)
	}
	span.SetAttributes(attribute.Int("channels", len(targets)))
	if len(targets) == 0 {
		return DeliveryResult{Success: true}, nil
	}

	images, err := s.orderImages(ctx, *o, s.location(""))
	if err != nil {
		return DeliveryResult{}, fmt.Errorf("load order images: %w", err)
	}
	opts := notify.NewOrderOptions{ChatLink: s.shortChatLink(ctx, o.UserID)}

	sent := 0
	for _, ch := range targets {
		msg := notify.FormatNewOrderMessage(*o, ch.Settings, s.BaseURL, opts)
		if len(images) > 0 {
			msg = notify.AppendLine(msg, notify.ImageCountLine(len(images)))
		}
		payload := append([]messaging.Message{msg}, images...)

		receipts, err := s.deliver(ctx, ch, payload)
		s.record(ctx, domain.EventNewOrder, &ch.ID, &o.ID, receipts, err)
		if err != nil {
			s.Log.Warn().Err(err).Str("channel_id", ch.ID).Str("order_id", o.ID).Msg("new order delivery failed")
			continue
		}
		messagesSent.WithLabelValues(string(domain.EventNewOrder)).Add(float64(len(payload)))
		sent++
	}
	return DeliveryResult{Success: true, SentCount: sent}, nil
}

// SendOrderSummaryByID loads the channel and delegates to SendOrderSummary.
func (s *NotificationService) SendOrderSummaryByID(ctx context.Context, channelID string, w SummaryWindow) (DeliveryResult, error) {
	channelID = strings.TrimSpace(channelID)
	if !domain.ValidID(channelID) {
		return DeliveryResult{}, ErrInvalidID
	}
	ch, err := repo.GetChannel(ctx, s.DB, channelID)
	if errors.Is(err, repo.ErrNotFound) {
		return failed(CodeChannelNotFound), nil
	}
	if err != nil {
		return DeliveryResult{}, fmt.Errorf("load channel: %w", err)
	}
	return s.SendOrderSummary(ctx, *ch, w)
}

// SendOrderSummary sends the deduplicated order summary for w to ch as one
// delivery attempt. SentCount is the number of text messages; OrderCount
// is the number of orders in the window before deduplication.
func (s *NotificationService) SendOrderSummary(ctx context.Context, ch domain.NotificationChannel, w SummaryWindow) (DeliveryResult, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "SendOrderSummary", trace.WithAttributes(
		attribute.String("channel.id", ch.ID),
		attribute.String("window.start", w.Start.UTC().Format(time.RFC3339)),
		attribute.String("window.end", w.End.UTC().Format(time.RFC3339)),
	))
	defer span.End()

	switch {
	case !ch.IsActive:
		return failed(CodeChannelInactive), nil
	case ch.Sender() == "" || ch.Target() == "":
		return failed(CodeChannelMisconfigured), nil
	case !w.Valid():
		return failed(CodeInvalidWindow), nil
	}

	var sources []domain.ChannelSource
	if !ch.ReceiveFromAllBots {
		sources = notify.UniqueSources(ch.Sources)
		if len(sources) == 0 {
			return failed(CodeNoSources), nil
		}
	}

	orders, err := repo.ListOrdersInWindow(ctx, s.DB, w.Start, w.End, sources)
	if err != nil {
		return DeliveryResult{}, fmt.Errorf("load orders: %w", err)
	}
	unique := notify.DedupOrders(orders)
	span.SetAttributes(attribute.Int("orders", len(orders)), attribute.Int("orders.unique", len(unique)))

	loc := s.location(ch.SummaryTimezone)
	links := map[string]string{}
	for _, o := range unique {
		user := strings.TrimSpace(o.UserID)
		if user == "" {
			continue
		}
		if _, ok := links[user]; ok {
			continue
		}
		if l := s.shortChatLink(ctx, user); l != "" {
			links[user] = l
		}
	}

	texts := notify.FormatOrderSummaryMessages(unique, notify.SummaryOptions{
		Settings:       ch.Settings,
		Start:          w.Start,
		End:            w.End,
		Location:       loc,
		BaseURL:        s.BaseURL,
		ShortChatLinks: links,
	})

	images, err := s.summaryImages(ctx, unique, loc)
	if err != nil {
		s.record(ctx, domain.EventOrderSummary, &ch.ID, nil, nil, err)
		return DeliveryResult{Success: false, Error: ErrorCode(err.Error())}, nil
	}

	payload := append(texts, images...)
	receipts, err := s.deliver(ctx, ch, payload)
	s.record(ctx, domain.EventOrderSummary, &ch.ID, nil, receipts, err)
	if err != nil {
		s.Log.Warn().Err(err).Str("channel_id", ch.ID).Msg("order summary delivery failed")
		return deliveryFailed(err), nil
	}
	messagesSent.WithLabelValues(string(domain.EventOrderSummary)).Add(float64(len(payload)))
	return DeliveryResult{Success: true, SentCount: len(texts), OrderCount: len(orders)}, nil
}

// TestChannel sends one text to the channel's target. An empty text sends
// a timestamped default. The channel's active flag is not checked.
func (s *NotificationService) TestChannel(ctx context.Context, channelID, text string) (DeliveryResult, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "TestChannel", trace.WithAttributes(attribute.String("channel.id", channelID)))
	defer span.End()

	channelID = strings.TrimSpace(channelID)
	if !domain.ValidID(channelID) {
		return DeliveryResult{}, ErrInvalidID
	}
	ch, err := repo.GetChannel(ctx, s.DB, channelID)
	if errors.Is(err, repo.ErrNotFound) {
		return failed(CodeChannelNotFound), nil
	}
	if err != nil {
		return DeliveryResult{}, fmt.Errorf("load channel: %w", err)
	}
	if ch.Sender() == "" || ch.Target() == "" {
		return failed(CodeChannelMisconfigured), nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		text = DefaultTestText(s.now().In(s.location(ch.SummaryTimezone)))
	}

	receipts, err := s.deliver(ctx, *ch, []messaging.Message{messaging.Text(text)})
	s.record(ctx, domain.EventTest, &ch.ID, nil, receipts, err)
	if err != nil {
		return deliveryFailed(err), nil
	}
	messagesSent.WithLabelValues(string(domain.EventTest)).Inc()
	return DeliveryResult{Success: true, SentCount: 1}, nil
}

// DefaultTestText is the message TestChannel sends when none is given.
func DefaultTestText(t time.Time) string {
	return fmt.Sprintf("✅ ทดสอบการแจ้งเตือนสำเร็จ (%s)", t.Format("2/1/2006 15:04:05"))
}

// deliveryFailed reports a failed push. A bot on a different platform
// than the channel type is a configuration error.
func deliveryFailed(err error) DeliveryResult {
	if errors.Is(err, messaging.ErrPlatformMismatch) {
		return failed(CodeChannelMisconfigured)
	}
	return DeliveryResult{Success: false, Error: ErrorCode(err.Error())}
}

// deliver resolves the channel's sender bot and pushes msgs in order.
func (s *NotificationService) deliver(ctx context.Context, ch domain.NotificationChannel, msgs []messaging.Message) ([]messaging.Receipt, error) {
	sender, err := s.Senders.SenderFor(ctx, ch.Sender(), ch.Platform())
	if err != nil {
		return nil, err
	}
	return messaging.SendAll(ctx, sender, ch.Target(), msgs)
}

// record appends one audit entry. Failures to write are logged and dropped.
func (s *NotificationService) record(ctx context.Context, ev domain.EventType, channelID, orderID *string, receipts []messaging.Receipt, sendErr error) {
	entry := &domain.NotificationLog{
		ChannelID: channelID,
		OrderID:   orderID,
		EventType: ev,
		Status:    domain.StatusSuccess,
		CreatedAt: s.now().UTC(),
	}
	if sendErr != nil {
		entry.Status = domain.StatusFailed
		msg := sendErr.Error()
		entry.ErrorMessage = &msg
	}
	if len(receipts) > 0 {
		if b, err := json.Marshal(receipts); err == nil {
			raw := string(b)
			entry.Response = &raw
		}
	}
	deliveryTotal.WithLabelValues(string(ev), string(entry.Status)).Inc()

	// The entry is written even when ctx was cancelled after the push.
	if err := repo.CreateNotificationLog(context.WithoutCancel(ctx), s.DB, entry); err != nil {
		s.Log.Warn().Err(err).Str("event", string(ev)).Msg("write notification log")
	}
}

// shortChatLink returns the short admin chat URL for user, or "" when links
// are unavailable. Shortening errors only drop the short form.
func (s *NotificationService) shortChatLink(ctx context.Context, user string) string {
	user = strings.TrimSpace(user)
	if s.Links == nil || user == "" || !notify.IsHTTPURL(s.BaseURL) {
		return ""
	}
	link, err := s.Links.Shorten(ctx, s.BaseURL, notify.ChatURL(s.BaseURL, user))
	if err != nil {
		s.Log.Warn().Err(err).Str("user_id", user).Msg("shorten chat link")
		return ""
	}
	return link
}

// orderImages returns the image messages for o's customer.
func (s *NotificationService) orderImages(ctx context.Context, o domain.Order, loc *time.Location) ([]messaging.Message, error) {
	refs, err := s.imageRefs(ctx, o, loc)
	if err != nil || len(refs) == 0 {
		return nil, err
	}
	return notify.ImageMessages(s.BaseURL, refs), nil
}

// summaryImages returns a caption plus images per distinct customer day.
func (s *NotificationService) summaryImages(ctx context.Context, orders []domain.Order, loc *time.Location) ([]messaging.Message, error) {
	if !notify.IsHTTPURL(s.BaseURL) {
		return nil, nil
	}
	var out []messaging.Message
	seen := map[string]struct{}{}
	for _, o := range orders {
		if strings.TrimSpace(o.UserID) == "" {
			continue
		}
		key := notify.ImageGroupKey(o, loc, s.now())
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		refs, err := s.imageRefs(ctx, o, loc)
		if err != nil {
			return nil, err
		}
		imgs := notify.ImageMessages(s.BaseURL, refs)
		if len(imgs) == 0 {
			continue
		}
		out = append(out, messaging.Text(notify.ImageCaption(o.ID, len(imgs))))
		out = append(out, imgs...)
	}
	return out, nil
}

func (s *NotificationService) imageRefs(ctx context.Context, o domain.Order, loc *time.Location) ([]notify.ImageRef, error) {
	user := strings.TrimSpace(o.UserID)
	if user == "" || !notify.IsHTTPURL(s.BaseURL) {
		return nil, nil
	}
	start, end := notify.DayBounds(o, loc, s.now())
	rows, err := repo.ListImageCandidates(ctx, s.DB, repo.ImageQuery{
		SenderID: user,
		OrderID:  o.ID,
		DayStart: start,
		DayEnd:   end,
	})
	if err != nil {
		return nil, err
	}
	return notify.ImageRefs(rows), nil
}

func (s *NotificationService) location(name string) *time.Location {
	if strings.TrimSpace(name) != "" {
		return notify.LoadLocation(name)
	}
	if s.Location != nil {
		return s.Location
	}
	return notify.LoadLocation("")
}

func (s *NotificationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
