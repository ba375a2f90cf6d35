package notify

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tbourn/order-notifier/internal/chatimage"
	"github.com/tbourn/order-notifier/internal/domain"
	"github.com/tbourn/order-notifier/internal/messaging"
)

// ImageRef points at one image inside a stored chat message.
type ImageRef struct {
	MessageID string
	Index     int
}

var httpURL = regexp.MustCompile(`(?i)^https?://`)

// IsHTTPURL reports whether s starts with an http or https scheme.
func IsHTTPURL(s string) bool { return httpURL.MatchString(s) }

// ImageURL returns the public URL serving ref.
func ImageURL(baseURL string, ref ImageRef) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" || ref.MessageID == "" {
		return ""
	}
	return fmt.Sprintf("%s/assets/chat-images/%s/%d", base, ref.MessageID, ref.Index)
}

// ImageRefs lists the images embedded in rows, in row order, each
// (message, index) pair once.
func ImageRefs(rows []domain.ChatMessage) []ImageRef {
	var out []ImageRef
	seen := map[ImageRef]struct{}{}
	for _, row := range rows {
		id := strings.TrimSpace(row.ID)
		if id == "" {
			continue
		}
		for i := range chatimage.Extract(row.Content) {
			ref := ImageRef{MessageID: id, Index: i}
			if _, dup := seen[ref]; dup {
				continue
			}
			seen[ref] = struct{}{}
			out = append(out, ref)
		}
	}
	return out
}

// ImageMessages turns refs into image messages. Nothing is produced unless
// baseURL is an http(s) URL the platform can fetch from.
func ImageMessages(baseURL string, refs []ImageRef) []messaging.Message {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if !IsHTTPURL(base) {
		return nil
	}
	out := make([]messaging.Message, 0, len(refs))
	for _, r := range refs {
		if u := ImageURL(base, r); u != "" {
			out = append(out, messaging.Image(u))
		}
	}
	return out
}

// ImageCountLine is appended to a new-order message that has images.
func ImageCountLine(n int) string {
	return "📷 รูปภาพจากลูกค้า: " + count(n) + " รูป"
}

// ImageCaption introduces one order's images in a summary.
func ImageCaption(orderID string, n int) string {
	return fmt.Sprintf("📷 รูปภาพจากลูกค้า (ออเดอร์ %s) จำนวน %s รูป", shortID(orderID), count(n))
}

// AppendLine adds line to a text message unless the result would exceed
// MaxTextLength, in which case the message is left unchanged.
func AppendLine(m messaging.Message, line string) messaging.Message {
	if m.Kind != messaging.KindText || line == "" {
		return m
	}
	next := line
	if m.Text != "" {
		next = m.Text + "\n" + line
	}
	if TextLength(next) <= MaxTextLength {
		m.Text = next
	}
	return m
}

// DayBounds returns the local day in loc containing the order timestamp,
// or now when the order has none.
func DayBounds(o domain.Order, loc *time.Location, now time.Time) (start, end time.Time) {
	if loc == nil {
		loc = LoadLocation("")
	}
	ts := o.Timestamp()
	if ts.IsZero() {
		ts = now
	}
	ts = ts.In(loc)
	start = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// ImageGroupKey groups summary image attachments per customer and day.
func ImageGroupKey(o domain.Order, loc *time.Location, now time.Time) string {
	start, _ := DayBounds(o, loc, now)
	platform := domain.NormalizePlatform(string(o.Platform))
	return string(platform) + ":" + strings.TrimSpace(o.UserID) + ":" + start.Format("2006-01-02")
}
