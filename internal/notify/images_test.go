package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/order-notifier/internal/domain"
	"github.com/tbourn/order-notifier/internal/messaging"
)

func TestImageRefs(t *testing.T) {
	rows := []domain.ChatMessage{
		{ID: "m1", Content: `[{"type":"image","base64":"QUJD"},{"type":"image","base64":"REVG"}]`},
		{ID: "m2", Content: "just text"},
		{ID: "", Content: `{"type":"image","base64":"QUJD"}`},
		{ID: "m1", Content: `[{"type":"image","base64":"QUJD"}]`},
		{ID: "m3", Content: `{"data":{"type":"image","content":"data:image/png;base64,iVBORw0KGgo="}}`},
	}
	assert.Equal(t, []ImageRef{
		{MessageID: "m1", Index: 0},
		{MessageID: "m1", Index: 1},
		{MessageID: "m3", Index: 0},
	}, ImageRefs(rows))
}

func TestImageMessages(t *testing.T) {
	refs := []ImageRef{{MessageID: "m1", Index: 0}, {MessageID: "m1", Index: 1}}

	msgs := ImageMessages("https://shop.test/", refs)
	require.Len(t, msgs, 2)
	assert.Equal(t, messaging.Image("https://shop.test/assets/chat-images/m1/1"), msgs[1])

	assert.Empty(t, ImageMessages("", refs))
	assert.Empty(t, ImageMessages("shop.test", refs), "relative base cannot be fetched by the platform")
	assert.True(t, IsHTTPURL("HTTPS://x"))
}

func TestAppendLine(t *testing.T) {
	m := AppendLine(messaging.Text("hello"), ImageCountLine(3))
	assert.Equal(t, "hello\n📷 รูปภาพจากลูกค้า: 3 รูป", m.Text)

	full := messaging.Text(strings.Repeat("x", MaxTextLength-5))
	assert.Equal(t, full, AppendLine(full, ImageCountLine(3)), "overflowing line is dropped")

	img := messaging.Image("https://x/a")
	assert.Equal(t, img, AppendLine(img, "line"))
}

func TestImageCaption(t *testing.T) {
	assert.Equal(t, "📷 รูปภาพจากลูกค้า (ออเดอร์ d4e5f6) จำนวน 1,200 รูป", ImageCaption("665f1c2ab9e0a1b2c3d4e5f6", 1200))
	assert.Equal(t, "📷 รูปภาพจากลูกค้า (ออเดอร์ -) จำนวน 2 รูป", ImageCaption("", 2))
}

func TestDayBoundsAndGroupKey(t *testing.T) {
	// 20:00 UTC on 1 May is 03:00 on 2 May in Bangkok.
	at := time.Date(2025, 5, 1, 20, 0, 0, 0, time.UTC)
	o := domain.Order{UserID: "u1", Platform: domain.PlatformFacebook, ExtractedAt: &at}

	start, end := DayBounds(o, bkk, time.Time{})
	assert.Equal(t, time.Date(2025, 5, 2, 0, 0, 0, 0, bkk), start)
	assert.Equal(t, 24*time.Hour, end.Sub(start))
	assert.Equal(t, "facebook:u1:2025-05-02", ImageGroupKey(o, bkk, time.Time{}))

	now := time.Date(2025, 6, 9, 12, 0, 0, 0, bkk)
	start, _ = DayBounds(domain.Order{}, bkk, now)
	assert.Equal(t, time.Date(2025, 6, 9, 0, 0, 0, 0, bkk), start)
}
