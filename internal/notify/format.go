package notify

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata" // channel timezones must resolve on minimal hosts

	"github.com/tbourn/order-notifier/internal/domain"
	"github.com/tbourn/order-notifier/internal/messaging"
)

const (
	summaryRule   = "═══════════════════════════"
	blockRule     = "───────────────────────────"
	noOrdersLine  = "ไม่มีออเดอร์ในรอบนี้"
	continuedMark = " (ต่อ)"

	newOrderMaxItems = 30
	summaryMaxItems  = 5
)

// DefaultTimezone is used when a channel has no summary timezone.
const DefaultTimezone = "Asia/Bangkok"

// NewOrderOptions tunes FormatNewOrderMessage.
type NewOrderOptions struct {
	// ChatLink replaces the constructed admin chat URL, typically with a
	// short link.
	ChatLink string
}

// ChatURL returns the admin chat page URL for a customer.
func ChatURL(baseURL, userID string) string {
	return strings.TrimRight(baseURL, "/") + "/admin/chat?userId=" + url.QueryEscape(userID)
}

// FormatNewOrderMessage renders the immediate notification for one order.
// Each line is gated by its toggle and suppressed when the value is absent.
// Links are only rendered when baseURL is set.
func FormatNewOrderMessage(o domain.Order, settings domain.ChannelSettings, baseURL string, opts NewOrderOptions) messaging.Message {
	t := settings.Resolve()
	d := o.OrderData
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")

	lines := []string{"🛒 ออเดอร์ใหม่!", "📦 ID: " + orDash(o.ID)}

	if fb := facebookName(o); t.FacebookName && fb != "" && o.Platform == domain.PlatformFacebook {
		lines = append(lines, "📘 Facebook: "+shorten(fb, 80))
	}
	if name := displayName(d); t.Customer && name != "" {
		lines = append(lines, "👤 ชื่อผู้รับ: "+name)
	}
	if t.ItemsCount {
		lines = append(lines, "📝 สินค้า: "+count(len(d.Items))+" รายการ")
	}
	if t.ItemsDetail && len(d.Items) > 0 {
		if items := normalizeItems(d.Items); len(items) > 0 {
			lines = append(lines, "🧾 รายการสินค้า:")
			for i, it := range items {
				if i == newOrderMaxItems {
					break
				}
				line := "🔸 " + it.Name + variantPart(it) + fmt.Sprintf(" x%d", it.Quantity)
				if it.HasPrice {
					line += " • " + currency(it.Price) + " = " + currency(it.Price*float64(it.Quantity))
				}
				lines = append(lines, line)
			}
			if extra := len(items) - newOrderMaxItems; extra > 0 {
				lines = append(lines, "… และอีก "+count(extra)+" รายการ")
			}
		}
	}
	if p := phone(d); t.Phone && p != "" {
		lines = append(lines, "📞 เบอร์โทร: "+shorten(p, 60))
	}
	if a := address(d); t.Address && a != "" {
		lines = append(lines, "📍 ที่อยู่จัดส่ง: "+shorten(a, 400))
	}
	if pm := paymentMethod(d); t.PaymentMethod && pm != "" {
		lines = append(lines, "💳 ชำระเงิน: "+shorten(pm, 80))
	}
	if total, ok := d.TotalAmount.Get(); t.TotalAmount && ok {
		line := "💰 ยอดรวม: " + currency(total)
		if ship, ok := d.ShippingCost.Get(); ok && ship > 0 {
			line += " (รวมค่าส่ง " + currency(ship) + ")"
		}
		lines = append(lines, line)
	}

	if base != "" {
		user := strings.TrimSpace(o.UserID)
		if t.ChatLink && user != "" {
			link := strings.TrimSpace(opts.ChatLink)
			if link == "" {
				link = ChatURL(base, user)
			}
			lines = append(lines, "💬 ดูแชท: "+link)
		}
		if t.OrderLink {
			lines = append(lines, "🔗 ดูออเดอร์: "+base+"/admin/orders")
		}
	}

	return messaging.Text(truncate(strings.Join(lines, "\n")))
}

// SummaryOptions tunes FormatOrderSummaryMessages.
type SummaryOptions struct {
	Settings domain.ChannelSettings
	Start    time.Time
	End      time.Time
	// Location renders the range label; nil means DefaultTimezone.
	Location *time.Location
	BaseURL  string
	// ShortChatLinks maps a user ID to its short chat link.
	ShortChatLinks map[string]string
}

// FormatOrderSummaryMessages renders a summary of orders as one or more
// text messages. The first header carries the totals; later headers are
// marked as continuations. An empty list yields a single "no orders"
// message.
func FormatOrderSummaryMessages(orders []domain.Order, opts SummaryOptions) []messaging.Message {
	t := opts.Settings.Resolve()
	label := FormatRange(opts.Start, opts.End, opts.Location)

	var totalAmount, totalShipping float64
	for _, o := range orders {
		if v, ok := o.OrderData.TotalAmount.Get(); ok {
			totalAmount += v
		}
		if v, ok := o.OrderData.ShippingCost.Get(); ok {
			totalShipping += v
		}
	}
	totals := summaryTotals(len(orders), totalAmount, totalShipping, t.TotalAmount)

	if len(orders) == 0 {
		lines := append([]string{summaryTitle(label, false)}, totals...)
		lines = append(lines, noOrdersLine)
		return []messaging.Message{messaging.Text(truncate(strings.Join(lines, "\n")))}
	}

	header := func(continued bool) []string {
		lines := []string{summaryTitle(label, continued)}
		if !continued {
			lines = append(lines, totals...)
		}
		return append(lines, "", summaryRule)
	}

	blocks := make([]Block, len(orders))
	for i, o := range orders {
		blocks[i] = Block{Lines: summaryBlock(o, i, t, opts)}
	}

	texts := PlanChunks(header, blocks, DefaultLimits)
	out := make([]messaging.Message, len(texts))
	for i, s := range texts {
		out[i] = messaging.Text(s)
	}
	return out
}

func summaryTitle(label string, continued bool) string {
	title := "📊 สรุปออเดอร์"
	if label != "" {
		title += " (" + label + ")"
	}
	if continued {
		title += continuedMark
	}
	return title
}

func summaryTotals(n int, amount, shipping float64, withAmount bool) []string {
	first := fmt.Sprintf("รวม %d ออเดอร์", n)
	if withAmount {
		first += " | ยอดรวม " + currency(amount)
	}
	lines := []string{first}
	if withAmount && shipping > 0 {
		lines = append(lines, "ค่าส่งรวม "+currency(shipping))
	}
	return lines
}

func summaryBlock(o domain.Order, idx int, t domain.Toggles, opts SummaryOptions) []string {
	d := o.OrderData
	lines := []string{fmt.Sprintf("🛒 ออเดอร์ #%d (ID: %s)", idx+1, shortID(o.ID))}

	if fb := facebookName(o); t.FacebookName && fb != "" && o.Platform == domain.PlatformFacebook {
		lines = append(lines, "📘 Facebook: "+shorten(fb, 60))
	}
	if name := displayName(d); t.Customer && name != "" {
		lines = append(lines, "👤 ผู้รับ: "+shorten(name, 60))
	}

	if t.ItemsDetail && len(d.Items) > 0 {
		items := normalizeItems(d.Items)
		for i, it := range items {
			if i == summaryMaxItems {
				break
			}
			line := "  🔸 " + it.Name + variantPart(it) + fmt.Sprintf(" x%d", it.Quantity)
			if it.HasPrice {
				line += " @" + currency(it.Price)
			}
			lines = append(lines, line)
		}
		if extra := len(items) - summaryMaxItems; extra > 0 {
			lines = append(lines, fmt.Sprintf("  … +%d รายการ", extra))
		}
	} else if t.ItemsCount {
		lines = append(lines, fmt.Sprintf("📝 สินค้า: %d รายการ", len(d.Items)))
	}

	if p := phone(d); t.Phone && p != "" {
		lines = append(lines, "📞 "+shorten(p, 40))
	}
	if a := address(d); t.Address && a != "" {
		lines = append(lines, "📍 "+shorten(a, 200))
	}
	if pm := paymentMethod(d); t.PaymentMethod && pm != "" {
		lines = append(lines, "💳 "+shorten(pm, 60))
	}
	if total, ok := d.TotalAmount.Get(); t.TotalAmount && ok {
		line := "💰 " + currency(total)
		if ship, ok := d.ShippingCost.Get(); ok && ship > 0 {
			line += " (ค่าส่ง " + currency(ship) + ")"
		}
		lines = append(lines, line)
	}

	if user := strings.TrimSpace(o.UserID); t.ChatLink && user != "" {
		base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
		if link := opts.ShortChatLinks[user]; link != "" {
			lines = append(lines, "💬 "+link)
		} else if base != "" {
			lines = append(lines, "💬 "+ChatURL(base, user))
		}
	}

	return append(lines, blockRule)
}

func variantPart(it item) string {
	if it.Variant == "" {
		return ""
	}
	return " (" + it.Variant + ")"
}

func orDash(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "-"
	}
	return s
}

// FormatRange renders a summary window in loc: "DD/MM HH:mm-HH:mm" when
// both ends fall on the same day, else "DD/MM HH:mm-DD/MM HH:mm". Zero
// bounds render as "".
func FormatRange(start, end time.Time, loc *time.Location) string {
	if start.IsZero() || end.IsZero() {
		return ""
	}
	if loc == nil {
		loc = LoadLocation("")
	}
	s, e := start.In(loc), end.In(loc)
	if sameDay(s, e) {
		return s.Format("02/01 15:04") + "-" + e.Format("15:04")
	}
	return s.Format("02/01 15:04") + "-" + e.Format("02/01 15:04")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// LoadLocation resolves a channel timezone name, falling back to
// DefaultTimezone and then UTC.
func LoadLocation(name string) *time.Location {
	if name = strings.TrimSpace(name); name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	if loc, err := time.LoadLocation(DefaultTimezone); err == nil {
		return loc
	}
	return time.UTC
}
