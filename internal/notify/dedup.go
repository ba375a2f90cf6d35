package notify

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tbourn/order-notifier/internal/domain"
)

// DedupTotal returns the amount used to compare orders: the declared total
// when it is a finite number, otherwise the sum of priced items plus
// shipping. ok is false when nothing numeric is available.
func DedupTotal(o domain.Order) (total float64, ok bool) {
	d := o.OrderData
	if v, valid := d.TotalAmount.Get(); valid {
		return v, true
	}
	for _, it := range d.Items {
		if it.Ignored || it.Bare {
			continue
		}
		p, valid := it.Price.Get()
		if !valid {
			continue
		}
		total += p * float64(quantity(it.Quantity))
		ok = true
	}
	if s, valid := d.ShippingCost.Get(); valid {
		total += s
		ok = true
	}
	if ok && (math.IsNaN(total) || math.IsInf(total, 0)) {
		return 0, false
	}
	return total, ok
}

// DedupKey identifies the logical transaction behind o as
// "platform:user|total" with the total fixed to two decimals. It returns ""
// for orders that must never be collapsed.
func DedupKey(o domain.Order) string {
	user := strings.TrimSpace(o.UserID)
	if user == "" {
		return ""
	}
	total, ok := DedupTotal(o)
	if !ok {
		return ""
	}
	platform := domain.NormalizePlatform(string(o.Platform))
	return string(platform) + ":" + user + "|" + decimal.NewFromFloat(total).Round(2).StringFixed(2)
}

// DedupOrders keeps, for each key, the order with the latest timestamp
// (later input position wins ties). Orders without a key are always kept.
// The relative order of survivors is unchanged.
func DedupOrders(orders []domain.Order) []domain.Order {
	type best struct {
		index int
		ts    int64
	}
	keys := make([]string, len(orders))
	winners := make(map[string]best, len(orders))

	for i, o := range orders {
		k := DedupKey(o)
		keys[i] = k
		if k == "" {
			continue
		}
		ts := orderMillis(o)
		cur, seen := winners[k]
		if !seen || ts > cur.ts || (ts == cur.ts && i > cur.index) {
			winners[k] = best{index: i, ts: ts}
		}
	}

	out := make([]domain.Order, 0, len(orders))
	for i, o := range orders {
		if keys[i] == "" || winners[keys[i]].index == i {
			out = append(out, o)
		}
	}
	return out
}

func orderMillis(o domain.Order) int64 {
	t := o.Timestamp()
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
