package notify

import (
	"math"

	"github.com/tbourn/order-notifier/internal/domain"
)

const defaultItemName = "สินค้า"

// item is a display-ready order line.
type item struct {
	Name     string
	Variant  string
	Quantity int
	Price    float64
	HasPrice bool
}

// normalizeItem applies the display rules to one raw item. It reports false
// for entries that render nothing.
func normalizeItem(it domain.OrderItem) (item, bool) {
	if it.Ignored {
		return item{}, false
	}
	if it.Bare {
		name := shorten(it.Name, 120)
		if name == "" {
			return item{}, false
		}
		return item{Name: name, Quantity: 1}, true
	}

	name := it.Name
	if name == "" {
		name = defaultItemName
	}
	out := item{
		Name:     shorten(name, 120),
		Variant:  shorten(it.Variant, 60),
		Quantity: quantity(it.Quantity),
	}
	if p, ok := it.Price.Get(); ok && p >= 0 {
		out.Price, out.HasPrice = p, true
	}
	return out, true
}

// quantity floors a positive quantity and falls back to 1.
func quantity(a domain.Amount) int {
	if q, ok := a.Get(); ok && q > 0 {
		if f := math.Floor(q); f >= 1 {
			return int(f)
		}
	}
	return 1
}

func normalizeItems(in []domain.OrderItem) []item {
	out := make([]item, 0, len(in))
	for _, it := range in {
		if n, ok := normalizeItem(it); ok {
			out = append(out, n)
		}
	}
	return out
}
