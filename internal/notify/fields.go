package notify

import (
	"strings"

	"github.com/tbourn/order-notifier/internal/domain"
)

func displayName(d domain.OrderData) string {
	return firstNonEmpty(d.RecipientName, d.CustomerName)
}

func facebookName(o domain.Order) string {
	return firstNonEmpty(o.FacebookName, o.OrderData.FacebookName, o.SenderName)
}

func phone(d domain.OrderData) string {
	return firstNonEmpty(d.Phone, d.CustomerPhone, d.ShippingPhone)
}

func paymentMethod(d domain.OrderData) string {
	return firstNonEmpty(d.PaymentMethod, d.PaymentType)
}

// address joins the street address with the administrative parts that are
// present.
func address(d domain.OrderData) string {
	parts := make([]string, 0, 5)
	for _, p := range []string{
		d.ShippingAddress, d.AddressSubDistrict, d.AddressDistrict,
		d.AddressProvince, d.AddressPostalCode,
	} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// shortID returns the last six characters of an order ID, or "-".
func shortID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return "-"
	}
	r := []rune(id)
	if len(r) <= 6 {
		return id
	}
	return string(r[len(r)-6:])
}
