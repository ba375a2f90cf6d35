package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// OrderData is the nested order payload captured from the conversation.
// Field names follow the JSON shape produced by the order extractor.
type OrderData struct {
	RecipientName      string      `json:"recipientName,omitempty"`
	CustomerName       string      `json:"customerName,omitempty"`
	FacebookName       string      `json:"facebookName,omitempty"`
	Phone              string      `json:"phone,omitempty"`
	CustomerPhone      string      `json:"customerPhone,omitempty"`
	ShippingPhone      string      `json:"shippingPhone,omitempty"`
	ShippingAddress    string      `json:"shippingAddress,omitempty"`
	AddressSubDistrict string      `json:"addressSubDistrict,omitempty"`
	AddressDistrict    string      `json:"addressDistrict,omitempty"`
	AddressProvince    string      `json:"addressProvince,omitempty"`
	AddressPostalCode  string      `json:"addressPostalCode,omitempty"`
	PaymentMethod      string      `json:"paymentMethod,omitempty"`
	PaymentType        string      `json:"paymentType,omitempty"`
	Items              []OrderItem `json:"items,omitempty"`
	TotalAmount        Amount      `json:"totalAmount"`
	ShippingCost       Amount      `json:"shippingCost"`
}

// Amount is a numeric payload field that may be absent, a JSON number, or a
// numeric string with grouping commas ("1,250.50"). Valid is false when the
// field is absent or cannot be read as a finite number.
type Amount struct {
	Value float64
	Valid bool
}

// Num returns a valid Amount holding v, or an invalid one when v is not finite.
func Num(v float64) Amount {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Amount{}
	}
	return Amount{Value: v, Valid: true}
}

// Get returns the value and whether it is usable.
func (a Amount) Get() (float64, bool) { return a.Value, a.Valid }

// UnmarshalJSON accepts numbers and numeric strings; anything else decodes
// to an invalid Amount rather than failing the enclosing document.
func (a *Amount) UnmarshalJSON(b []byte) error {
	*a = parseAmount(b)
	return nil
}

// MarshalJSON writes a number, or null when invalid.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(a.Value)
}

func parseAmount(raw []byte) Amount {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Amount{}
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Amount{}
		}
		s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
		if s == "" {
			return Amount{}
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Amount{}
		}
		return Num(f)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return Amount{}
	}
	return Num(f)
}

// OrderItem is one line item. Items arrive either as a bare product name
// (Bare is true) or as an object whose fields use several alias keys:
// product|shippingName|name|title, color|variant, quantity|qty|count and
// price|amount|unitPrice.
type OrderItem struct {
	Name     string
	Variant  string
	Quantity Amount
	Price    Amount
	Bare     bool
	// Ignored marks entries that are not items at all (null, numbers,
	// arrays, booleans). They still count toward the raw item count.
	Ignored bool
}

type rawOrderItem struct {
	Product      json.RawMessage `json:"product"`
	ShippingName json.RawMessage `json:"shippingName"`
	Name         json.RawMessage `json:"name"`
	Title        json.RawMessage `json:"title"`
	Color        json.RawMessage `json:"color"`
	Variant      json.RawMessage `json:"variant"`
	Quantity     json.RawMessage `json:"quantity"`
	Qty          json.RawMessage `json:"qty"`
	Count        json.RawMessage `json:"count"`
	Price        json.RawMessage `json:"price"`
	Amount       json.RawMessage `json:"amount"`
	UnitPrice    json.RawMessage `json:"unitPrice"`
}

// UnmarshalJSON decodes the bare and structured item forms.
func (it *OrderItem) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*it = OrderItem{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		it.Ignored = true
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		it.Name, it.Bare = s, true
		return nil
	}
	if b[0] != '{' {
		it.Ignored = true
		return nil
	}
	var r rawOrderItem
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	it.Name = firstText(r.Product, r.ShippingName, r.Name, r.Title)
	it.Variant = firstText(r.Color, r.Variant)
	it.Quantity = parseAmount(firstPresent(r.Quantity, r.Qty, r.Count))
	it.Price = parseAmount(firstPresent(r.Price, r.Amount, r.UnitPrice))
	return nil
}

// MarshalJSON writes the canonical form: a string for bare items, null for
// ignored entries, otherwise an object with name, color, quantity and price.
func (it OrderItem) MarshalJSON() ([]byte, error) {
	if it.Ignored {
		return []byte("null"), nil
	}
	if it.Bare {
		return json.Marshal(it.Name)
	}
	out := map[string]any{}
	if it.Name != "" {
		out["name"] = it.Name
	}
	if it.Variant != "" {
		out["color"] = it.Variant
	}
	if it.Quantity.Valid {
		out["quantity"] = it.Quantity.Value
	}
	if it.Price.Valid {
		out["price"] = it.Price.Value
	}
	return json.Marshal(out)
}

// firstText returns the first alias holding a non-empty string (or a number
// rendered as text).
func firstText(vals ...json.RawMessage) string {
	for _, v := range vals {
		v = bytes.TrimSpace(v)
		if len(v) == 0 {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			if s != "" {
				return s
			}
			continue
		}
		var f json.Number
		if err := json.Unmarshal(v, &f); err == nil && f != "" {
			return f.String()
		}
	}
	return ""
}

// firstPresent returns the first alias that is present and not null.
func firstPresent(vals ...json.RawMessage) json.RawMessage {
	for _, v := range vals {
		t := bytes.TrimSpace(v)
		if len(t) == 0 || bytes.Equal(t, []byte("null")) {
			continue
		}
		return t
	}
	return nil
}
