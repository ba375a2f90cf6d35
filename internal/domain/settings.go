package domain

// ChannelSettings enumerates every content toggle a channel recognizes.
// A nil toggle means "on"; only an explicit false hides the related line.
type ChannelSettings struct {
	IncludeCustomer      *bool `json:"includeCustomer,omitempty"`
	IncludeItemsCount    *bool `json:"includeItemsCount,omitempty"`
	IncludeItemsDetail   *bool `json:"includeItemsDetail,omitempty"`
	IncludeTotalAmount   *bool `json:"includeTotalAmount,omitempty"`
	IncludeAddress       *bool `json:"includeAddress,omitempty"`
	IncludePhone         *bool `json:"includePhone,omitempty"`
	IncludePaymentMethod *bool `json:"includePaymentMethod,omitempty"`
	IncludeChatLink      *bool `json:"includeChatLink,omitempty"`
	IncludeOrderLink     *bool `json:"includeOrderLink,omitempty"`
	IncludeFacebookName  *bool `json:"includeFacebookName,omitempty"`
}

// Toggles is the resolved form of ChannelSettings.
type Toggles struct {
	Customer      bool
	ItemsCount    bool
	ItemsDetail   bool
	TotalAmount   bool
	Address       bool
	Phone         bool
	PaymentMethod bool
	ChatLink      bool
	OrderLink     bool
	FacebookName  bool
}

// Resolve applies the default-on rule to every toggle.
func (s ChannelSettings) Resolve() Toggles {
	on := func(b *bool) bool { return b == nil || *b }
	return Toggles{
		Customer:      on(s.IncludeCustomer),
		ItemsCount:    on(s.IncludeItemsCount),
		ItemsDetail:   on(s.IncludeItemsDetail),
		TotalAmount:   on(s.IncludeTotalAmount),
		Address:       on(s.IncludeAddress),
		Phone:         on(s.IncludePhone),
		PaymentMethod: on(s.IncludePaymentMethod),
		ChatLink:      on(s.IncludeChatLink),
		OrderLink:     on(s.IncludeOrderLink),
		FacebookName:  on(s.IncludeFacebookName),
	}
}
