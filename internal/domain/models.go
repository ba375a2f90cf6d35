// Package domain defines the persistence models for orders, notification
// channels, delivery audit logs, short links, and chat history. These types
// are mapped with GORM and form the core data layer of the order notifier.
package domain

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// EventType names a notification event a channel can subscribe to.
type EventType string

const (
	EventNewOrder     EventType = "new_order"
	EventOrderSummary EventType = "order_summary"
	EventTest         EventType = "test"
)

// DeliveryStatus is the outcome recorded for one delivery attempt.
type DeliveryStatus string

const (
	StatusSuccess DeliveryStatus = "success"
	StatusFailed  DeliveryStatus = "failed"
)

// ChannelType selects the messaging platform a channel delivers to.
type ChannelType string

const (
	ChannelLineGroup     ChannelType = "line_group"
	ChannelTelegramGroup ChannelType = "telegram_group"
)

// DeliveryMode controls whether a channel receives events as they happen or
// only through scheduled summaries.
type DeliveryMode string

const (
	DeliveryImmediate DeliveryMode = "immediate"
	DeliveryScheduled DeliveryMode = "scheduled"
)

// Order is a customer order extracted from a chat conversation. Orders are
// owned by the order-management subsystem and are only read by the notifier.
//
// Fields:
//   - ID: opaque identifier (primary key).
//   - UserID: the customer's chat identity; indexed for dedup and chat links.
//   - Platform: the chat platform the order came from (line or facebook).
//   - BotID: the bot that captured the order; used for source matching.
//   - FacebookName / SenderName: display names captured from the chat.
//   - OrderData: nested payload (recipient, items, totals) stored as JSON.
//   - ExtractedAt: when the order was extracted; summary windows select on it.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Order struct {
	ID           string     `json:"id"            gorm:"type:varchar(64);primaryKey"`
	UserID       string     `json:"user_id"       gorm:"type:varchar(128);index:idx_orders_user"`
	Platform     Platform   `json:"platform"      gorm:"type:varchar(16);not null;default:'line';index:idx_orders_source,priority:1"`
	BotID        string     `json:"bot_id"        gorm:"type:varchar(64);index:idx_orders_source,priority:2"`
	FacebookName string     `json:"facebook_name" gorm:"type:varchar(255)"`
	SenderName   string     `json:"sender_name"   gorm:"type:varchar(255)"`
	Status       string     `json:"status"        gorm:"type:varchar(32)"`
	OrderData    OrderData  `json:"order_data"    gorm:"type:text;serializer:json"`
	ExtractedAt  *time.Time `json:"extracted_at"  gorm:"index:idx_orders_extracted"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "orders" }

// BeforeSave stores ExtractedAt in UTC. SQLite compares timestamps as text,
// so window queries need a single offset.
func (o *Order) BeforeSave(*gorm.DB) error {
	if o.ExtractedAt != nil {
		t := o.ExtractedAt.UTC()
		o.ExtractedAt = &t
	}
	return nil
}

// Timestamp returns the first non-zero of ExtractedAt, CreatedAt and
// UpdatedAt, or the zero time when none is set.
func (o Order) Timestamp() time.Time {
	if o.ExtractedAt != nil && !o.ExtractedAt.IsZero() {
		return *o.ExtractedAt
	}
	if !o.CreatedAt.IsZero() {
		return o.CreatedAt
	}
	return o.UpdatedAt
}

// NotificationChannel is a configured delivery destination (a group chat on
// a messaging platform) subscribed to one or more event types.
//
// Fields:
//   - IsActive: inactive channels never receive anything.
//   - DeliveryMode: scheduled channels are skipped for new-order events.
//   - EventTypes: subscribed events (JSON list).
//   - ReceiveFromAllBots / Sources: source restriction for orders.
//   - SenderBotID: the bot used to deliver messages (see SenderBot).
//   - GroupID: the delivery target on the platform.
//   - Settings: inclusion toggles for message content.
//   - SummaryTimezone / SummaryTimes: scheduled summary slots ("HH:MM").
type NotificationChannel struct {
	ID                 string          `json:"id"                    gorm:"type:varchar(64);primaryKey"`
	Name               string          `json:"name"                  gorm:"type:varchar(255)"`
	Type               ChannelType     `json:"type"                  gorm:"type:varchar(32);not null;default:'line_group'"`
	IsActive           bool            `json:"is_active"             gorm:"not null;index"`
	DeliveryMode       DeliveryMode    `json:"delivery_mode"         gorm:"type:varchar(16);not null;default:'immediate'"`
	EventTypes         []EventType     `json:"event_types"           gorm:"type:text;serializer:json"`
	ReceiveFromAllBots bool            `json:"receive_from_all_bots" gorm:"not null"`
	Sources            []ChannelSource `json:"sources"               gorm:"type:text;serializer:json"`
	SenderBotID        string          `json:"sender_bot_id"         gorm:"type:varchar(64)"`
	GroupID            string          `json:"group_id"              gorm:"type:varchar(128)"`
	Settings           ChannelSettings `json:"settings"              gorm:"type:text;serializer:json"`
	SummaryTimezone    string          `json:"summary_timezone"      gorm:"type:varchar(64)"`
	SummaryTimes       []string        `json:"summary_times"         gorm:"type:text;serializer:json"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// TableName returns the database table name for NotificationChannel.
func (NotificationChannel) TableName() string { return "notification_channels" }

// Subscribes reports whether the channel subscribes to ev.
func (c NotificationChannel) Subscribes(ev EventType) bool {
	for _, e := range c.EventTypes {
		if e == ev {
			return true
		}
	}
	return false
}

// IsScheduled reports whether the channel only receives scheduled summaries.
// The comparison is case-insensitive.
func (c NotificationChannel) IsScheduled() bool {
	return strings.EqualFold(strings.TrimSpace(string(c.DeliveryMode)), string(DeliveryScheduled))
}

// Sender returns the sending bot identity, trimmed.
func (c NotificationChannel) Sender() string { return strings.TrimSpace(c.SenderBotID) }

// Platform is the messaging platform the channel type delivers on. An unset
// type is a LINE group.
func (c NotificationChannel) Platform() BotPlatform {
	if c.Type == ChannelTelegramGroup {
		return BotTelegram
	}
	return BotLine
}

// Target returns the delivery target identity, trimmed.
func (c NotificationChannel) Target() string { return strings.TrimSpace(c.GroupID) }

// ChannelSource is one (platform, bot) pair a channel accepts orders from.
type ChannelSource struct {
	Platform Platform `json:"platform"`
	BotID    string   `json:"botId"`
}

// NotificationLog is an append-only audit entry; exactly one is written per
// delivery attempt (per channel for new orders, per summary, per test).
type NotificationLog struct {
	ID           string         `json:"id"                      gorm:"type:char(36);primaryKey"`
	ChannelID    *string        `json:"channel_id,omitempty"    gorm:"type:varchar(64);index:idx_logs_channel,priority:1"`
	OrderID      *string        `json:"order_id,omitempty"      gorm:"type:varchar(64);index"`
	EventType    EventType      `json:"event_type"              gorm:"type:varchar(32);not null;index"`
	Status       DeliveryStatus `json:"status"                  gorm:"type:varchar(16);not null;check:status IN ('success','failed')"`
	ErrorMessage *string        `json:"error_message,omitempty" gorm:"type:text"`
	Response     *string        `json:"response,omitempty"      gorm:"type:text"`
	CreatedAt    time.Time      `json:"created_at"              gorm:"index:idx_logs_channel,priority:2"`
}

// TableName returns the database table name for NotificationLog.
func (NotificationLog) TableName() string { return "notification_logs" }

// ShortLink maps a compact code to a long target URL. The target URL carries
// a unique index so concurrent first-time writers converge on one code.
type ShortLink struct {
	Code      string     `json:"code"                 gorm:"type:varchar(20);primaryKey"`
	TargetURL string     `json:"target_url"           gorm:"type:text;not null;uniqueIndex:ux_short_links_target"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" gorm:"index"`
}

// TableName returns the database table name for ShortLink.
func (ShortLink) TableName() string { return "short_links" }

// Expired reports whether the link has an expiry at or before now.
func (s ShortLink) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !s.ExpiresAt.After(now)
}

// SenderBot holds the credentials of a bot that can push notifications.
type SenderBot struct {
	ID                  string      `json:"id"                   gorm:"type:varchar(64);primaryKey"`
	Name                string      `json:"name"                 gorm:"type:varchar(255)"`
	Platform            BotPlatform `json:"platform"             gorm:"type:varchar(16);not null;default:'line'"`
	ChannelAccessToken  string      `json:"-"                    gorm:"type:text"`
	ChannelSecret       string      `json:"-"                    gorm:"type:text"`
	NotificationEnabled *bool       `json:"notification_enabled" gorm:"default:null"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// TableName returns the database table name for SenderBot.
func (SenderBot) TableName() string { return "sender_bots" }

// NotificationsDisabled reports whether the bot was explicitly opted out.
func (b SenderBot) NotificationsDisabled() bool {
	return b.NotificationEnabled != nil && !*b.NotificationEnabled
}

// BotPlatform is the messaging platform a SenderBot talks to.
type BotPlatform string

const (
	BotLine     BotPlatform = "line"
	BotTelegram BotPlatform = "telegram"
)

// ChatMessage is one stored chat turn. Customer turns may embed images that
// are attached to order notifications.
//
// SenderID is the customer identity used for lookups; older rows only carry
// UserID and are backfilled by the chat history migration.
type ChatMessage struct {
	ID        string    `json:"id"         gorm:"type:varchar(64);primaryKey"`
	SenderID  string    `json:"sender_id"  gorm:"type:varchar(128);index:idx_chat_sender_ts,priority:1"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(128)"`
	Role      string    `json:"role"       gorm:"type:varchar(16);not null"`
	Content   string    `json:"content"    gorm:"type:text"`
	OrderID   *string   `json:"order_id"   gorm:"type:varchar(64);index"`
	Timestamp time.Time `json:"timestamp"  gorm:"index:idx_chat_sender_ts,priority:2"`
}

// TableName returns the database table name for ChatMessage.
func (ChatMessage) TableName() string { return "chat_history" }

// BeforeSave stores Timestamp in UTC for text-ordered range queries.
func (m *ChatMessage) BeforeSave(*gorm.DB) error {
	m.Timestamp = m.Timestamp.UTC()
	return nil
}

// MigrationLog records completion of a one-off data migration.
type MigrationLog struct {
	Migration     string    `gorm:"type:varchar(128);primaryKey"`
	Completed     bool      `gorm:"not null"`
	CompletedAt   time.Time `gorm:"not null"`
	MatchedCount  int64
	ModifiedCount int64
}

// TableName returns the database table name for MigrationLog.
func (MigrationLog) TableName() string { return "migration_logs" }
