// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides chat history lookups used to attach
// customer images to order notifications.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/order-notifier/internal/domain"
)

const roleUser = "user"

// ImageQuery selects customer chat turns that may carry order images.
//
// When OrderID is set, rows linked to that order match, as do unlinked rows
// inside [DayStart, DayEnd). Without OrderID only the day range applies.
type ImageQuery struct {
	SenderID string
	OrderID  string
	DayStart time.Time
	DayEnd   time.Time
}

// ListImageCandidates returns user-role chat turns matching q, ordered by
// timestamp ascending.
func ListImageCandidates(ctx context.Context, db *gorm.DB, q ImageQuery) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	tx := db.WithContext(ctx).
		Select("id", "content", "timestamp").
		Where("sender_id = ? AND role = ?", q.SenderID, roleUser)

	start, end := q.DayStart.UTC(), q.DayEnd.UTC()
	if q.OrderID != "" {
		tx = tx.Where(
			db.Where("order_id = ?", q.OrderID).
				Or("(timestamp >= ? AND timestamp < ? AND order_id IS NULL)", start, end),
		)
	} else {
		tx = tx.Where("timestamp >= ? AND timestamp < ?", start, end)
	}

	err := tx.Order("timestamp asc").Order("id asc").Find(&out).Error
	return out, err
}

// GetChatMessage fetches one chat turn by ID, or ErrNotFound.
func GetChatMessage(ctx context.Context, db *gorm.DB, id string) (*domain.ChatMessage, error) {
	var m domain.ChatMessage
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}
