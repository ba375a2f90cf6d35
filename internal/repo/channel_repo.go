// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for notification
// channels and the sender bots they deliver through.
//
// Channels and bots are external configuration: the notifier reads them and
// never mutates them during delivery.
package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/order-notifier/internal/domain"
)

// CreateChannel inserts a channel, assigning a UUID when the ID is empty.
func CreateChannel(ctx context.Context, db *gorm.DB, ch *domain.NotificationChannel) error {
	if ch.ID == "" {
		ch.ID = uuid.NewString()
	}
	return db.WithContext(ctx).Create(ch).Error
}

// GetChannel fetches a channel by ID, or ErrNotFound.
func GetChannel(ctx context.Context, db *gorm.DB, id string) (*domain.NotificationChannel, error) {
	var ch domain.NotificationChannel
	if err := db.WithContext(ctx).Where("id = ?", id).First(&ch).Error; err != nil {
		return nil, err
	}
	return &ch, nil
}

// ListActiveChannels returns every active channel ordered by creation time.
// Event-type filtering happens in the caller because event types are
// stored as a JSON list.
func ListActiveChannels(ctx context.Context, db *gorm.DB) ([]domain.NotificationChannel, error) {
	var out []domain.NotificationChannel
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at asc").
		Order("id asc").
		Find(&out).Error
	return out, err
}

// CreateSenderBot inserts a bot, assigning a UUID when the ID is empty.
func CreateSenderBot(ctx context.Context, db *gorm.DB, b *domain.SenderBot) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return db.WithContext(ctx).Create(b).Error
}

// GetSenderBot fetches a sender bot by ID, or ErrNotFound.
func GetSenderBot(ctx context.Context, db *gorm.DB, id string) (*domain.SenderBot, error) {
	var b domain.SenderBot
	if err := db.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}
