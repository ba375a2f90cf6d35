// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the append-only notification audit log.
//
// Functions:
//
//   - CreateNotificationLog(ctx, db, entry) -> error
//     Appends one entry; ID and CreatedAt are filled when empty.
//
//   - CountNotificationLogs / ListNotificationLogsPage(ctx, db, filter, ...)
//     Paginated, newest-first listing for the admin API.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/order-notifier/internal/domain"
)

// LogFilter narrows log listings. Empty fields do not filter.
type LogFilter struct {
	ChannelID string
	OrderID   string
	EventType domain.EventType
	Status    domain.DeliveryStatus
}

func (f LogFilter) apply(q *gorm.DB) *gorm.DB {
	if f.ChannelID != "" {
		q = q.Where("channel_id = ?", f.ChannelID)
	}
	if f.OrderID != "" {
		q = q.Where("order_id = ?", f.OrderID)
	}
	if f.EventType != "" {
		q = q.Where("event_type = ?", string(f.EventType))
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	return q
}

// CreateNotificationLog appends entry to the audit log.
func CreateNotificationLog(ctx context.Context, db *gorm.DB, entry *domain.NotificationLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(entry).Error
}

// CountNotificationLogs returns the number of entries matching f.
func CountNotificationLogs(ctx context.Context, db *gorm.DB, f LogFilter) (int64, error) {
	var total int64
	err := f.apply(db.WithContext(ctx).Model(&domain.NotificationLog{})).Count(&total).Error
	return total, err
}

// ListNotificationLogsPage returns a page of entries matching f, newest first.
func ListNotificationLogsPage(ctx context.Context, db *gorm.DB, f LogFilter, offset, limit int) ([]domain.NotificationLog, error) {
	var out []domain.NotificationLog
	err := f.apply(db.WithContext(ctx)).
		Order("created_at desc").
		Order("id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
