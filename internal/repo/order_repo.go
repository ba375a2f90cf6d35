// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides read access to orders.
//
// Orders are owned by the order-management subsystem; the notifier only
// reads them. CreateOrder exists for ingestion tooling and tests.
//
// Functions:
//
//   - GetOrder(ctx, db, id) -> *domain.Order, error
//     Fetches one order, or ErrNotFound.
//
//   - ListOrdersInWindow(ctx, db, start, end, sources) -> []domain.Order, error
//     Returns orders whose extracted_at falls in [start, end), ascending,
//     optionally restricted to a set of (platform, bot) sources.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/order-notifier/internal/domain"
)

// CreateOrder inserts o, assigning a UUID when the ID is empty.
func CreateOrder(ctx context.Context, db *gorm.DB, o *domain.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return db.WithContext(ctx).Create(o).Error
}

// GetOrder fetches a single order by ID. If the record does not exist, it
// returns ErrNotFound.
func GetOrder(ctx context.Context, db *gorm.DB, id string) (*domain.Order, error) {
	var o domain.Order
	if err := db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrdersInWindow returns orders extracted within the half-open window
// [start, end), ordered by extraction time ascending. A nil sources slice
// means "all bots"; an empty non-nil slice matches nothing.
func ListOrdersInWindow(ctx context.Context, db *gorm.DB, start, end time.Time, sources []domain.ChannelSource) ([]domain.Order, error) {
	out := []domain.Order{}
	if sources != nil && len(sources) == 0 {
		return out, nil
	}

	q := db.WithContext(ctx).
		Where("extracted_at >= ? AND extracted_at < ?", start.UTC(), end.UTC())

	if sources != nil {
		var cond *gorm.DB
		for i, s := range sources {
			if i == 0 {
				cond = db.Where("(platform = ? AND bot_id = ?)", string(s.Platform), s.BotID)
				continue
			}
			cond = cond.Or("(platform = ? AND bot_id = ?)", string(s.Platform), s.BotID)
		}
		q = q.Where(cond)
	}

	err := q.Order("extracted_at asc").Order("id asc").Find(&out).Error
	return out, err
}
