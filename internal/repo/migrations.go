// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file holds one-off data migrations and their
// completion bookkeeping in migration_logs.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/order-notifier/internal/domain"
)

// ChatHistorySenderIDMigration names the sender_id backfill in migration_logs.
const ChatHistorySenderIDMigration = "chat_history_sender_id_backfill"

// chatHistoryIndexes are ensured after the backfill.
var chatHistoryIndexes = []string{"idx_chat_sender_ts", "idx_chat_history_order_id"}

// MigrationResult describes one migration run. IndexFailures lists indexes
// that could not be created; the run still counts as complete.
type MigrationResult struct {
	Skipped       bool
	Matched       int64
	Modified      int64
	IndexFailures []string
}

// MigrateChatHistorySenderID copies user_id into sender_id for chat turns
// that predate the sender_id column, then ensures the lookup indexes exist.
//
// A completed run is skipped unless force is set.
func MigrateChatHistorySenderID(ctx context.Context, db *gorm.DB, force bool) (MigrationResult, error) {
	var res MigrationResult
	tx := db.WithContext(ctx)

	if !force {
		var prev domain.MigrationLog
		err := tx.Where("migration = ?", ChatHistorySenderIDMigration).First(&prev).Error
		switch {
		case err == nil && prev.Completed:
			res.Skipped = true
			return res, nil
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return res, err
		}
	}

	missing := "(sender_id IS NULL OR sender_id = '') AND user_id IS NOT NULL AND user_id <> ''"
	if err := tx.Model(&domain.ChatMessage{}).Where(missing).Count(&res.Matched).Error; err != nil {
		return res, err
	}

	upd := tx.Model(&domain.ChatMessage{}).Where(missing).Update("sender_id", gorm.Expr("user_id"))
	if upd.Error != nil {
		return res, upd.Error
	}
	res.Modified = upd.RowsAffected

	m := tx.Migrator()
	for _, idx := range chatHistoryIndexes {
		if m.HasIndex(&domain.ChatMessage{}, idx) {
			continue
		}
		if err := m.CreateIndex(&domain.ChatMessage{}, idx); err != nil {
			log.Warn().Err(err).Str("index", idx).Msg("chat_history index not created")
			res.IndexFailures = append(res.IndexFailures, idx)
		}
	}

	entry := domain.MigrationLog{
		Migration:     ChatHistorySenderIDMigration,
		Completed:     true,
		CompletedAt:   time.Now().UTC(),
		MatchedCount:  res.Matched,
		ModifiedCount: res.Modified,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "migration"}},
		DoUpdates: clause.AssignmentColumns([]string{"completed", "completed_at", "matched_count", "modified_count"}),
	}).Create(&entry).Error
	return res, err
}
