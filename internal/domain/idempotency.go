package domain

import "time"

// Idempotency records the outcome of an admin-triggered delivery keyed by
// (actor_id, resource_id, key). A replayed request with the same key gets the
// stored response instead of sending the notification again.
type Idempotency struct {
	ID         string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	ActorID    string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_actor_resource_key,priority:1"`
	ResourceID string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_actor_resource_key,priority:2"`
	Key        string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_actor_resource_key,priority:3"`
	Status     int       `gorm:"type:INTEGER NOT NULL"`
	Response   string    `gorm:"type:TEXT NOT NULL"`
	CreatedAt  time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt  time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
