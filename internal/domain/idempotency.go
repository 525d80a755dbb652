package domain

import "time"

// Idempotency represents a recorded result of a previously processed create
// request, keyed by (user_id, scope, key). Scope names the collection the
// request targeted (e.g. "cars" or "cars/<id>/maintenance"). A retry with the
// same key replays the originally created resource instead of creating a
// second one.
type Idempotency struct {
	ID         string    `gorm:"type:varchar(64);primaryKey"`
	UserID     string    `gorm:"type:varchar(255);not null;uniqueIndex:ux_user_scope_key,priority:1"`
	Scope      string    `gorm:"type:varchar(255);not null;uniqueIndex:ux_user_scope_key,priority:2"`
	Key        string    `gorm:"type:varchar(255);not null;uniqueIndex:ux_user_scope_key,priority:3"`
	ResourceID string    `gorm:"type:varchar(64);not null"`
	Status     int       `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt  time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
