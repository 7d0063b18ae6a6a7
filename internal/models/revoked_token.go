package models

import (
	"time"

	"github.com/google/uuid"
)

// RevokedToken blacklists a session token by its jti claim. Rows become
// irrelevant once the token itself expires and are purged by the sweep.
type RevokedToken struct {
	JTI       uuid.UUID `gorm:"type:uuid;primaryKey" json:"jti"`
	UserID    uint      `gorm:"index" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
