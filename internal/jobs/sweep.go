// Package jobs runs the recurring maintenance sweep: verification-code
// expiry, revoked-token purging and retired guest cleanup.
package jobs

import (
	"log/slog"
	"time"

	"github.com/example/bazaar/internal/config"
	"github.com/example/bazaar/internal/models"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Sweeper owns the minutely maintenance pass.
type Sweeper struct {
	db  *gorm.DB
	ttl time.Duration
}

func NewSweeper(db *gorm.DB, cfg *config.Config) *Sweeper {
	return &Sweeper{db: db, ttl: cfg.OTPExpiry}
}

// Start schedules the sweep every minute and returns the scheduler so the
// caller can stop it on shutdown.
func (s *Sweeper) Start() *cron.Cron {
	c := cron.New()
	if _, err := c.AddFunc("@every 1m", s.Run); err != nil {
		slog.Error("failed to schedule sweep", "error", err)
		return c
	}
	c.Start()
	slog.Info("maintenance sweep scheduled", "interval", "1m")
	return c
}

// Run executes one sweep pass. Each step is independent; a failing step is
// logged and the rest still run.
func (s *Sweeper) Run() {
	now := time.Now()

	// Codes past their TTL stop being redeemable.
	result := s.db.Model(&models.VerificationCode{}).
		Where("status = ? AND created_at <= ?", models.StatusActive, now.Add(-s.ttl)).
		Update("status", models.StatusInactive)
	if result.Error != nil {
		slog.Error("sweep: expiring verification codes failed", "error", result.Error)
	} else if result.RowsAffected > 0 {
		slog.Info("sweep: verification codes expired", "count", result.RowsAffected)
	}

	// Retired codes linger one more TTL for diagnostics, then go away.
	// updated_at marks the moment a code went INACTIVE.
	result = s.db.Where("status = ? AND updated_at <= ?", models.StatusInactive, now.Add(-s.ttl)).
		Delete(&models.VerificationCode{})
	if result.Error != nil {
		slog.Error("sweep: deleting verification codes failed", "error", result.Error)
	} else if result.RowsAffected > 0 {
		slog.Info("sweep: verification codes deleted", "count", result.RowsAffected)
	}

	// Blacklist entries for tokens that have expired on their own.
	result = s.db.Where("expires_at <= ?", now).Delete(&models.RevokedToken{})
	if result.Error != nil {
		slog.Error("sweep: purging revoked tokens failed", "error", result.Error)
	} else if result.RowsAffected > 0 {
		slog.Info("sweep: revoked tokens purged", "count", result.RowsAffected)
	}

	// Signed-out guest accounts with nothing linked are gone for good.
	result = s.db.Unscoped().
		Where("deleted_at IS NOT NULL AND guest IS NOT NULL AND email IS NULL AND phone IS NULL").
		Delete(&models.User{})
	if result.Error != nil {
		slog.Error("sweep: removing retired guests failed", "error", result.Error)
	} else if result.RowsAffected > 0 {
		slog.Info("sweep: retired guests removed", "count", result.RowsAffected)
	}
}
