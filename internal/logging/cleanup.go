package logging

import (
	"log/slog"
	"time"

	"github.com/example/bazaar/internal/models"
	"gorm.io/gorm"
)

const (
	logRetention  = 30 * 24 * time.Hour
	pruneInterval = 24 * time.Hour
)

// StartCleanup prunes system_logs past the retention window once a day
// until done is closed.
func StartCleanup(db *gorm.DB, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(pruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
			}
			res := db.Where("timestamp < ?", time.Now().Add(-logRetention)).Delete(&models.SystemLog{})
			switch {
			case res.Error != nil:
				slog.Error("system log pruning failed", "error", res.Error)
			case res.RowsAffected > 0:
				slog.Info("pruned system logs", "rows", res.RowsAffected)
			}
		}
	}()
}
