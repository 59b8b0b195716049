package checks

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/pirouette/studio/internal/database"
	"github.com/pirouette/studio/internal/monitoring"
)

const defaultDatabaseTimeout = 2 * time.Second

// Database reports the session database as down when it cannot be pinged within timeout.
func Database(db *gorm.DB, timeout time.Duration) monitoring.Check {
	timeout = chooseTimeout(timeout, defaultDatabaseTimeout)

	return monitoring.NewCheck("database", func(ctx context.Context) monitoring.ProbeResult {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		start := time.Now()
		err := database.Ping(ctx, db)
		return monitoring.ResultFromError("database", err, time.Since(start))
	})
}

func chooseTimeout(provided, fallback time.Duration) time.Duration {
	if provided <= 0 {
		return fallback
	}
	return provided
}
