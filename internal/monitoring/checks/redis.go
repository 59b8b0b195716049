package checks

import (
	"context"
	"time"

	"github.com/pirouette/studio/internal/monitoring"
)

const defaultRedisTimeout = 2 * time.Second

// Pinger is satisfied by the Redis-backed rate-limit store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Redis returns a probe for the shared rate-limit cache. An unreachable cache
// reports degraded, never down.
func Redis(client Pinger, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("redis", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if client == nil {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusUp,
				Details:  "redis disabled",
				Duration: time.Since(start),
			}
		}

		probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout, defaultRedisTimeout))
		defer cancel()

		if err := client.Ping(probeCtx); err != nil {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusDegraded,
				Details:  err.Error(),
				Duration: time.Since(start),
			}
		}
		return monitoring.ProbeResult{Status: monitoring.StatusUp, Duration: time.Since(start)}
	})
}
