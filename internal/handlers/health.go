package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pirouette/studio/internal/monitoring"
	"github.com/pirouette/studio/pkg/logger"
)

// Health evaluates the dependency probes. Only a down dependency fails the probe;
// a degraded cache still answers 200.
func Health(manager *monitoring.HealthManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := manager.Evaluate(c.Request.Context())

		status := http.StatusOK
		if report.Status == monitoring.StatusDown {
			status = http.StatusServiceUnavailable
			logger.WithModule("health").Warn("health probe failed", zap.Any("checks", report.Checks))
		}
		c.JSON(status, report)
	}
}
