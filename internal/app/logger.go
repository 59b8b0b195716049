package app

import (
	"strings"

	"github.com/pirouette/studio/pkg/logger"
)

// ConfigureLogging initialises the global logger for service at level,
// defaulting to info. The development environment uses the console encoder.
func ConfigureLogging(service, level, environment string) error {
	level = strings.TrimSpace(level)
	if level == "" {
		level = "info"
	}
	return logger.InitWithOptions(logger.Options{
		Level:       level,
		Development: strings.EqualFold(strings.TrimSpace(environment), "development"),
		Service:     service,
	})
}
