package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// ApplyRuntimeDefaults normalises values that viper cannot express as plain
// defaults and rejects combinations the server cannot run with. It returns the
// keys it changed so callers can log them.
func ApplyRuntimeDefaults(cfg *Config) ([]string, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	var adjusted []string

	env := strings.ToLower(strings.TrimSpace(cfg.Server.Environment))
	if env == "" {
		env = "development"
	}
	if env != cfg.Server.Environment {
		cfg.Server.Environment = env
		adjusted = append(adjusted, "server.environment")
	}

	if cfg.Auth.Cookies.Secure == nil {
		secure := cfg.Server.IsProduction()
		cfg.Auth.Cookies.Secure = &secure
		adjusted = append(adjusted, "auth.cookies.secure")
	}

	if cfg.Server.RateLimit.Requests > 0 && cfg.Server.RateLimit.Window <= 0 {
		cfg.Server.RateLimit.Window = time.Minute
		adjusted = append(adjusted, "server.rate_limit.window")
	}

	if cfg.Maintenance.Enabled {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		for key, spec := range map[string]string{
			"maintenance.session_schedule": cfg.Maintenance.SessionSchedule,
			"maintenance.audit_schedule":   cfg.Maintenance.AuditSchedule,
		} {
			if strings.TrimSpace(spec) == "" {
				continue
			}
			if _, err := parser.Parse(spec); err != nil {
				return nil, fmt.Errorf("config: %s: %w", key, err)
			}
		}
	}

	if cfg.Server.IsProduction() && !*cfg.Auth.Cookies.Secure {
		return adjusted, fmt.Errorf("config: auth.cookies.secure cannot be disabled in production")
	}

	return adjusted, nil
}
