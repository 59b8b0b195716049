package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestApplyRuntimeDefaultsDerivesCookieSecurity(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Environment: " Production "}}

	adjusted, err := ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	require.Equal(t, "production", cfg.Server.Environment)
	require.NotNil(t, cfg.Auth.Cookies.Secure)
	require.True(t, *cfg.Auth.Cookies.Secure)
	require.ElementsMatch(t, []string{"server.environment", "auth.cookies.secure"}, adjusted)
}

func TestApplyRuntimeDefaultsDevelopment(t *testing.T) {
	cfg := &Config{Server: ServerConfig{RateLimit: RateLimitConfig{Requests: 10}}}

	_, err := ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	require.Equal(t, "development", cfg.Server.Environment)
	require.False(t, *cfg.Auth.Cookies.Secure)
	require.Equal(t, time.Minute, cfg.Server.RateLimit.Window)
}

func TestApplyRuntimeDefaultsRejectsInsecureProductionCookies(t *testing.T) {
	insecure := false
	cfg := &Config{
		Server: ServerConfig{Environment: "production"},
		Auth:   AuthConfig{Cookies: CookieSettings{Secure: &insecure}},
	}

	_, err := ApplyRuntimeDefaults(cfg)
	require.Error(t, err)
}

func TestApplyRuntimeDefaultsValidatesSchedules(t *testing.T) {
	cfg := &Config{Maintenance: MaintenanceConfig{Enabled: true, SessionSchedule: "every tuesday"}}

	_, err := ApplyRuntimeDefaults(cfg)
	require.ErrorContains(t, err, "maintenance.session_schedule")

	cfg.Maintenance.SessionSchedule = "@every 5m"
	_, err = ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
}

func TestApplyRuntimeDefaultsNilConfig(t *testing.T) {
	_, err := ApplyRuntimeDefaults(nil)
	require.Error(t, err)
}
