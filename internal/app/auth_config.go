package app

import (
	"strings"
	"time"

	"github.com/pirouette/studio/internal/auth"
)

const defaultAuditRetentionDays = 90

// StoreConfig converts AuthConfig into SessionStore parameters.
func (c AuthConfig) StoreConfig() auth.StoreConfig {
	length := c.Session.IDLength
	if length <= 0 {
		length = auth.DefaultSessionIDLength
	}
	return auth.StoreConfig{IDLength: length}
}

// LifecycleConfig converts AuthConfig into Lifecycle parameters. The audit
// sink is wired by the caller.
func (c AuthConfig) LifecycleConfig(sink auth.AuditSink) auth.LifecycleConfig {
	ttl := c.Session.TTL
	if ttl <= 0 {
		ttl = auth.DefaultSessionTTL
	}

	retention := c.Session.Retention
	if retention <= 0 {
		retention = auth.DefaultRetention
	}

	return auth.LifecycleConfig{
		SessionTTL: ttl,
		Retention:  retention,
		Audit:      sink,
	}
}

// AuditRetention returns how long audit rows are kept.
func (c AuthConfig) AuditRetention() time.Duration {
	days := c.AuditRetentionDays
	if days <= 0 {
		days = defaultAuditRetentionDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// CookieSecure reports whether session cookies carry the Secure attribute.
func (c Config) CookieSecure() bool {
	if c.Auth.Cookies.Secure != nil {
		return *c.Auth.Cookies.Secure
	}
	return c.Server.IsProduction()
}

// MaintenanceBearer returns the trimmed bearer token guarding maintenance routes.
func (c AuthConfig) MaintenanceBearer() string {
	return strings.TrimSpace(c.MaintenanceToken)
}
