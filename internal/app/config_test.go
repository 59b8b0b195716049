package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pirouette/studio/internal/auth"
	"github.com/pirouette/studio/internal/cache"
	"github.com/pirouette/studio/internal/database"
)

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig("testdata")
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.True(t, cfg.Server.IsProduction())
	require.True(t, cfg.Server.CSRF.Enabled)
	require.Equal(t, 20, cfg.Server.RateLimit.Requests)
	require.Equal(t, 30*time.Second, cfg.Server.RateLimit.Window)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.True(t, cfg.Database.Postgres.Enabled)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)
	require.Equal(t, map[string]string{"sslmode": "require"}, cfg.Database.Options)
	require.Equal(t, 15, cfg.Database.MaxOpenConns)
	require.Equal(t, 10*time.Minute, cfg.Database.ConnMaxLifetime)

	require.True(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, "redis.example.com:6380", cfg.Cache.Redis.Address)
	require.Equal(t, 2, cfg.Cache.Redis.DB)
	require.Equal(t, 2*time.Second, cfg.Cache.Redis.Timeout)

	require.Equal(t, 12*time.Hour, cfg.Auth.Session.TTL)
	require.Equal(t, 240*time.Hour, cfg.Auth.Session.Retention)
	require.Equal(t, 32, cfg.Auth.Session.IDLength)
	require.NotNil(t, cfg.Auth.Cookies.Secure)
	require.True(t, *cfg.Auth.Cookies.Secure)
	require.Equal(t, "studio.example.com", cfg.Auth.Cookies.Domain)
	require.Equal(t, "cron-token", cfg.Auth.MaintenanceToken)
	require.Equal(t, 30, cfg.Auth.AuditRetentionDays)

	require.True(t, cfg.Maintenance.Enabled)
	require.Equal(t, "*/15 * * * *", cfg.Maintenance.SessionSchedule)
	require.Equal(t, "@weekly", cfg.Maintenance.AuditSchedule)

	require.False(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/internal/metrics", cfg.Monitoring.Prometheus.Endpoint)
}

func TestLoadConfigFromPath(t *testing.T) {
	_, err := LoadConfigFrom(filepath.Join(t.TempDir(), "missing"))
	require.ErrorContains(t, err, "does not exist")

	cfg, err := LoadConfigFrom("testdata")
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)

	dir := t.TempDir()
	file := filepath.Join(dir, "studio.yaml")
	require.NoError(t, writeFile(dir, "studio.yaml", "server:\n  port: 7070\n"))
	cfg, err = LoadConfigFrom(file)
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "development", cfg.Server.Environment)
	require.False(t, cfg.Server.CSRF.Enabled)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "./data/studio.sqlite", cfg.Database.Path)
	require.Equal(t, 24*time.Hour, cfg.Auth.Session.TTL)
	require.Equal(t, 720*time.Hour, cfg.Auth.Session.Retention)
	require.Equal(t, 48, cfg.Auth.Session.IDLength)
	require.Nil(t, cfg.Auth.Cookies.Secure)
	require.Equal(t, 90, cfg.Auth.AuditRetentionDays)
	require.Equal(t, "@hourly", cfg.Maintenance.SessionSchedule)
	require.Equal(t, "@daily", cfg.Maintenance.AuditSchedule)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STUDIO_SERVER_PORT", "7070")
	t.Setenv("STUDIO_AUTH_MAINTENANCE_TOKEN", "env-token")
	t.Setenv("STUDIO_AUTH_COOKIES_SECURE", "false")
	t.Setenv("STUDIO_AUTH_SESSION_TTL", "90m")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "env-token", cfg.Auth.MaintenanceToken)
	require.NotNil(t, cfg.Auth.Cookies.Secure)
	require.False(t, *cfg.Auth.Cookies.Secure)
	require.Equal(t, 90*time.Minute, cfg.Auth.Session.TTL)
}

func TestLoadConfigReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, writeFile(dir, ".env", "STUDIO_AUTH_MAINTENANCE_TOKEN=dotenv-token\n"))
	t.Cleanup(func() { unsetEnv("STUDIO_AUTH_MAINTENANCE_TOKEN") })

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "dotenv-token", cfg.Auth.MaintenanceToken)
}

func TestAuthConfigAdapters(t *testing.T) {
	cfg := AuthConfig{
		Session: SessionSettings{
			TTL:       2 * time.Hour,
			Retention: 48 * time.Hour,
			IDLength:  32,
		},
		MaintenanceToken:   "  token  ",
		AuditRetentionDays: 7,
	}

	require.Equal(t, auth.StoreConfig{IDLength: 32}, cfg.StoreConfig())

	lifecycleCfg := cfg.LifecycleConfig(nil)
	require.Equal(t, 2*time.Hour, lifecycleCfg.SessionTTL)
	require.Equal(t, 48*time.Hour, lifecycleCfg.Retention)
	require.Nil(t, lifecycleCfg.Audit)

	require.Equal(t, 7*24*time.Hour, cfg.AuditRetention())
	require.Equal(t, "token", cfg.MaintenanceBearer())
}

func TestAuthConfigAdaptersFallback(t *testing.T) {
	var cfg AuthConfig

	require.Equal(t, auth.DefaultSessionIDLength, cfg.StoreConfig().IDLength)

	lifecycleCfg := cfg.LifecycleConfig(nil)
	require.Equal(t, auth.DefaultSessionTTL, lifecycleCfg.SessionTTL)
	require.Equal(t, auth.DefaultRetention, lifecycleCfg.Retention)

	require.Equal(t, 90*24*time.Hour, cfg.AuditRetention())
}

func TestCookieSecure(t *testing.T) {
	insecure := false

	require.False(t, Config{}.CookieSecure())
	require.True(t, Config{Server: ServerConfig{Environment: "Production"}}.CookieSecure())
	require.False(t, Config{
		Server: ServerConfig{Environment: "production"},
		Auth:   AuthConfig{Cookies: CookieSettings{Secure: &insecure}},
	}.CookieSecure())
}

func TestDatabaseConnectionConfig(t *testing.T) {
	cfg := DatabaseConfig{
		Driver: " PostgreSQL ",
		Postgres: DBAuthConfig{
			Host:     " db ",
			Port:     5432,
			Database: "studio",
			Username: "studio",
			Password: " pass ",
		},
		MaxOpenConns: 4,
	}

	require.Equal(t, database.Config{
		Driver:       "postgres",
		Host:         "db",
		Port:         5432,
		Name:         "studio",
		User:         "studio",
		Password:     " pass ",
		MaxOpenConns: 4,
	}, cfg.ConnectionConfig())

	sqlite := DatabaseConfig{Path: " ./data/db.sqlite "}.ConnectionConfig()
	require.Equal(t, "sqlite", sqlite.Driver)
	require.Equal(t, "./data/db.sqlite", sqlite.Path)

	mysql := DatabaseConfig{Driver: "mysql", MySQL: DBAuthConfig{Host: "mysql", Port: 3306}}.ConnectionConfig()
	require.Equal(t, "mysql", mysql.Host)
	require.Equal(t, 3306, mysql.Port)
}

func TestRedisClientConfig(t *testing.T) {
	cfg := CacheConfig{Redis: RedisCacheConfig{
		Address:  " localhost:6379 ",
		Username: " user ",
		Password: "pw",
		DB:       3,
		TLS:      true,
		Timeout:  time.Second,
	}}

	require.Equal(t, cache.RedisConfig{
		Address:  "localhost:6379",
		Username: "user",
		Password: "pw",
		DB:       3,
		TLS:      true,
		Timeout:  time.Second,
	}, cfg.RedisClientConfig())
}
