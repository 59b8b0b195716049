package app

import (
	"strings"

	"github.com/pirouette/studio/internal/cache"
	"github.com/pirouette/studio/internal/database"
)

// ConnectionConfig converts DatabaseConfig into the database package representation.
func (c DatabaseConfig) ConnectionConfig() database.Config {
	dbCfg := database.Config{
		Driver:          strings.ToLower(strings.TrimSpace(c.Driver)),
		Path:            strings.TrimSpace(c.Path),
		DSN:             strings.TrimSpace(c.DSN),
		Options:         c.Options,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
	}

	var host DBAuthConfig
	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
		return dbCfg
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		host = c.Postgres
	case "mysql":
		host = c.MySQL
	default:
		// unsupported drivers surface from database.Open
		return dbCfg
	}

	dbCfg.Host = strings.TrimSpace(host.Host)
	dbCfg.Port = host.Port
	dbCfg.Name = strings.TrimSpace(host.Database)
	dbCfg.User = strings.TrimSpace(host.Username)
	dbCfg.Password = host.Password
	return dbCfg
}

// RedisClientConfig converts the cache section into the cache package representation.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	redis := c.Redis
	return cache.RedisConfig{
		Address:  strings.TrimSpace(redis.Address),
		Username: strings.TrimSpace(redis.Username),
		Password: redis.Password,
		DB:       redis.DB,
		TLS:      redis.TLS,
		Timeout:  redis.Timeout,
	}
}
