// Package utils: connection helpers for Postgres, Redis and the TLS bootstrap.
package utils

import (
	"net"
	"strconv"

	"market-map/internal/config"
	"market-map/internal/logger"

	"github.com/redis/go-redis/v9"
)

// OpenRedis: nil when the trend cache is disabled.
func OpenRedis(c config.Redis) *redis.Client {
	if !c.Enabled || c.Host == "" {
		return nil
	}
	db := c.DB
	if db < 0 {
		db = 0
	}
	addr := net.JoinHostPort(c.Host, c.Port)
	logger.L().Debug("redis_open", "addr", addr, "db", strconv.Itoa(db))
	return redis.NewClient(&redis.Options{Addr: addr, Password: c.Password, DB: db})
}
