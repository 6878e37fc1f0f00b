package config

import (
	"os"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr        string
	DatabaseURL string
	RedisAddr   string
	LogLevel    string
}

// ServiceCacheTTL bounds how long a cached service record may serve lookups.
var ServiceCacheTTL = 5 * time.Minute

// FromEnv builds a Server config from environment variables so main stays lean.
// Empty DatabaseURL selects the in-memory stores; empty RedisAddr disables the
// catalog cache.
func FromEnv() Server {
	addr := os.Getenv("SDA_GATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	level := os.Getenv("SDA_GATE_LOG_LEVEL")
	if level == "" {
		level = "info"
	}

	return Server{
		Addr:        addr,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		LogLevel:    level,
	}
}
