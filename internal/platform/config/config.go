// Package config builds the process configuration from environment variables
// so main stays lean.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	pkgstrings "shiftledger/pkg/platform/strings"
)

// Mode selects where the live projection's feeds come from.
type Mode string

const (
	// ModeLocal serves feeds from the process's own event store.
	ModeLocal Mode = "local"
	// ModeLive consumes feeds from Kafka topics.
	ModeLive Mode = "live"
)

type Config struct {
	Server   Server
	Postgres Postgres
	Redis    Redis
	Kafka    Kafka
	Clock    Clock
	Summary  Summary
	Mode     Mode
	TenantID string
}

type Server struct {
	Addr            string
	JWTSigningKey   string
	ShutdownTimeout time.Duration
}

// Postgres is optional; an empty URL keeps the in-memory stores.
type Postgres struct {
	URL string
}

// Redis is optional; an empty URL disables the event cache.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Kafka struct {
	Brokers []string
	Group   string
}

// Clock carries the deployment's clock-in gating policy.
type Clock struct {
	RequireGPS      bool
	RequireGeofence bool
	LocationTimeout time.Duration
}

// Summary points at the external text-summary service.
type Summary struct {
	Endpoint string
}

// FromEnv reads SHIFTLEDGER_* variables, applying development defaults where
// a value is safe to default.
func FromEnv() (Config, error) {
	cfg := Config{
		Server: Server{
			Addr:            envOr("SHIFTLEDGER_ADDR", ":8080"),
			JWTSigningKey:   envOr("SHIFTLEDGER_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			ShutdownTimeout: 15 * time.Second,
		},
		Postgres: Postgres{URL: os.Getenv("SHIFTLEDGER_POSTGRES_URL")},
		Redis: Redis{
			URL:          os.Getenv("SHIFTLEDGER_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Clock: Clock{
			RequireGPS:      os.Getenv("SHIFTLEDGER_REQUIRE_GPS") == "true",
			RequireGeofence: os.Getenv("SHIFTLEDGER_REQUIRE_GEOFENCE") == "true",
			LocationTimeout: 10 * time.Second,
		},
		Summary:  Summary{Endpoint: os.Getenv("SHIFTLEDGER_SUMMARY_ENDPOINT")},
		Mode:     Mode(envOr("SHIFTLEDGER_MODE", string(ModeLocal))),
		TenantID: envOr("SHIFTLEDGER_TENANT_ID", "default"),
	}

	switch cfg.Mode {
	case ModeLocal:
	case ModeLive:
		brokers := os.Getenv("SHIFTLEDGER_KAFKA_BROKERS")
		if brokers == "" {
			return Config{}, fmt.Errorf("live mode requires SHIFTLEDGER_KAFKA_BROKERS")
		}
		cfg.Kafka = Kafka{
			Brokers: splitCSV(brokers),
			Group:   envOr("SHIFTLEDGER_KAFKA_GROUP", "shiftledger"),
		}
	default:
		return Config{}, fmt.Errorf("unknown mode %q", cfg.Mode)
	}

	if raw := os.Getenv("SHIFTLEDGER_LOCATION_TIMEOUT_SEC"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs < 1 {
			return Config{}, fmt.Errorf("SHIFTLEDGER_LOCATION_TIMEOUT_SEC must be a positive integer")
		}
		cfg.Clock.LocationTimeout = time.Duration(secs) * time.Second
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitCSV(s string) []string {
	return pkgstrings.DedupeAndTrim(strings.Split(s, ","))
}
