package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server and the sync CLI read from the environment.
type Config struct {
	AppEnv   string
	HTTPAddr string

	DatabaseURL string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	AMQPURL string

	CredentialsKey   []byte
	SessionJWTSecret string

	PMSTimeout      time.Duration
	PMSPageSize     int
	PMSPageInterval time.Duration

	HeartbeatInterval time.Duration
	SyncInterval      time.Duration
	SyncWorkers       int
	SyncLocation      *time.Location
	PastMonths        int
	FutureYears       int
	ChannelMarkers    []string
	ResolverCacheTTL  time.Duration
}

// RedisEnabled reports whether a Redis host was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// .env is optional; real deployments inject the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		AMQPURL:       os.Getenv("AMQP_URL"),

		SessionJWTSecret: os.Getenv("SESSION_JWT_SECRET"),
		ChannelMarkers:   splitList(getEnv("IMPORT_CHANNEL_MARKERS", "airbnb.com")),
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		host := os.Getenv("PG_HOST")
		if host == "" {
			return nil, fmt.Errorf("either DATABASE_URL or PG_HOST must be set")
		}
		cfg.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			os.Getenv("PG_USER"),
			os.Getenv("PG_PASSWORD"),
			host,
			getEnv("PG_PORT", "5432"),
			os.Getenv("PG_DB"),
		)
	}

	rawKey := os.Getenv("CREDENTIALS_KEY")
	if rawKey == "" {
		return nil, fmt.Errorf("CREDENTIALS_KEY is required")
	}
	key, err := hex.DecodeString(rawKey)
	if err != nil || len(key) != 32 {
		return nil, fmt.Errorf("CREDENTIALS_KEY must be 64 hex characters")
	}
	cfg.CredentialsKey = key

	var errs []string
	intVar := func(name string, def int, dst *int) {
		v, err := getInt(name, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		*dst = v
	}

	var timeoutSec, intervalMs, heartbeatSec, scheduleMin, cacheSec int
	intVar("PMS_TIMEOUT_SECONDS", 30, &timeoutSec)
	intVar("PMS_PAGE_SIZE", 100, &cfg.PMSPageSize)
	intVar("PMS_PAGE_INTERVAL_MS", 250, &intervalMs)
	intVar("SYNC_HEARTBEAT_SECONDS", 30, &heartbeatSec)
	intVar("SYNC_INTERVAL_MINUTES", 0, &scheduleMin)
	intVar("SYNC_WORKERS", 1, &cfg.SyncWorkers)
	intVar("SYNC_PAST_MONTHS", 2, &cfg.PastMonths)
	intVar("SYNC_FUTURE_YEARS", 2, &cfg.FutureYears)
	intVar("RESOLVER_CACHE_SECONDS", 300, &cacheSec)
	if heartbeatSec <= 0 {
		errs = append(errs, fmt.Sprintf("SYNC_HEARTBEAT_SECONDS must be positive, got %d", heartbeatSec))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	cfg.PMSTimeout = time.Duration(timeoutSec) * time.Second
	cfg.PMSPageInterval = time.Duration(intervalMs) * time.Millisecond
	cfg.HeartbeatInterval = time.Duration(heartbeatSec) * time.Second
	cfg.SyncInterval = time.Duration(scheduleMin) * time.Minute
	cfg.ResolverCacheTTL = time.Duration(cacheSec) * time.Second

	loc, err := time.LoadLocation(getEnv("SYNC_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_TIMEZONE: %w", err)
	}
	cfg.SyncLocation = loc

	if cfg.SyncWorkers < 1 {
		cfg.SyncWorkers = 1
	}

	return cfg, nil
}

func getEnv(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func getInt(name string, def int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
