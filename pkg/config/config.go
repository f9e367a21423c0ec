// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Order history backends.
const (
	OrdersKV       = "kv"
	OrdersMemory   = "memory"
	OrdersPostgres = "postgres"
)

// Config holds everything the api process needs at startup.
type Config struct {
	AppEnv   string
	LogLevel string

	HTTPAddr string
	TLSCert  string
	TLSKey   string

	StoreBackend  string
	OrderStore    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DatabaseURL   string

	OTELHost         string
	TraceProbability float64

	CatalogHTML           string
	PageSize              int
	TaxRate               float64
	FreeShippingThreshold int64
	ShippingFee           int64
	SearchDebounce        time.Duration
	SessionTTL            time.Duration
}

// Load reads a .env file when present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var (
		cfg Config
		err error
	)
	cfg.AppEnv = getEnv("APP_ENV", "dev")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8443")
	cfg.TLSCert = os.Getenv("TLS_CERT")
	cfg.TLSKey = os.Getenv("TLS_KEY")
	cfg.StoreBackend = strings.ToLower(getEnv("STORE_BACKEND", BackendMemory))
	cfg.OrderStore = strings.ToLower(getEnv("ORDER_STORE", OrdersKV))
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.OTELHost = os.Getenv("OTEL_HOST")
	cfg.CatalogHTML = os.Getenv("CATALOG_HTML")

	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.TraceProbability, err = getEnvFloat("TRACE_PROBABILITY", 1.0); err != nil {
		return Config{}, err
	}
	if cfg.PageSize, err = getEnvInt("PAGE_SIZE", 8); err != nil {
		return Config{}, err
	}
	if cfg.TaxRate, err = getEnvFloat("TAX_RATE", 0.18); err != nil {
		return Config{}, err
	}
	if cfg.FreeShippingThreshold, err = getEnvInt64("FREE_SHIPPING_THRESHOLD_CENTS", 5_000_000); err != nil {
		return Config{}, err
	}
	if cfg.ShippingFee, err = getEnvInt64("SHIPPING_FEE_CENTS", 500); err != nil {
		return Config{}, err
	}
	if cfg.SearchDebounce, err = getEnvDuration("SEARCH_DEBOUNCE", 350*time.Millisecond); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = getEnvDuration("SESSION_TTL", time.Hour); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("STORE_BACKEND=redis requires REDIS_ADDR")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("STORE_BACKEND=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.OrderStore {
	case OrdersKV, OrdersMemory:
	case OrdersPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("ORDER_STORE=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown ORDER_STORE %q", c.OrderStore)
	}

	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	if c.TaxRate < 0 {
		return fmt.Errorf("TAX_RATE cannot be negative, got %v", c.TaxRate)
	}
	if c.TraceProbability < 0 || c.TraceProbability > 1 {
		return fmt.Errorf("TRACE_PROBABILITY must be within [0,1], got %v", c.TraceProbability)
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return fmt.Errorf("TLS_CERT and TLS_KEY must be set together")
	}
	return nil
}

// TLS reports whether the server should terminate TLS itself.
func (c Config) TLS() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvInt64(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
