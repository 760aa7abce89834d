package utils

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr      = ":8080"
	defaultSyncAddr      = ":7070"
	defaultAllowedOrigin = "http://localhost:3000"
	defaultCatalogURL    = "https://api.spoonacular.com"
	defaultPageSize      = 100
	defaultCatalogTTL    = 10 * time.Second
	defaultCatalogRPS    = 1.0
	defaultCatalogBurst  = 5
)

// Config is loaded once at process start and handed to constructors.
// Business code never reads the environment itself.
type Config struct {
	Debug         bool
	HTTPAddr      string
	SyncAddr      string
	AllowedOrigin string
	Catalog       CatalogConfig
}

type CatalogConfig struct {
	BaseURL  string
	APIKey   string
	PageSize int
	Timeout  time.Duration
	// RPS and Burst size the client-side limiter; exhaustion fails fast.
	RPS   float64
	Burst int
}

// LoadEnvFiles loads .env.local then .env; missing files are fine and
// variables already set in the environment win.
func LoadEnvFiles() error {
	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func LoadConfig() (Config, error) {
	if err := LoadEnvFiles(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Debug:         envBool("RECIPEHUB_DEBUG", false),
		HTTPAddr:      envString("RECIPEHUB_HTTP_ADDR", defaultHTTPAddr),
		SyncAddr:      envString("RECIPEHUB_SYNC_ADDR", defaultSyncAddr),
		AllowedOrigin: envString("RECIPEHUB_ALLOWED_ORIGIN", defaultAllowedOrigin),
		Catalog: CatalogConfig{
			BaseURL:  strings.TrimRight(envString("RECIPEHUB_CATALOG_URL", defaultCatalogURL), "/"),
			APIKey:   envString("RECIPEHUB_API_KEY", os.Getenv("API_KEY")),
			PageSize: envInt("RECIPEHUB_CATALOG_PAGE_SIZE", defaultPageSize),
			Timeout:  envDuration("RECIPEHUB_CATALOG_TIMEOUT", defaultCatalogTTL),
			RPS:      envFloat("RECIPEHUB_CATALOG_RPS", defaultCatalogRPS),
			Burst:    envInt("RECIPEHUB_CATALOG_BURST", defaultCatalogBurst),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("http addr is required")
	}
	if c.Catalog.BaseURL == "" {
		return errors.New("catalog url is required")
	}
	if c.Catalog.PageSize <= 0 {
		return errors.New("catalog page size must be positive")
	}
	if c.Catalog.Timeout <= 0 {
		return errors.New("catalog timeout must be positive")
	}
	if c.Catalog.RPS <= 0 || c.Catalog.Burst <= 0 {
		return errors.New("catalog rate limit must be positive")
	}
	return nil
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil {
		return def
	}
	return f
}

func envBool(key string, def bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return b
}

// envDuration accepts Go durations ("15s") and bare seconds ("15").
func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
