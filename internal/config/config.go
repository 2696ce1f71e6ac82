package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	AppName    = "Lexio"
	AppVersion = "1.0.0"
)

// DefaultBundleTTL is how long a generated cache snapshot stays fresh.
const DefaultBundleTTL = 24 * time.Hour

type Config struct {
	Addr          string
	DBPath        string
	DataDir       string
	LogLevel      string
	DefaultLocale string
	BundleTTL     time.Duration
	CataloguePath string

	// Optional Redis hot cache in front of the persisted snapshots.
	RedisURL string

	// Machine translation provider (empty provider disables suggestions).
	MTProvider string
	MTAPIKey   string
	MTBaseURL  string
	MTModel    string
	MTQPS      int

	// Bootstrap admin credential; hashed into settings on first start.
	AdminUser     string
	AdminPassword string
}

func Load() Config {
	addr := getenv("LEXIO_ADDR", ":8080")
	dataDir := getenv("LEXIO_DATA_DIR", "./data")
	path := getenv("LEXIO_DB_PATH", filepath.Join(dataDir, "lexio.db"))

	ttl := DefaultBundleTTL
	if raw := os.Getenv("LEXIO_BUNDLE_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			ttl = d
		}
	}

	qps := 0
	if raw := os.Getenv("LEXIO_MT_QPS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			qps = n
		}
	}

	return Config{
		Addr:          addr,
		DBPath:        filepath.Clean(path),
		DataDir:       filepath.Clean(dataDir),
		LogLevel:      getenv("LEXIO_LOG_LEVEL", "info"),
		DefaultLocale: getenv("LEXIO_DEFAULT_LOCALE", "en"),
		BundleTTL:     ttl,
		CataloguePath: os.Getenv("LEXIO_CATALOGUE"),
		RedisURL:      os.Getenv("LEXIO_REDIS_URL"),
		MTProvider:    os.Getenv("LEXIO_MT_PROVIDER"),
		MTAPIKey:      os.Getenv("LEXIO_MT_API_KEY"),
		MTBaseURL:     os.Getenv("LEXIO_MT_BASE_URL"),
		MTModel:       os.Getenv("LEXIO_MT_MODEL"),
		MTQPS:         qps,
		AdminUser:     os.Getenv("LEXIO_ADMIN_USER"),
		AdminPassword: os.Getenv("LEXIO_ADMIN_PASSWORD"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
