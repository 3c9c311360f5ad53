package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ExchangeChatAPI      = "chat_api"
	ExchangeOllama       = "ollama"
	ExchangeOpenAICompat = "openai_compat"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

var (
	ErrInvalidExchangeKind = errors.New("CHAT_API_KIND must be 'chat_api', 'ollama' or 'openai_compat'")
	ErrInvalidStoreDriver  = errors.New("STORE_DRIVER must be 'sqlite', 'postgres' or 'redis'")
	ErrMissingDatabaseDSN  = errors.New("DB_DSN is required for postgres")
	ErrMissingRedisAddr    = errors.New("REDIS_ADDR is required for redis")
	ErrInvalidHTTPTimeout  = errors.New("HTTP_TIMEOUT must be > 0")
	ErrInvalidSearchLimit  = errors.New("WEB_SEARCH_MAX_RESULTS and WEB_SEARCH_TIMEOUT must be > 0")
)

type Config struct {
	Exchange      ExchangeConfig
	Search        SearchConfig
	Store         StoreConfig
	Log           LogConfig
	MetricsAddr   string
	PersistErrors bool
}

type ExchangeConfig struct {
	Kind    string
	URL     string
	Model   string
	APIKey  string
	Timeout time.Duration
}

// SearchConfig drives prompt augmentation with scraped web results for the
// ollama and openai_compat kinds.
type SearchConfig struct {
	Enabled    bool
	URL        string
	MaxResults int
	Timeout    time.Duration
}

type StoreConfig struct {
	Driver      string
	DSN         string
	AutoMigrate bool
	Redis       RedisConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type LogConfig struct {
	Level string
	File  string
}

// Load reads an optional .env from the working directory, then the process
// environment. Variables already set win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		Exchange: ExchangeConfig{
			Kind:    strings.ToLower(mustEnv("CHAT_API_KIND", ExchangeChatAPI)),
			URL:     mustEnv("CHAT_API_URL", ""),
			Model:   mustEnv("OLLAMA_MODEL", "gemma3"),
			APIKey:  mustEnv("CHAT_API_KEY", ""),
			Timeout: mustDuration("HTTP_TIMEOUT", 120*time.Second),
		},
		Search: SearchConfig{
			Enabled:    mustBool("WEB_SEARCH", false),
			URL:        mustEnv("WEB_SEARCH_URL", "https://html.duckduckgo.com/html/"),
			MaxResults: mustInt("WEB_SEARCH_MAX_RESULTS", 10),
			Timeout:    mustDuration("WEB_SEARCH_TIMEOUT", 10*time.Second),
		},
		Store: StoreConfig{
			Driver:      strings.ToLower(mustEnv("STORE_DRIVER", DriverSQLite)),
			DSN:         mustEnv("DB_DSN", ""),
			AutoMigrate: mustBool("DB_AUTO_MIGRATE", true),
			Redis: RedisConfig{
				Addr:     mustEnv("REDIS_ADDR", "127.0.0.1:6379"),
				Password: mustEnv("REDIS_PASSWORD", ""),
				DB:       mustInt("REDIS_DB", 0),
				Prefix:   mustEnv("REDIS_PREFIX", "curiosity:"),
			},
		},
		Log: LogConfig{
			Level: strings.ToLower(mustEnv("LOG_LEVEL", "info")),
			File:  mustEnv("LOG_FILE", filepath.Join(os.TempDir(), "curiosity.log")),
		},
		MetricsAddr:   mustEnv("METRICS_ADDR", ""),
		PersistErrors: mustBool("PERSIST_ERRORS", false),
	}

	switch cfg.Exchange.Kind {
	case ExchangeChatAPI, ExchangeOllama, ExchangeOpenAICompat:
	default:
		return nil, ErrInvalidExchangeKind
	}
	if cfg.Exchange.Timeout <= 0 {
		return nil, ErrInvalidHTTPTimeout
	}
	if cfg.Search.Enabled && (cfg.Search.MaxResults <= 0 || cfg.Search.Timeout <= 0) {
		return nil, ErrInvalidSearchLimit
	}

	switch cfg.Store.Driver {
	case DriverSQLite:
		if cfg.Store.DSN == "" {
			cfg.Store.DSN = defaultSQLitePath()
		}
	case DriverPostgres:
		if cfg.Store.DSN == "" {
			return nil, ErrMissingDatabaseDSN
		}
	case DriverRedis:
		if cfg.Store.Redis.Addr == "" {
			return nil, ErrMissingRedisAddr
		}
	default:
		return nil, ErrInvalidStoreDriver
	}

	return cfg, nil
}

func defaultSQLitePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "curiosity", "curiosity.db")
}

func mustEnv(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func mustInt(key string, def int) int {
	v := mustEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func mustBool(key string, def bool) bool {
	v := mustEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func mustDuration(key string, def time.Duration) time.Duration {
	v := mustEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
