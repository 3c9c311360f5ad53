package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var configEnv = []string{
	"CHAT_API_KIND", "CHAT_API_URL", "CHAT_API_KEY", "OLLAMA_MODEL", "HTTP_TIMEOUT",
	"STORE_DRIVER", "DB_DSN", "DB_AUTO_MIGRATE",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_PREFIX",
	"PERSIST_ERRORS", "LOG_LEVEL", "LOG_FILE", "METRICS_ADDR",
	"WEB_SEARCH", "WEB_SEARCH_URL", "WEB_SEARCH_MAX_RESULTS", "WEB_SEARCH_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnv {
		t.Setenv(k, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Exchange.Kind != ExchangeChatAPI || cfg.Exchange.Timeout != 120*time.Second {
		t.Fatalf("unexpected exchange defaults %#v", cfg.Exchange)
	}
	if cfg.Store.Driver != DriverSQLite || !strings.HasSuffix(cfg.Store.DSN, filepath.Join("curiosity", "curiosity.db")) {
		t.Fatalf("unexpected store defaults %#v", cfg.Store)
	}
	if cfg.PersistErrors {
		t.Fatalf("error messages must be ephemeral by default")
	}
	if cfg.Search.Enabled || cfg.Search.URL != "https://html.duckduckgo.com/html/" || cfg.Search.MaxResults != 10 {
		t.Fatalf("unexpected search defaults %#v", cfg.Search)
	}
	if !cfg.Store.AutoMigrate || cfg.Log.Level != "info" {
		t.Fatalf("unexpected defaults %#v", cfg)
	}
}

func TestOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHAT_API_KIND", "OLLAMA")
	t.Setenv("OLLAMA_MODEL", "llama3")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("PERSIST_ERRORS", "true")
	t.Setenv("METRICS_ADDR", ":9100")
	t.Setenv("WEB_SEARCH", "true")
	t.Setenv("WEB_SEARCH_MAX_RESULTS", "5")
	t.Setenv("WEB_SEARCH_TIMEOUT", "3s")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Exchange.Kind != ExchangeOllama || cfg.Exchange.Model != "llama3" || cfg.Exchange.Timeout != 5*time.Second {
		t.Fatalf("unexpected exchange %#v", cfg.Exchange)
	}
	if cfg.Store.Driver != DriverRedis || cfg.Store.Redis.DB != 3 {
		t.Fatalf("unexpected store %#v", cfg.Store)
	}
	if !cfg.Search.Enabled || cfg.Search.MaxResults != 5 || cfg.Search.Timeout != 3*time.Second {
		t.Fatalf("unexpected search %#v", cfg.Search)
	}
	if !cfg.PersistErrors || cfg.MetricsAddr != ":9100" {
		t.Fatalf("unexpected flags %#v", cfg)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want error
	}{
		{"bad kind", map[string]string{"CHAT_API_KIND": "grpc"}, ErrInvalidExchangeKind},
		{"bad driver", map[string]string{"STORE_DRIVER": "mongo"}, ErrInvalidStoreDriver},
		{"postgres needs dsn", map[string]string{"STORE_DRIVER": "postgres"}, ErrMissingDatabaseDSN},
		{"zero timeout", map[string]string{"HTTP_TIMEOUT": "0s"}, ErrInvalidHTTPTimeout},
		{"zero search results", map[string]string{"WEB_SEARCH": "1", "WEB_SEARCH_MAX_RESULTS": "0"}, ErrInvalidSearchLimit},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := FromEnv(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadWithoutDotEnv(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	if _, err := Load(); err != nil {
		t.Fatalf("missing .env must not fail: %v", err)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	chdir(t, dir)
	// t.Setenv("X", "") leaves X set, so godotenv will not override it; unset
	// the one variable the file provides.
	os.Unsetenv("OLLAMA_MODEL")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("OLLAMA_MODEL=phi3\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("OLLAMA_MODEL") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Exchange.Model != "phi3" {
		t.Fatalf("expected model from .env, got %q", cfg.Exchange.Model)
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
