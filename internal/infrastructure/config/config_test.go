package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaultsWithoutDotEnv(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("port: want=8080 got=%d", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.DSN == "" {
		t.Fatalf("database: %+v", cfg.Database)
	}
	if cfg.Reconcile.MaxRetries != 3 || cfg.Reconcile.RetryBackoff != 20*time.Millisecond {
		t.Fatalf("reconcile: %+v", cfg.Reconcile)
	}
	if cfg.DedupWindow != time.Second {
		t.Fatalf("dedup window: want=1s got=%v", cfg.DedupWindow)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("MODEL_MAX_TOKENS=512\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("MODEL_MAX_TOKENS") })
	t.Setenv("DATABASE_DRIVER", "memory")
	t.Setenv("OPENROUTER_API_KEY", "sk-test-0123456789")
	t.Setenv("NORMALIZER_ENABLED", "true")
	t.Setenv("APP_RECONCILE_MAX_RETRIES", "7")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Database.Driver != "memory" {
		t.Fatalf("driver: want=memory got=%q", cfg.Database.Driver)
	}
	if !cfg.Normalizer.Enabled || cfg.Normalizer.APIKey != "sk-test-0123456789" {
		t.Fatalf("normalizer: %+v", cfg.Normalizer)
	}
	if cfg.Normalizer.MaxTokens != 512 {
		t.Fatalf("max tokens from .env: want=512 got=%d", cfg.Normalizer.MaxTokens)
	}
	if cfg.Reconcile.MaxRetries != 7 {
		t.Fatalf("max retries: want=7 got=%d", cfg.Reconcile.MaxRetries)
	}
}

func TestValidateConfig(t *testing.T) {
	base := func() Config {
		return Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Driver: "memory"},
		}
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"ok", func(c *Config) {}, false},
		{"no port", func(c *Config) { c.Server.Port = 0 }, true},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, true},
		{"sqlite without dsn", func(c *Config) { c.Database.Driver = "sqlite" }, true},
		{"normalizer without key", func(c *Config) { c.Normalizer.Enabled = true; c.Normalizer.Timeout = time.Second }, true},
		{"negative retries", func(c *Config) { c.Reconcile.MaxRetries = -1 }, true},
		{"redis without addr", func(c *Config) { c.Redis.Enabled = true }, true},
	}
	for _, tc := range cases {
		cfg := base()
		tc.mutate(&cfg)
		err := validateConfig(&cfg)
		if (err != nil) != tc.wantErr {
			t.Fatalf("%s: wantErr=%v got=%v", tc.name, tc.wantErr, err)
		}
	}
}

func TestMaskAPIKey(t *testing.T) {
	if got := maskAPIKey("short"); got != "****" {
		t.Fatalf("short: want=**** got=%q", got)
	}
	if got := maskAPIKey("sk-or-v1-abcdef"); got != "sk-o...cdef" {
		t.Fatalf("long: want=sk-o...cdef got=%q", got)
	}
}

// chdir 切換工作目錄並於測試結束時還原（等同 Go 1.24 的 t.Chdir）
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
