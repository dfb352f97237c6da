package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("BLUEPRINT_DB_HOST", "localhost")
	t.Setenv("BLUEPRINT_DB_PORT", "5432")
	t.Setenv("BLUEPRINT_DB_USERNAME", "todo")
	t.Setenv("BLUEPRINT_DB_PASSWORD", "p@ss word")
	t.Setenv("BLUEPRINT_DB_DATABASE", "todos")
}

func clearOptional(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BLUEPRINT_DB_SCHEMA", "PORT", "DB_AUTO_MIGRATE", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS",
		"REDIS_URL", "SESSION_TTL", "COOKIE_SECURE", "CORS_ALLOWED_ORIGINS",
		"LOGIN_RATE_PER_MINUTE", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	clearOptional(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if !cfg.DBAutoMigrate {
		t.Error("DBAutoMigrate should default to true")
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v, want 24h", cfg.SessionTTL)
	}
	if cfg.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}
	if cfg.LoginRatePerMinute != 10 {
		t.Errorf("LoginRatePerMinute = %d, want 10", cfg.LoginRatePerMinute)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Errorf("CORSAllowedOrigins = %v, want two defaults", cfg.CORSAllowedOrigins)
	}
	if cfg.Addr() != ":8080" {
		t.Errorf("Addr() = %q, want :8080", cfg.Addr())
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	clearOptional(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DB_AUTO_MIGRATE", "false")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	if cfg.DBAutoMigrate {
		t.Error("DBAutoMigrate should be false")
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("SessionTTL = %v, want 30m", cfg.SessionTTL)
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure should be true")
	}
	want := []string{"https://a.example", "https://b.example"}
	if strings.Join(cfg.CORSAllowedOrigins, "|") != strings.Join(want, "|") {
		t.Errorf("CORSAllowedOrigins = %v, want %v", cfg.CORSAllowedOrigins, want)
	}
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	setRequired(t)
	clearOptional(t)
	t.Setenv("PORT", "not-a-port")
	t.Setenv("SESSION_TTL", "forever")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want fallback 8080", cfg.Port)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL = %v, want fallback 24h", cfg.SessionTTL)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("BLUEPRINT_DB_HOST", "")
	t.Setenv("BLUEPRINT_DB_PASSWORD", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing variables")
	}
	for _, key := range []string{"BLUEPRINT_DB_HOST", "BLUEPRINT_DB_PASSWORD"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not mention %s", err, key)
		}
	}
}

func TestDatabaseURL(t *testing.T) {
	cfg := &Config{
		DBHost:     "db",
		DBPort:     "5432",
		DBUsername: "todo",
		DBPassword: "p@ss word",
		DBDatabase: "todos",
		DBSchema:   "app",
	}

	got := cfg.DatabaseURL()
	want := "postgres://todo:p%40ss%20word@db:5432/todos?search_path=app&sslmode=disable"
	if got != want {
		t.Errorf("DatabaseURL() = %q, want %q", got, want)
	}
}
