package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

// Config holds everything the API reads from the environment at startup.
type Config struct {
	Port int

	// Database
	DBHost         string
	DBPort         string
	DBUsername     string
	DBPassword     string
	DBDatabase     string
	DBSchema       string
	DBAutoMigrate  bool
	DBMaxOpenConns int
	DBMaxIdleConns int

	// Sessions
	RedisURL     string
	SessionTTL   time.Duration
	CookieSecure bool

	// HTTP
	CORSAllowedOrigins []string
	LoginRatePerMinute int

	LogLevel string
}

// Load reads the configuration from the environment. All missing required
// variables are reported in a single error.
func Load() (*Config, error) {
	cfg := &Config{}

	var missing []string
	required := func(key string) string {
		v := os.Getenv(key)
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg.DBHost = required("BLUEPRINT_DB_HOST")
	cfg.DBPort = required("BLUEPRINT_DB_PORT")
	cfg.DBUsername = required("BLUEPRINT_DB_USERNAME")
	cfg.DBPassword = required("BLUEPRINT_DB_PASSWORD")
	cfg.DBDatabase = required("BLUEPRINT_DB_DATABASE")

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	cfg.DBSchema = os.Getenv("BLUEPRINT_DB_SCHEMA")
	cfg.Port = getEnvInt("PORT", 8080)
	cfg.DBAutoMigrate = getEnvBool("DB_AUTO_MIGRATE", true)
	cfg.DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 100)
	cfg.DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 10)
	cfg.RedisURL = getEnvString("REDIS_URL", "redis://localhost:6379/0")
	cfg.SessionTTL = getEnvDuration("SESSION_TTL", 24*time.Hour)
	cfg.CookieSecure = getEnvBool("COOKIE_SECURE", false)
	cfg.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", []string{"https://*", "http://*"})
	cfg.LoginRatePerMinute = getEnvInt("LOGIN_RATE_PER_MINUTE", 10)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	return cfg, nil
}

// DatabaseURL renders the connection settings as a postgres:// URL, which both
// pgx and golang-migrate accept.
func (c *Config) DatabaseURL() string {
	q := url.Values{}
	q.Set("sslmode", "disable")
	if c.DBSchema != "" {
		q.Set("search_path", c.DBSchema)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUsername, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBDatabase,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
