package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort             = "8080"
	defaultAPIPrefix        = "/api"
	defaultSessionHeader    = "Auth"
	defaultMaxAccountCount  = 100
	defaultMaxSessionCount  = 10
	defaultSessionTTLHours  = 168
	defaultPBKDF2Iterations = 250000
)

type Config struct {
	DatabaseURL string
	Port        string
	AppEnv      string
	SentryDSN   string
	CronSecret  string

	APIPrefix     string
	SessionHeader string

	MaxAccountCount  int
	MaxSessionCount  int
	SessionTTL       time.Duration
	PBKDF2Iterations int

	DBMaxOpenConns       int
	DBMaxIdleConns       int
	DBConnMaxLifetime    time.Duration
	DBConnMaxIdleTime    time.Duration
	RunMigrationsOnStart bool
}

type Options struct {
	LoadDotEnv bool
}

// Load reads the configuration from the environment, optionally seeding it
// from a .env file first.
func Load(options Options) (Config, error) {
	if options.LoadDotEnv {
		_ = godotenv.Load()
	}

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DatabaseURL: databaseURL,
		Port:        envOrDefault("PORT", defaultPort),
		AppEnv:      envOrDefault("APP_ENV", "development"),
		SentryDSN:   strings.TrimSpace(os.Getenv("SENTRY_DSN")),
		CronSecret:  strings.TrimSpace(os.Getenv("CRON_SECRET")),

		APIPrefix:     envOrDefault("API_PREFIX", defaultAPIPrefix),
		SessionHeader: envOrDefault("SESSION_HEADER", defaultSessionHeader),

		MaxAccountCount:  envIntOrDefault("MAX_ACCOUNT_COUNT", defaultMaxAccountCount),
		MaxSessionCount:  envIntOrDefault("MAX_SESSION_COUNT", defaultMaxSessionCount),
		SessionTTL:       envHoursOrDefault("SESSION_TTL_HOURS", defaultSessionTTLHours),
		PBKDF2Iterations: envIntOrDefault("PBKDF2_ITERATIONS", defaultPBKDF2Iterations),

		DBMaxOpenConns:       envIntOrDefault("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:       envIntOrDefault("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime:    envMinutesOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30),
		DBConnMaxIdleTime:    envMinutesOrDefault("DB_CONN_MAX_IDLE_TIME_MINUTES", 10),
		RunMigrationsOnStart: EnvBoolOrDefault("RUN_MIGRATIONS_ON_STARTUP", false),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.MaxAccountCount <= 0 {
		return fmt.Errorf("MAX_ACCOUNT_COUNT must be positive")
	}
	// a login is refused once MAX_SESSION_COUNT-1 sessions exist, so 1 would lock everyone out
	if c.MaxSessionCount < 2 {
		return fmt.Errorf("MAX_SESSION_COUNT must be at least 2")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive")
	}
	if !strings.HasPrefix(c.APIPrefix, "/") {
		return fmt.Errorf("API_PREFIX must start with /")
	}
	if c.SessionHeader == "" {
		return fmt.Errorf("SESSION_HEADER must not be empty")
	}
	return nil
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%s", c.Port)
}

func mustEnv(name string) (string, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return "", fmt.Errorf("missing required env: %s", name)
	}
	return value, nil
}

func envOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envIntOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envMinutesOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Minute
}

func envHoursOrDefault(name string, fallback int) time.Duration {
	return time.Duration(envIntOrDefault(name, fallback)) * time.Hour
}

func EnvBoolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if value == "" {
		return fallback
	}

	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
