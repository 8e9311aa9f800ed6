package config

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// devJWTSecret signs tokens only outside production.
const devJWTSecret = "supersecret"

var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set in production")

type Config struct {
	Env                  string
	HTTPAddr             string
	PostgresDSN          string
	RedisAddr            string
	KafkaBrokers         []string
	RecipeEventsTopic    string
	JWTSecret            string
	TokenTTL             time.Duration
	SessionLookupTimeout time.Duration
	CacheTTL             time.Duration
	LocalCacheTTL        time.Duration
	SecureCookies        bool
	OTLPEndpoint         string
	ServiceName          string
	InstanceID           string
	LogLevel             string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load .env file, using default values", "error", err)
	}

	cfg := &Config{
		Env:                  getString("APP_ENV", "development"),
		HTTPAddr:             getString("HTTP_ADDR", ":8080"),
		PostgresDSN:          getString("POSTGRES_DSN", "host=localhost user=postgres password=postgres dbname=recipes sslmode=disable"),
		RedisAddr:            getString("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers:         getList("KAFKA_BROKERS", nil),
		RecipeEventsTopic:    getString("RECIPE_EVENTS_TOPIC", "recipe-events"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		TokenTTL:             getDuration("TOKEN_TTL", 7*24*time.Hour),
		SessionLookupTimeout: getDuration("SESSION_LOOKUP_TIMEOUT", 5*time.Second),
		CacheTTL:             getDuration("CACHE_TTL", 5*time.Minute),
		LocalCacheTTL:        getDuration("LOCAL_CACHE_TTL", 5*time.Second),
		SecureCookies:        os.Getenv("APP_ENV") == "production",
		OTLPEndpoint:         os.Getenv("OTLP_ENDPOINT"),
		ServiceName:          getString("SERVICE_NAME", "recipe-service"),
		InstanceID:           getString("INSTANCE_ID", hostname()),
		LogLevel:             getString("LOG_LEVEL", "info"),
	}

	if cfg.JWTSecret == "" && !cfg.Production() {
		slog.Warn("JWT_SECRET not set, signing tokens with the development secret")
		cfg.JWTSecret = devJWTSecret
	}

	slog.Info("config loaded",
		"env", cfg.Env,
		"http_addr", cfg.HTTPAddr,
		"redis_addr", cfg.RedisAddr,
		"kafka_brokers", cfg.KafkaBrokers,
		"token_ttl", cfg.TokenTTL,
		"secure_cookies", cfg.SecureCookies,
		"instance_id", cfg.InstanceID)
	return cfg
}

func (c *Config) Production() bool {
	return c.Env == "production"
}

// Validate reports settings the server must not start with.
func (c *Config) Validate() error {
	if c.Production() && (c.JWTSecret == "" || c.JWTSecret == devJWTSecret) {
		return ErrMissingJWTSecret
	}
	return nil
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration, using default", "key", key, "value", value, "default", fallback)
		return fallback
	}
	return d
}

func getList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return "local"
	}
	return name
}
