package config

import (
	"os"
	"strconv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort string
	MySQLDSN   string

	RedisAddr    string
	RedisDB      int
	RedisPass    string
	CacheBackend string // "redis" or "memory"
	CacheTTLSec  int

	ProviderBaseURL    string
	ProviderSecretKey  string
	ProviderTimeoutSec int

	UnlockFee string
	Currency  string

	// WebhookSecret enables HMAC verification of provider pushes.
	// Empty means degraded mode: webhooks are accepted unsigned.
	WebhookSecret  string
	OperatorSecret string
	SessionSecret  string

	SMTPAddr string
	SMTPFrom string

	SwaggerHost string
}

// Load builds Config from environment with sensible defaults.
func Load() *Config {
	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		MySQLDSN:   getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/resultpay?charset=utf8mb4&parseTime=True&loc=Local"),

		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:      getEnvInt("REDIS_DB", 0),
		RedisPass:    os.Getenv("REDIS_PASSWORD"),
		CacheBackend: getEnv("CACHE_BACKEND", "redis"),
		CacheTTLSec:  getEnvInt("CACHE_TTL_SECONDS", 900),

		ProviderBaseURL:    getEnv("PROVIDER_BASE_URL", "https://payment.example.com"),
		ProviderSecretKey:  os.Getenv("PROVIDER_SECRET_KEY"),
		ProviderTimeoutSec: getEnvInt("PROVIDER_TIMEOUT_SECONDS", 10),

		UnlockFee: getEnv("UNLOCK_FEE", "50.00"),
		Currency:  getEnv("CURRENCY", "KES"),

		WebhookSecret:  os.Getenv("WEBHOOK_SECRET"),
		OperatorSecret: getEnv("OPERATOR_SECRET", "change-me"),
		SessionSecret:  getEnv("SESSION_JWT_SECRET", "change-me"),

		SMTPAddr: os.Getenv("SMTP_ADDR"),
		SMTPFrom: getEnv("SMTP_FROM", "results@example.com"),

		SwaggerHost: os.Getenv("SWAGGER_HOST"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}
