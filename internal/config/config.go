package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Ai       AIConfig
	Metering MeteringConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	UsageLogFilePath   string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Driver     string // "postgres" or "memory"
	Connection string
}

type AuthConfig struct {
	JwtSecret string
	TokenTTL  time.Duration
}

type AIConfig struct {
	LLMProvider     string // "openai" (any OpenAI-compatible gateway) or "ollama"
	BaseURL         string
	APIKey          string
	RequestTimeout  time.Duration
	MaxOutputTokens int
}

type MeteringConfig struct {
	LockBackend      string // "memory", "redis" or "none"
	LockTTL          time.Duration
	QuotaCacheTTL    time.Duration
	RetryTopic       string
	RetryMaxAttempts int
	RetryBackoff     time.Duration
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			UsageLogFilePath:   getEnv("USAGE_LOG_FILE_PATH", "logs/usage_stream.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("STORE_DRIVER", "postgres"),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JwtSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  getEnvAsDuration("JWT_TTL", 24*time.Hour),
		},
		Ai: AIConfig{
			LLMProvider:     getEnv("LLM_PROVIDER", "openai"),
			BaseURL:         getEnv("AI_GATEWAY_URL", "https://ai.gateway.lovable.dev/v1"),
			APIKey:          getEnv("AI_GATEWAY_API_KEY", ""),
			RequestTimeout:  getEnvAsDuration("AI_REQUEST_TIMEOUT", 60*time.Second),
			MaxOutputTokens: getEnvAsInt("AI_MAX_OUTPUT_TOKENS", 0),
		},
		Metering: MeteringConfig{
			LockBackend:      getEnv("SESSION_LOCK_BACKEND", "memory"),
			LockTTL:          getEnvAsDuration("SESSION_LOCK_TTL", 90*time.Second),
			QuotaCacheTTL:    getEnvAsDuration("QUOTA_CACHE_TTL", 5*time.Minute),
			RetryTopic:       getEnv("USAGE_RETRY_TOPIC", "usage.reconcile.retry"),
			RetryMaxAttempts: getEnvAsInt("USAGE_RETRY_MAX_ATTEMPTS", 5),
			RetryBackoff:     getEnvAsDuration("USAGE_RETRY_BACKOFF", 2*time.Second),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "ai-chat-session-backend"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("90s", "5m") or a plain number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if seconds, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
