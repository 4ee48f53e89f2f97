package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Cert         string
	Organization string
	Application  string
}

type DatabaseConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

type TelegramConfig struct {
	Token         string
	WebhookSecret string
	BotUsername   string
	DailyLimit    int
}

type KafkaConfig struct {
	Brokers       []string
	ConsumerGroup string
}

type Config struct {
	Environment string
	Port        string
	LogLevel    slog.Level

	// PublicURL is the externally visible base, used for invitation links and the bot webhook
	PublicURL string
	// LoginURL is where unauthenticated visitors of recruiter-only tests are sent
	LoginURL  string
	MediaRoot string
	MediaURL  string

	CookieSecure bool

	// AllowedOrigins for CORS, empty allows any origin
	AllowedOrigins []string

	Database DatabaseConfig
	RedisURL string
	Casdoor  CasdoorConfig
	Gemini   GeminiConfig
	Telegram TelegramConfig
	Kafka    KafkaConfig
}

// LoadConfig reads the environment, optionally seeded from a .env file
func LoadConfig() (*Config, error) {
	// .env is optional outside local development
	_ = godotenv.Load()

	cfg := &Config{
		Environment:  getEnv("ENVIRONMENT", "development"),
		Port:         getEnv("PORT", "8080"),
		LogLevel:     parseLogLevel(getEnv("LOG_LEVEL", "info")),
		PublicURL:    strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:8080"), "/"),
		LoginURL:     getEnv("LOGIN_URL", "/login"),
		MediaRoot:    getEnv("MEDIA_ROOT", "media"),
		MediaURL:     strings.TrimRight(getEnv("MEDIA_URL", "/media"), "/"),
		CookieSecure: getEnvBool("COOKIE_SECURE", false),

		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		Database: DatabaseConfig{
			DSN:             getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", true),
		},
		RedisURL: getEnv("REDIS_URL", ""),
		Casdoor: CasdoorConfig{
			Endpoint:     getEnv("CASDOOR_ENDPOINT", ""),
			ClientID:     getEnv("CASDOOR_CLIENT_ID", ""),
			ClientSecret: getEnv("CASDOOR_CLIENT_SECRET", ""),
			Cert:         loadCert(),
			Organization: getEnv("CASDOOR_ORGANIZATION", ""),
			Application:  getEnv("CASDOOR_APPLICATION", ""),
		},
		Gemini: GeminiConfig{
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			Model:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			Timeout: getEnvDuration("AI_TIMEOUT", 20*time.Second),
		},
		Telegram: TelegramConfig{
			Token:         getEnv("TELEGRAM_TOKEN", ""),
			WebhookSecret: getEnv("TELEGRAM_WEBHOOK_SECRET", ""),
			BotUsername:   getEnv("TELEGRAM_BOT_USERNAME", ""),
			DailyLimit:    getEnvInt("TELEGRAM_DAILY_LIMIT", 3),
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(getEnv("KAFKA_BROKERS", "")),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "quiz-service"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Telegram.DailyLimit < 0 {
		return fmt.Errorf("TELEGRAM_DAILY_LIMIT must not be negative")
	}
	return nil
}

// WebhookURL is where telegram should deliver updates
func (c *Config) WebhookURL() string {
	return WebhookURL(c.PublicURL)
}

// WebhookURL builds the telegram webhook address for a public domain,
// adding https:// when no scheme is given.
func WebhookURL(domain string) string {
	domain = strings.TrimRight(strings.TrimSpace(domain), "/")
	if !strings.HasPrefix(domain, "http://") && !strings.HasPrefix(domain, "https://") {
		domain = "https://" + domain
	}
	return domain + "/webhook/telegram"
}

func loadCert() string {
	if path := os.Getenv("CASDOOR_CERT_FILE"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			return string(data)
		}
	}
	return getEnv("CASDOOR_CERT", "")
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
