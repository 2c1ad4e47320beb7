package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Finnhub   FinnhubConfig
	Marketaux MarketauxConfig
	Telegram  TelegramConfig
	Alerts    AlertsConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds the session store configuration. An empty Addr
// selects the in-memory session store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig holds Kafka configuration for the alert event bus.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// FinnhubConfig holds quote provider configuration
type FinnhubConfig struct {
	BaseURL string
	APIKey  string
}

// MarketauxConfig holds news provider configuration
type MarketauxConfig struct {
	BaseURL string
	APIKey  string
}

// TelegramConfig holds the Bot API token for outbound notifications.
type TelegramConfig struct {
	BotToken string
}

// AlertsConfig holds the alert cycle tuning knobs.
type AlertsConfig struct {
	ThresholdPercent float64
	CheckInterval    time.Duration
	FetchPacing      time.Duration
	SessionTTL       time.Duration
	NewsLimit        int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "stocktracker"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			Topic:   getEnv("KAFKA_TOPIC", "stock-alerts"),
			GroupID: getEnv("KAFKA_GROUP_ID", "stock-tracker-notifier"),
		},
		Finnhub: FinnhubConfig{
			BaseURL: getEnv("FINNHUB_BASE_URL", "https://finnhub.io/api/v1"),
			APIKey:  getEnv("FINNHUB_API_KEY", ""),
		},
		Marketaux: MarketauxConfig{
			BaseURL: getEnv("MARKETAUX_BASE_URL", "https://api.marketaux.com/v1"),
			APIKey:  getEnv("MARKETAUX_API_KEY", ""),
		},
		Telegram: TelegramConfig{
			BotToken: getEnv("BOT_TOKEN", ""),
		},
		Alerts: AlertsConfig{
			ThresholdPercent: getEnvFloat("PRICE_ALERT_THRESHOLD", 5),
			CheckInterval:    getEnvDuration("ALERT_CHECK_INTERVAL", 5*time.Minute),
			FetchPacing:      getEnvDuration("ALERT_FETCH_PACING", time.Second),
			SessionTTL:       getEnvDuration("SESSION_TTL", 10*time.Minute),
			NewsLimit:        getEnvInt("NEWS_LIMIT", 5),
		},
	}
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
