package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Paystack   PaystackConfig
	Auth       AuthConfig
	Conference ConferenceConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type RedisConfig struct {
	Addr string
}

type KafkaConfig struct {
	Brokers []string
	Topics  TopicConfig
	Enabled bool
}

type TopicConfig struct {
	OrderEvents    string
	AttendeeEvents string
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// DSN builds the postgres connection string. A full POSTGRES_DSN override
// wins over the individual parts.
func (d DatabaseConfig) DSN() string {
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

// PaystackConfig carries the gateway credentials. Timeout bounds every call
// to the gateway; a timed-out verification counts as failed.
type PaystackConfig struct {
	SecretKey   string
	BaseURL     string
	Timeout     time.Duration
	CallbackURL string
}

type AuthConfig struct {
	Issuer   string
	ClientID string
}

// ConferenceConfig pins the edition the service sells tickets for. The year
// is threaded through explicitly instead of living in package state so tests
// and future editions can run side by side.
type ConferenceConfig struct {
	Year        int
	BadgeSecret string
	SuccessURL  string
	PurchaseURL string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Username:     getEnv("DB_USERNAME", "pycon_user"),
			Password:     getEnv("DB_PASSWORD", "pycon_pass"),
			Database:     getEnv("DB_NAME", "pycon_tickets"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			Enabled: getEnvBool("KAFKA_ENABLED", true),
			Topics: TopicConfig{
				OrderEvents:    getEnv("KAFKA_TOPIC_ORDERS", "order-events"),
				AttendeeEvents: getEnv("KAFKA_TOPIC_ATTENDEES", "attendee-events"),
			},
		},
		Paystack: PaystackConfig{
			SecretKey:   getEnv("PAYSTACK_SECRET_KEY", ""),
			BaseURL:     getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
			Timeout:     time.Duration(getEnvInt("PAYSTACK_TIMEOUT_SECONDS", 30)) * time.Second,
			CallbackURL: getEnv("PAYSTACK_CALLBACK_URL", ""),
		},
		Auth: AuthConfig{
			Issuer:   getEnv("AUTH_ISSUER", ""),
			ClientID: getEnv("AUTH_CLIENT_ID", ""),
		},
		Conference: ConferenceConfig{
			Year:        getEnvInt("CONFERENCE_YEAR", 2026),
			BadgeSecret: getEnv("BADGE_QR_SECRET", ""),
			SuccessURL:  getEnv("PURCHASE_SUCCESS_URL", "/tickets/purchase-complete"),
			PurchaseURL: getEnv("PURCHASE_PAGE_URL", "/tickets/purchase"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
