package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; only DATABASE_URL and KAFKA_BROKERS
// are required.
type Config struct {
	// Server
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Database
	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// Kafka
	Brokers           []string
	NotificationTopic string
	ResultsTopic      string
	ProbeTopic        string
	ConsumerGroup     string

	// Notification behaviour
	MaxRetryAttempts  int
	ExpiryWarningDays int
	ExpiryLeadDays    int
	TimeZone          string

	// Maximum mail sends per second, per notification type
	MailRateLimit int

	// Postmark
	PostmarkServerToken  string
	PostmarkAccountToken string
	SenderEmail          string
	SenderName           string
}

func Load() (*Config, error) {
	// A local .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		return nil, fmt.Errorf("KAFKA_BROKERS is required")
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DatabaseURL: dbURL,
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 25)),
		DBMinConns:  int32(getInt("DB_MIN_CONNS", 5)),

		Brokers:           splitBrokers(brokers),
		NotificationTopic: getEnv("KAFKA_NOTIFICATION_TOPIC", "medicine-notifications"),
		ResultsTopic:      getEnv("KAFKA_RESULTS_TOPIC", "notification-results"),
		ProbeTopic:        getEnv("KAFKA_PROBE_TOPIC", "health-check"),
		ConsumerGroup:     getEnv("KAFKA_CONSUMER_GROUP", "medtrack-notifications"),

		MaxRetryAttempts:  getInt("MAX_RETRY_ATTEMPTS", 3),
		ExpiryWarningDays: getInt("EXPIRY_WARNING_DAYS", 3),
		ExpiryLeadDays:    getInt("EXPIRY_LEAD_DAYS", 2),
		TimeZone:          getEnv("TIME_ZONE", "Asia/Kolkata"),

		MailRateLimit: getInt("MAIL_RATE_LIMIT", 50),

		PostmarkServerToken:  getEnv("POSTMARK_SERVER_TOKEN", ""),
		PostmarkAccountToken: getEnv("POSTMARK_ACCOUNT_TOKEN", ""),
		SenderEmail:          getEnv("SENDER_EMAIL", "alerts@medtrack.local"),
		SenderName:           getEnv("SENDER_NAME", "MedTrack"),
	}, nil
}

func splitBrokers(raw string) []string {
	parts := strings.Split(raw, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
