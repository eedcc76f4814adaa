package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	DBDriver   string
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string
	JWTSecret  string

	UploadDir      string
	RequestTimeout time.Duration
	TotalTolerance decimal.Decimal
	// CounterStrategy is one of "procedure", "direct" or "fallback".
	CounterStrategy string

	RedisAddr       string
	CatalogCacheTTL time.Duration
	IdempotencyTTL  time.Duration

	KafkaBrokers []string
	KafkaTopic   string
	AMQPURL      string
	AMQPQueue    string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBDriver:   getenv("DB_DRIVER", "postgres"),
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     getenv("DB_PORT", "5432"),
		AppPort:    getenv("APP_PORT", "8080"),
		AppEnv:     os.Getenv("APP_ENV"),
		JWTSecret:  os.Getenv("JWT_SECRET"),

		UploadDir:       getenv("UPLOAD_DIR", "uploads"),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 5*time.Second),
		TotalTolerance:  getDecimal("TOTAL_TOLERANCE", decimal.NewFromFloat(0.01)),
		CounterStrategy: getenv("COUNTER_STRATEGY", "fallback"),

		RedisAddr:       os.Getenv("REDIS_ADDR"),
		CatalogCacheTTL: getDuration("CATALOG_CACHE_TTL", 30*time.Second),
		IdempotencyTTL:  getDuration("IDEMPOTENCY_TTL", 24*time.Hour),

		KafkaBrokers: splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getenv("KAFKA_AUDIT_TOPIC", "audit.activity"),
		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPQueue:    getenv("AMQP_AUDIT_QUEUE", "activity_logs"),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid duration for %s=%q, using %s", k, v, def)
		return def
	}
	return d
}

func getDecimal(k string, def decimal.Decimal) decimal.Decimal {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		log.Printf("invalid decimal for %s=%q, using %s", k, v, def)
		return def
	}
	return d
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
