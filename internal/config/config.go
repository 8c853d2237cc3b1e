package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	// Optional backends. An empty address selects the in-memory fallback
	// for that concern.
	MongoURI     string
	RedisAddr    string
	KafkaBrokers string

	// Orders backend: when PostgresHost is empty the anchored in-memory
	// ledger is used.
	PostgresHost       string
	PostgresPort       int
	PostgresUser       string
	PostgresPassword   string
	PostgresDB         string
	OrderMigrationsDir string

	CatalogDBPath        string
	CatalogMigrationsDir string

	AdminJWTSecret string
	AdminTokenTTL  time.Duration

	DeliveryFee float64
}

func Load() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		MongoURI:     os.Getenv("MONGO_URI"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		KafkaBrokers: os.Getenv("KAFKA_BROKERS"),

		PostgresHost:       os.Getenv("POSTGRES_HOST"),
		PostgresPort:       getInt("POSTGRES_PORT", 5432),
		PostgresUser:       getEnv("POSTGRES_USER", "easymeds"),
		PostgresPassword:   os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:         getEnv("POSTGRES_DB", "easymeds"),
		OrderMigrationsDir: getEnv("ORDER_MIGRATIONS_DIR", "./migrations/orders"),

		CatalogDBPath:        getEnv("CATALOG_DB_PATH", "./easymeds_catalog.db"),
		CatalogMigrationsDir: getEnv("CATALOG_MIGRATIONS_DIR", "./migrations/catalog"),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", "dev-only-secret"),
		AdminTokenTTL:  getDuration("ADMIN_TOKEN_TTL", 12*time.Hour),

		DeliveryFee: getFloat("DELIVERY_FEE", 100),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
