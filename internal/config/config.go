package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"pharmacy/m/internal/database"
)

// Config holds application configuration values.
type Config struct {
	HTTPPort        string
	DatabaseDriver  database.Dialect
	DatabaseDSN     string
	LogLevel        string
	LogFormat       string
	AllowedOrigins  string
	RedisAddress    string
	RedisPassword   string
	SeedCatalogPath string
	SeedSampleData  bool
	// UpdateCustomerOnMatch overwrites a matched customer's details with the
	// ones supplied on a new order. Off by default.
	UpdateCustomerOnMatch bool
	ShutdownTimeout       time.Duration
}

// Load reads configuration from environment variables with reasonable defaults.
// Callers load any .env file beforehand.
func Load() (Config, error) {
	driver, err := database.ParseDialect(os.Getenv("DATABASE_DRIVER"))
	if err != nil {
		return Config{}, err
	}

	port := getEnv("HTTP_PORT", "8080")
	// Validate that port is numeric.
	if _, err := strconv.Atoi(port); err != nil {
		return Config{}, fmt.Errorf("invalid HTTP_PORT value %q", port)
	}

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = defaultDSN(driver)
	}

	shutdownSeconds, err := strconv.Atoi(getEnv("SHUTDOWN_TIMEOUT_SECONDS", "10"))
	if err != nil || shutdownSeconds <= 0 {
		return Config{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT_SECONDS value %q", os.Getenv("SHUTDOWN_TIMEOUT_SECONDS"))
	}

	return Config{
		HTTPPort:              port,
		DatabaseDriver:        driver,
		DatabaseDSN:           dsn,
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "json"),
		AllowedOrigins:        os.Getenv("ALLOWED_ORIGINS"),
		RedisAddress:          os.Getenv("REDIS_ADDRESS"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		SeedCatalogPath:       os.Getenv("SEED_CATALOG"),
		SeedSampleData:        getBool("SEED_SAMPLE_DATA", false),
		UpdateCustomerOnMatch: getBool("CUSTOMER_UPDATE_ON_MATCH", false),
		ShutdownTimeout:       time.Duration(shutdownSeconds) * time.Second,
	}, nil
}

func defaultDSN(driver database.Dialect) string {
	host := getEnv("DB_HOST", "localhost")
	user := getEnv("DB_USER", "root")
	password := os.Getenv("DB_PASSWORD")
	name := getEnv("DB_NAME", "pharmacy")

	switch driver {
	case database.MySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s", user, password, host, getEnv("DB_PORT", "3306"), name)
	case database.Postgres:
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, getEnv("DB_PORT", "5432"), name)
	default:
		return "file:pharmacy.db?_pragma=foreign_keys(1)"
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}
