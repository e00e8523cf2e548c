package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Flights  FlightsConfig
	Checkout CheckoutConfig
	Poller   PollerConfig
	Cache    CacheConfig
	Database DatabaseConfig
	Sessions SessionConfig
}

type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
	// PublicOrigin is where the hosted payment page returns the user when the
	// browser did not tell us its own origin.
	PublicOrigin       string
	CORSAllowedOrigins []string
}

// FlightsConfig points at a Duffel-compatible flight search API.
type FlightsConfig struct {
	APIURL      string
	AccessToken string
	Version     string
	Timeout     time.Duration
	RPS         float64
	Burst       int
}

type CheckoutConfig struct {
	APIURL    string
	SecretKey string
	Source    string
	Timeout   time.Duration
	RPS       float64
	Burst     int
}

type PollerConfig struct {
	MaxAttempts int
	Interval    time.Duration
}

type CacheConfig struct {
	Enabled       bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

// DatabaseConfig is optional: with an empty URL nothing is persisted.
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

type SessionConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			Environment:        getEnv("ENVIRONMENT", "development"),
			LogLevel:           getEnv("LOG_LEVEL", "info"),
			PublicOrigin:       getEnv("PUBLIC_ORIGIN", "http://localhost:3000"),
			CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Flights: FlightsConfig{
			APIURL:      getEnv("DUFFEL_API_URL", "https://api.duffel.com"),
			AccessToken: getEnv("DUFFEL_ACCESS_TOKEN", ""),
			Version:     getEnv("DUFFEL_VERSION", "v2"),
			Timeout:     getEnvAsDuration("FLIGHTS_TIMEOUT", 30*time.Second),
			RPS:         getEnvAsFloat("FLIGHTS_RPS", 10),
			Burst:       getEnvAsInt("FLIGHTS_BURST", 20),
		},
		Checkout: CheckoutConfig{
			APIURL:    getEnv("CHECKOUT_API_URL", "https://api.stripe.com"),
			SecretKey: getEnv("CHECKOUT_SECRET_KEY", ""),
			Source:    getEnv("CHECKOUT_SOURCE", "trotair_flight_booking"),
			Timeout:   getEnvAsDuration("CHECKOUT_TIMEOUT", 15*time.Second),
			RPS:       getEnvAsFloat("CHECKOUT_RPS", 10),
			Burst:     getEnvAsInt("CHECKOUT_BURST", 20),
		},
		Poller: PollerConfig{
			MaxAttempts: getEnvAsInt("PAYMENT_POLL_MAX_ATTEMPTS", 5),
			Interval:    getEnvAsDuration("PAYMENT_POLL_INTERVAL", 2*time.Second),
		},
		Cache: CacheConfig{
			Enabled:       getEnvAsBool("CACHE_ENABLED", true),
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			TTL:           getEnvAsDuration("REDIS_TTL", 5*time.Minute),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Sessions: SessionConfig{
			IdleTTL:       getEnvAsDuration("SESSION_IDLE_TTL", 30*time.Minute),
			SweepInterval: getEnvAsDuration("SESSION_SWEEP_INTERVAL", time.Minute),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Flights.APIURL == "" {
		return fmt.Errorf("DUFFEL_API_URL is required")
	}
	if c.Checkout.APIURL == "" {
		return fmt.Errorf("CHECKOUT_API_URL is required")
	}
	if c.Poller.MaxAttempts < 1 {
		return fmt.Errorf("PAYMENT_POLL_MAX_ATTEMPTS must be at least 1, got %d", c.Poller.MaxAttempts)
	}
	if c.Poller.Interval < 0 {
		return fmt.Errorf("PAYMENT_POLL_INTERVAL must not be negative")
	}
	if c.Sessions.SweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive")
	}

	if c.Server.Environment == "production" {
		if c.Flights.AccessToken == "" {
			return fmt.Errorf("DUFFEL_ACCESS_TOKEN is required in production")
		}
		if c.Checkout.SecretKey == "" {
			return fmt.Errorf("CHECKOUT_SECRET_KEY is required in production")
		}
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		logrus.Warnf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		logrus.Warnf("Invalid number for %s, using default: %g", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		logrus.Warnf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		logrus.Warnf("Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
