// Package config loads runtime settings for the API server and the terminal
// client from the environment (and an optional .env file).
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// Supported values for DATABASE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds every setting the server needs. It is built once at startup
// and passed into the constructors that need it.
type Config struct {
	AppPort          string
	DatabaseDriver   string
	DatabaseDSN      string
	JWTSecret        string
	TokenTTL         time.Duration
	BcryptCost       int
	RabbitMQURL      string
	StoryEventsQueue string
	GeneratorDelay   time.Duration
	CORSAllowOrigins string
	SeedDemoData     bool
	APIBaseURL       string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":5000")
	v.SetDefault("DATABASE_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_DSN", "narratia.db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", "168h")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("STORY_EVENTS_QUEUE", "story_events")
	v.SetDefault("GENERATOR_DELAY", "2s")
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")
	v.SetDefault("SEED_DEMO_DATA", false)
	v.SetDefault("API_BASE_URL", "http://localhost:5000")
	v.SetDefault("CLIENT_TIMEOUT", "10s")
	v.SetDefault("CLIENT_PAGE_SIZE", 4)
}

// Load reads .env (when present) into the process environment and then
// builds a Config from the environment using viper.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Ignoring unreadable .env file: %v", err)
	}

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds and validates a Config from an already populated viper
// instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:          v.GetString("APP_PORT"),
		DatabaseDriver:   strings.ToLower(v.GetString("DATABASE_DRIVER")),
		DatabaseDSN:      v.GetString("DATABASE_DSN"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		TokenTTL:         v.GetDuration("TOKEN_TTL"),
		BcryptCost:       v.GetInt("BCRYPT_COST"),
		RabbitMQURL:      v.GetString("RABBITMQ_URL"),
		StoryEventsQueue: v.GetString("STORY_EVENTS_QUEUE"),
		GeneratorDelay:   v.GetDuration("GENERATOR_DELAY"),
		CORSAllowOrigins: v.GetString("CORS_ALLOW_ORIGINS"),
		SeedDemoData:     v.GetBool("SEED_DEMO_DATA"),
		APIBaseURL:       strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.DatabaseDriver != DriverMemory && c.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}
	if c.GeneratorDelay < 0 {
		return fmt.Errorf("GENERATOR_DELAY must not be negative, got %s", c.GeneratorDelay)
	}
	if c.RabbitMQURL != "" && c.StoryEventsQueue == "" {
		return errors.New("STORY_EVENTS_QUEUE is required when RABBITMQ_URL is set")
	}
	return nil
}

// EventsEnabled reports whether story events should be published.
func (c *Config) EventsEnabled() bool {
	return c.RabbitMQURL != ""
}

// ClientConfig holds the settings of the terminal client. It shares API_BASE_URL
// with Config but needs none of the server secrets.
type ClientConfig struct {
	APIBaseURL string
	Timeout    time.Duration
	PageSize   int
}

// LoadClient reads the terminal client settings the same way Load does.
func LoadClient() (*ClientConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Ignoring unreadable .env file: %v", err)
	}

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return ClientFromViper(v)
}

// ClientFromViper builds and validates a ClientConfig.
func ClientFromViper(v *viper.Viper) (*ClientConfig, error) {
	cfg := &ClientConfig{
		APIBaseURL: strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
		Timeout:    v.GetDuration("CLIENT_TIMEOUT"),
		PageSize:   v.GetInt("CLIENT_PAGE_SIZE"),
	}
	if cfg.APIBaseURL == "" {
		return nil, errors.New("API_BASE_URL is required")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("CLIENT_TIMEOUT must be positive, got %s", cfg.Timeout)
	}
	if cfg.PageSize < 1 || cfg.PageSize > 100 {
		return nil, fmt.Errorf("CLIENT_PAGE_SIZE must be between 1 and 100, got %d", cfg.PageSize)
	}
	return cfg, nil
}
