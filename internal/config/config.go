package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Security SecurityConfig
	CORS     CORSConfig
	Logging  LoggingConfig
	Storage  StorageConfig
	Notifier NotifierConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig holds security-related settings
type SecurityConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend string
	// SeedDemo loads the demo user and catalogue into an empty store.
	SeedDemo bool
}

// NotifierConfig tunes playlist snapshot delivery.
type NotifierConfig struct {
	Buffer int
}

// Load reads config/local.env when present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load("config/local.env")
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{}

	if err := cfg.loadDatabase(); err != nil {
		return nil, fmt.Errorf("load database config: %w", err)
	}
	if err := cfg.loadServer(); err != nil {
		return nil, fmt.Errorf("load server config: %w", err)
	}
	if err := cfg.loadSecurity(); err != nil {
		return nil, fmt.Errorf("load security config: %w", err)
	}
	cfg.loadCORS()
	cfg.loadLogging()
	if err := cfg.loadStorage(); err != nil {
		return nil, fmt.Errorf("load storage config: %w", err)
	}
	if err := cfg.loadNotifier(); err != nil {
		return nil, fmt.Errorf("load notifier config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadDatabase() error {
	c.Database.URL = os.Getenv("DATABASE_URL")

	var err error
	if c.Database.MaxOpenConns, err = intOrDefault("DB_MAX_OPEN_CONNS", 10); err != nil {
		return err
	}
	if c.Database.MaxIdleConns, err = intOrDefault("DB_MAX_IDLE_CONNS", 5); err != nil {
		return err
	}
	return nil
}

func (c *Config) loadServer() error {
	port, err := intOrDefault("PORT", 8080)
	if err != nil {
		return err
	}
	c.Server.Port = port
	c.Server.Host = getEnvOrDefault("HOST", "0.0.0.0")

	if c.Server.ReadTimeout, err = durationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second); err != nil {
		return err
	}
	if c.Server.WriteTimeout, err = durationOrDefault("SERVER_WRITE_TIMEOUT", 15*time.Second); err != nil {
		return err
	}
	if c.Server.ShutdownTimeout, err = durationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second); err != nil {
		return err
	}
	return nil
}

func (c *Config) loadSecurity() error {
	c.Security.JWTSecret = os.Getenv("JWT_SECRET")

	ttl, err := durationOrDefault("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return err
	}
	c.Security.TokenTTL = ttl
	return nil
}

func (c *Config) loadCORS() {
	c.CORS.AllowedOrigins = parseList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173"))
}

func (c *Config) loadLogging() {
	c.Logging.Level = strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info"))
	c.Logging.Format = strings.ToLower(getEnvOrDefault("LOG_FORMAT", "json"))
}

func (c *Config) loadStorage() error {
	c.Storage.Backend = strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", BackendPostgres))

	raw := getEnvOrDefault("SEED_DEMO", "true")
	seed, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("invalid SEED_DEMO: %w", err)
	}
	c.Storage.SeedDemo = seed
	return nil
}

func (c *Config) loadNotifier() error {
	buffer, err := intOrDefault("NOTIFIER_BUFFER", 8)
	if err != nil {
		return err
	}
	c.Notifier.Buffer = buffer
	return nil
}

// Validate checks that all required configuration is present and valid
func (c *Config) Validate() error {
	var problems []string

	switch c.Storage.Backend {
	case BackendPostgres:
		if c.Database.URL == "" {
			problems = append(problems, "DATABASE_URL is required for the postgres backend")
		}
	case BackendMemory:
	default:
		problems = append(problems, "STORAGE_BACKEND must be one of: postgres, memory")
	}

	if c.Security.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	if c.Security.TokenTTL <= 0 {
		problems = append(problems, "TOKEN_TTL must be positive")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, "PORT must be between 1 and 65535")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		problems = append(problems, "LOG_LEVEL must be one of: debug, info, warn, error")
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		problems = append(problems, "LOG_FORMAT must be one of: json, text")
	}

	if c.Notifier.Buffer < 1 {
		problems = append(problems, "NOTIFIER_BUFFER must be at least 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func intOrDefault(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func durationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
