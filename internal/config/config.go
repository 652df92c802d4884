package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the console and the development API server
type Config struct {
	// API Configuration (consumed by the console)
	API APIConfig

	// Storage Configuration (where the session token lives)
	Storage StorageConfig

	// Server Configuration (development API server)
	Server ServerConfig

	// Logging Configuration
	Logging LoggingConfig
}

// APIConfig holds the remote API settings
type APIConfig struct {
	BaseURL string        `validate:"required,url"`
	Timeout time.Duration `validate:"gte=0"`
}

// StorageConfig holds the persistent key/value store settings
type StorageConfig struct {
	Backend string `validate:"oneof=file keyring memory"`
	Path    string // only used by the file backend; empty = ~/.config/adminctl/storage.json
}

// ServerConfig holds development API server settings
type ServerConfig struct {
	Addr              string `validate:"required"`
	DatabaseURL       string `validate:"required"`
	JWTSecret         string
	AllowedOrigins    []string
	SeedFile          string
	BootstrapEmail    string `validate:"omitempty,email"`
	BootstrapPassword string `validate:"required_with=BootstrapEmail"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string `validate:"oneof=debug info warn warning error fatal panic"`
	Format string `validate:"oneof=json console"` // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	baseURL := firstEnv("ADMIN_API_BASE_URL", "VITE_API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080/api"
	}

	timeout := 30 * time.Second
	if raw := os.Getenv("ADMIN_API_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_API_TIMEOUT %q: %w", raw, err)
		}
		timeout = d
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL: strings.TrimRight(baseURL, "/"),
			Timeout: timeout,
		},
		Storage: StorageConfig{
			Backend: envOr("ADMIN_STORAGE_BACKEND", "file"),
			Path:    os.Getenv("ADMIN_STORAGE_PATH"),
		},
		Server: ServerConfig{
			Addr:              envOr("SERVER_ADDR", ":8080"),
			DatabaseURL:       envOr("DATABASE_URL", "adminconsole.sqlite"),
			JWTSecret:         os.Getenv("JWT_SECRET"),
			AllowedOrigins:    splitList(envOr("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
			SeedFile:          os.Getenv("SEED_FILE"),
			BootstrapEmail:    os.Getenv("ADMIN_BOOTSTRAP_EMAIL"),
			BootstrapPassword: os.Getenv("ADMIN_BOOTSTRAP_PASSWORD"),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(envOr("LOG_LEVEL", "warn")),
			Format: strings.ToLower(envOr("LOG_FORMAT", "console")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration against its struct tags
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
