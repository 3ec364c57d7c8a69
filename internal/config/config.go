package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Payment  PaymentConfig
	Media    MediaConfig
	Metrics  MetricsConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
	AutoMigrate     bool
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds bearer token configuration.
type AuthConfig struct {
	JWTSecret  string
	Issuer     string
	TTLMinutes int
}

// PaymentConfig holds payment provider credentials.
type PaymentConfig struct {
	Provider      string
	SecretKey     string
	WebhookSecret string
	Currency      string
}

// MediaConfig holds image storage configuration.
type MediaConfig struct {
	S3Enabled     bool
	Bucket        string
	Region        string
	Prefix        string // Path prefix within bucket (e.g., "images/")
	PublicBaseURL string
	LocalDir      string
	MaxUploadMB   int
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

const minJWTSecretLength = 32

// Load loads configuration from the environment, after applying the optional .env file.
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: databaseFromEnv(),
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: authFromEnv(),
		Payment: PaymentConfig{
			Provider:      getEnv("PAYMENT_PROVIDER", "stripe"),
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			Currency:      strings.ToUpper(getEnv("SHOP_CURRENCY", "INR")),
		},
		Media: MediaConfig{
			S3Enabled:     getEnvAsBool("MEDIA_S3_ENABLED", false),
			Bucket:        getEnv("MEDIA_S3_BUCKET", ""),
			Region:        getEnv("MEDIA_S3_REGION", "ap-south-1"),
			Prefix:        getEnv("MEDIA_S3_PREFIX", "images/"),
			PublicBaseURL: getEnv("MEDIA_PUBLIC_BASE_URL", ""),
			LocalDir:      getEnv("MEDIA_LOCAL_DIR", "./data/media"),
			MaxUploadMB:   getEnvAsInt("MEDIA_MAX_UPLOAD_MB", 10),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadDatabase loads only the database and logger sections, for operator tooling.
func LoadDatabase() (DatabaseConfig, LoggerConfig, error) {
	if err := loadEnvFile(); err != nil {
		return DatabaseConfig{}, LoggerConfig{}, err
	}

	db := databaseFromEnv()
	lg := LoggerConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "console"),
	}

	if err := db.Validate(); err != nil {
		return DatabaseConfig{}, LoggerConfig{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	if err := lg.Validate(); err != nil {
		return DatabaseConfig{}, LoggerConfig{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return db, lg, nil
}

// LoadAuth loads only the auth section, for operator tooling.
func LoadAuth() (AuthConfig, error) {
	if err := loadEnvFile(); err != nil {
		return AuthConfig{}, err
	}

	auth := authFromEnv()
	if err := auth.Validate(); err != nil {
		return AuthConfig{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return auth, nil
}

func databaseFromEnv() DatabaseConfig {
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		Database:        getEnv("DB_NAME", "aromashop"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
		MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
		MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		AutoMigrate:     getEnvAsBool("DB_AUTO_MIGRATE", true),
	}
}

func authFromEnv() AuthConfig {
	return AuthConfig{
		JWTSecret:  getEnv("JWT_SECRET", ""),
		Issuer:     getEnv("JWT_ISSUER", "aroma-shop"),
		TTLMinutes: getEnvAsInt("JWT_TTL_MINUTES", 60*24),
	}
}

// loadEnvFile applies ENV_FILE (default .env) without overriding variables already set.
func loadEnvFile() error {
	path := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validators := []interface{ Validate() error }{
		&c.Database,
		&c.Logger,
		&c.Auth,
		&c.Payment,
		&c.Media,
		&c.Metrics,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Validate validates the database section.
func (c *DatabaseConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Port)
	}

	if c.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.MinConnections > c.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	return nil
}

// Validate validates the logger section.
func (c *LoggerConfig) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}

	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Format)
	}

	return nil
}

// Validate validates the auth section.
func (c *AuthConfig) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT secret must be at least %d bytes", minJWTSecretLength)
	}
	if c.TTLMinutes < 1 {
		return fmt.Errorf("JWT TTL must be at least 1 minute")
	}
	return nil
}

// Validate validates the payment section.
func (c *PaymentConfig) Validate() error {
	if c.Provider != "stripe" {
		return fmt.Errorf("unsupported payment provider: %s (must be stripe)", c.Provider)
	}
	if c.SecretKey == "" {
		return fmt.Errorf("stripe secret key is required")
	}
	if c.WebhookSecret == "" {
		return fmt.Errorf("stripe webhook secret is required")
	}
	if len(c.Currency) != 3 {
		return fmt.Errorf("invalid shop currency: %q (must be an ISO 4217 code)", c.Currency)
	}
	return nil
}

// Validate validates the media section.
func (c *MediaConfig) Validate() error {
	if c.S3Enabled {
		if c.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}
	if c.LocalDir == "" {
		return fmt.Errorf("media local directory is required")
	}
	if c.MaxUploadMB < 1 {
		return fmt.Errorf("media max upload size must be at least 1 MB")
	}
	return nil
}

// Validate validates the metrics section.
func (c *MetricsConfig) Validate() error {
	if c.Enabled && !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("invalid metrics path: %s (must start with /)", c.Path)
	}
	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
		c.SSLMode,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TokenTTL returns the bearer token lifetime.
func (c *AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *MediaConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
