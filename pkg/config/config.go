package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Daily pipeline
	Pipeline PipelineConfig

	// External APIs
	External ExternalConfig

	// Mail notification
	Mail MailConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string // optional override, built from the fields above when empty

	// MaintenanceName is the database used to issue CREATE DATABASE
	MaintenanceName string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// PipelineConfig holds daily pipeline configuration
type PipelineConfig struct {
	Workers            int    // parallel stage group size
	StrategyConfigPath string // strategies.yaml, empty = built-in sources
	StageOutputSource  string // db, http
	StageServiceURL    string // base URL triggering the data-prep stages
	Schedule           string // cron expression (with seconds)
	MaxRetries         int
}

// ExternalConfig holds external API configuration
type ExternalConfig struct {
	InstockBaseURL   string
	EastmoneyBaseURL string
	RateLimitPerSec  int
}

// MailConfig holds SMTP notification configuration
type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	To       string
}

// Enabled reports whether mail notification is configured
func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.User != "" && m.To != ""
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "9988"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "instockdb"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaintenanceName: getEnv("DB_MAINTENANCE_NAME", "postgres"),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Pipeline: PipelineConfig{
			Workers:            getEnvAsInt("PIPELINE_WORKERS", 3),
			StrategyConfigPath: getEnv("STRATEGY_CONFIG", ""),
			StageOutputSource:  getEnv("STAGE_OUTPUT_SOURCE", "db"),
			StageServiceURL:    getEnv("STAGE_SERVICE_URL", ""),
			Schedule:           getEnv("PIPELINE_SCHEDULE", "0 0 17 * * MON-FRI"),
			MaxRetries:         getEnvAsInt("PIPELINE_MAX_RETRIES", 0),
		},

		External: ExternalConfig{
			InstockBaseURL:   getEnv("INSTOCK_BASE_URL", "http://localhost:9988"),
			EastmoneyBaseURL: getEnv("EASTMONEY_BASE_URL", "https://datacenter-web.eastmoney.com"),
			RateLimitPerSec:  getEnvAsInt("EXTERNAL_RATE_LIMIT", 5),
		},

		Mail: MailConfig{
			Host:     getEnv("MAIL_HOST", ""),
			Port:     getEnvAsInt("MAIL_PORT", 587),
			User:     getEnv("MAIL_USER", ""),
			Password: getEnv("MAIL_PASSWORD", ""),
			To:       getEnv("MAIL_TO", ""),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" && c.Database.Name == "" {
		return fmt.Errorf("DB_NAME or DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("PIPELINE_WORKERS must be >= 1")
	}

	if c.Pipeline.StageOutputSource != "db" && c.Pipeline.StageOutputSource != "http" {
		return fmt.Errorf("STAGE_OUTPUT_SOURCE must be one of: db, http")
	}

	return nil
}

// ConnString returns the connection string of the target database
func (d DatabaseConfig) ConnString() string {
	if d.URL != "" {
		return d.URL
	}
	return d.connString(d.Name)
}

// MaintenanceConnString returns the connection string used to create the target database
func (d DatabaseConfig) MaintenanceConnString() string {
	if d.URL != "" {
		u, err := url.Parse(d.URL)
		if err == nil {
			u.Path = "/" + d.MaintenanceName
			return u.String()
		}
	}
	return d.connString(d.MaintenanceName)
}

// DatabaseName returns the target database name, taken from URL when set
func (d DatabaseConfig) DatabaseName() string {
	if d.URL != "" {
		if u, err := url.Parse(d.URL); err == nil && len(u.Path) > 1 {
			return u.Path[1:]
		}
	}
	return d.Name
}

func (d DatabaseConfig) connString(dbName string) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(d.Host, d.Port),
		Path:   "/" + dbName,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else if d.User != "" {
		u.User = url.User(d.User)
	}
	return u.String()
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
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
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
