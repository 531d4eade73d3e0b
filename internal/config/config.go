package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/lorrc/service-desk-insights/internal/core/detection"
	"github.com/lorrc/service-desk-insights/internal/infrastructure/logging"
)

// Ticket source kinds
const (
	TicketSourcePostgres = "postgres"
	TicketSourceFile     = "file"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Ticket source configuration
	TicketSource TicketSourceConfig

	// Detection rule configuration
	Detection DetectionConfig

	// JWT configuration
	JWT JWTConfig

	// Dashboard operator credentials
	Dashboard DashboardConfig

	// Alert delivery configuration
	Alerts AlertsConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// CORS configuration
	CORS CORSConfig

	// WebSocket configuration
	WebSocket WebSocketConfig

	// Logging configuration
	Logging LoggingConfig

	// Application metadata
	App AppConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	AutoMigrate     bool
	MigrationsPath  string
}

// TicketSourceConfig selects where the ticket corpus is loaded from
type TicketSourceConfig struct {
	Kind string // postgres, file
	File string
}

// DetectionConfig holds the detection rules, defaults overridden by an
// optional YAML file
type DetectionConfig struct {
	RulesFile      string
	Rules          detection.Rules
	TrainOnStartup bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
}

// DashboardConfig holds the single operator credential
type DashboardConfig struct {
	Username     string
	PasswordHash string // bcrypt
}

// AlertsConfig holds alert delivery configuration
type AlertsConfig struct {
	ManagerEmail string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
	AuthRPS           float64 // Stricter limit for auth endpoints
	AuthBurst         int
	TrainRPS          float64 // Per-operator limit for training runs
	TrainBurst        int
}

// CORSConfig holds CORS configuration for the dashboard front-end
type CORSConfig struct {
	AllowedOrigins []string
	MaxAge         int
}

// WebSocketConfig holds WebSocket configuration
type WebSocketConfig struct {
	AllowedOrigins  []string
	ReadBufferSize  int
	WriteBufferSize int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

// Load loads configuration from the .env file and environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return FromEnv()
}

// FromEnv builds and validates the configuration from environment variables
func FromEnv() (*Config, error) {
	env := &envReader{}
	cfg := &Config{
		Server: ServerConfig{
			Port:            env.str("SERVER_PORT", ":8080"),
			ReadTimeout:     env.duration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    env.duration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     env.duration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: env.duration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    env.integer("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    env.integer("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: env.duration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: env.duration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			AutoMigrate:     env.boolean("DB_AUTO_MIGRATE", false),
			MigrationsPath:  env.str("DB_MIGRATIONS_PATH", "migrations"),
		},
		TicketSource: TicketSourceConfig{
			Kind: strings.ToLower(env.str("TICKET_SOURCE", TicketSourcePostgres)),
			File: os.Getenv("TICKETS_FILE"),
		},
		Detection: DetectionConfig{
			RulesFile:      os.Getenv("DETECTION_RULES_FILE"),
			TrainOnStartup: env.boolean("TRAIN_ON_STARTUP", true),
		},
		JWT: JWTConfig{
			Secret:         os.Getenv("JWT_SECRET"),
			AccessTokenTTL: env.duration("JWT_ACCESS_TOKEN_TTL", 1*time.Hour),
		},
		Dashboard: DashboardConfig{
			Username:     env.str("DASHBOARD_USERNAME", "admin"),
			PasswordHash: os.Getenv("DASHBOARD_PASSWORD_HASH"),
		},
		Alerts: AlertsConfig{
			ManagerEmail: os.Getenv("ALERT_MANAGER_EMAIL"),
		},
		RateLimit: RateLimitConfig{
			Enabled:           env.boolean("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: env.float("RATE_LIMIT_RPS", 10),
			BurstSize:         env.integer("RATE_LIMIT_BURST", 20),
			AuthRPS:           env.float("RATE_LIMIT_AUTH_RPS", 1),
			AuthBurst:         env.integer("RATE_LIMIT_AUTH_BURST", 5),
			TrainRPS:          env.float("RATE_LIMIT_TRAIN_RPS", 0.1),
			TrainBurst:        env.integer("RATE_LIMIT_TRAIN_BURST", 2),
		},
		CORS: CORSConfig{
			AllowedOrigins: env.list("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			MaxAge:         env.integer("CORS_MAX_AGE", 300),
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins:  env.list("WS_ALLOWED_ORIGINS", []string{}),
			ReadBufferSize:  env.integer("WS_READ_BUFFER_SIZE", 1024),
			WriteBufferSize: env.integer("WS_WRITE_BUFFER_SIZE", 1024),
		},
		Logging: LoggingConfig{
			Level:  env.str("LOG_LEVEL", "info"),
			Format: env.str("LOG_FORMAT", "json"),
		},
		App: AppConfig{
			Name:        env.str("APP_NAME", "service-desk-insights"),
			Version:     env.str("APP_VERSION", "dev"),
			Environment: env.str("APP_ENV", "development"),
		},
	}

	errs := env.errs

	rules, err := detection.LoadRules(cfg.Detection.RulesFile)
	if err != nil {
		errs = append(errs, fmt.Sprintf("DETECTION_RULES_FILE: %v", err))
	}
	cfg.Detection.Rules = rules

	if err := cfg.Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return nil, errors.New("configuration errors:\n  - " + strings.Join(errs, "\n  - "))
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []string

	switch c.TicketSource.Kind {
	case TicketSourcePostgres:
		if c.Database.URL == "" {
			errs = append(errs, "DATABASE_URL is required when TICKET_SOURCE=postgres")
		}
	case TicketSourceFile:
		if c.TicketSource.File == "" {
			errs = append(errs, "TICKETS_FILE is required when TICKET_SOURCE=file")
		}
	default:
		errs = append(errs, fmt.Sprintf("TICKET_SOURCE must be %q or %q", TicketSourcePostgres, TicketSourceFile))
	}

	if c.JWT.Secret == "" {
		errs = append(errs, "JWT_SECRET is required")
	}

	if c.Dashboard.Username == "" {
		errs = append(errs, "DASHBOARD_USERNAME is required")
	}
	if c.Dashboard.PasswordHash == "" {
		errs = append(errs, "DASHBOARD_PASSWORD_HASH is required")
	}

	// Security validations
	if c.IsProduction() {
		if len(c.JWT.Secret) < 32 {
			errs = append(errs, "JWT_SECRET must be at least 32 characters in production")
		}

		if len(c.WebSocket.AllowedOrigins) == 0 {
			errs = append(errs, "WS_ALLOWED_ORIGINS must be set in production")
		}

		if c.Alerts.ManagerEmail == "" {
			errs = append(errs, "ALERT_MANAGER_EMAIL must be set in production")
		}
	}

	if _, ok := logging.ParseLevel(c.Logging.Level); !ok {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	if f := c.Logging.Format; f != "" && f != "json" && f != "text" {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT %q is not one of json, text", c.Logging.Format))
	}

	// Logical validations
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		errs = append(errs, "DB_MAX_IDLE_CONNS cannot be greater than DB_MAX_OPEN_CONNS")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// envReader reads typed settings from the environment. Unset variables
// take the default; malformed ones are recorded and also take the default.
type envReader struct {
	errs []string
}

func readEnv[T any](e *envReader, key string, def T, parse func(string) (T, error)) T {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	value, err := parse(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("%s: cannot parse %q", key, raw))
		return def
	}
	return value
}

func (e *envReader) str(key, def string) string {
	return readEnv(e, key, def, func(s string) (string, error) { return s, nil })
}

func (e *envReader) integer(key string, def int) int {
	return readEnv(e, key, def, strconv.Atoi)
}

func (e *envReader) float(key string, def float64) float64 {
	return readEnv(e, key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func (e *envReader) boolean(key string, def bool) bool {
	return readEnv(e, key, def, strconv.ParseBool)
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	return readEnv(e, key, def, time.ParseDuration)
}

// list splits a comma-separated variable, dropping blank entries.
func (e *envReader) list(key string, def []string) []string {
	return readEnv(e, key, def, func(s string) ([]string, error) {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		if len(out) == 0 {
			return def, nil
		}
		return out, nil
	})
}

// String returns a redacted string representation of the config (safe for logging)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Server: %s, Source: %s, DB: %s, JWT: [REDACTED], RateLimit: %v, Environment: %s}",
		c.Server.Port,
		c.TicketSource.Kind,
		redactURL(c.Database.URL),
		c.RateLimit.Enabled,
		c.App.Environment,
	)
}

// redactURL hides the credentials of a database URL.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "[REDACTED]"
	}
	if u.User != nil {
		u.User = url.User("REDACTED")
	}
	return u.String()
}
