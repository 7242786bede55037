package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Storage      StorageConfig      `yaml:"storage"`
	JWT          JWTConfig          `yaml:"jwt"`
	Log          LogConfig          `yaml:"log"`
	Notification NotificationConfig `yaml:"notification"`
	Registration RegistrationConfig `yaml:"registration"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
}

// ServerConfig contains gRPC and HTTP listener settings
type ServerConfig struct {
	Host     string `yaml:"host"`
	GRPCPort int    `yaml:"grpc_port"`
	HTTPPort int    `yaml:"http_port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// StorageConfig selects the row store backend
type StorageConfig struct {
	Type        string       `yaml:"type"` // "postgres" or "memory"
	SeedSchools []SchoolSeed `yaml:"seed_schools"`
}

// SchoolSeed is a school loaded into the memory store at startup.
type SchoolSeed struct {
	Code  string `yaml:"code"`
	Name  string `yaml:"name"`
	State string `yaml:"state"`
	Level string `yaml:"level"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret             string `yaml:"secret"`
	AccessTokenExpiry  int    `yaml:"access_token_expiry_minutes"`
	RefreshTokenExpiry int    `yaml:"refresh_token_expiry_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// NotificationConfig contains mail transport settings
type NotificationConfig struct {
	Transport      string        `yaml:"transport"` // "http", "sendgrid" or "log"
	Endpoint       string        `yaml:"endpoint"`
	SendGridAPIKey string        `yaml:"sendgrid_api_key"`
	FromEmail      string        `yaml:"from_email"`
	FromName       string        `yaml:"from_name"`
	LoginURL       string        `yaml:"login_url"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxAttempts    int           `yaml:"max_attempts"`
	BatchSize      int           `yaml:"batch_size"`
}

// RegistrationConfig contains workflow tuning
type RegistrationConfig struct {
	StoreTimeout    time.Duration `yaml:"store_timeout"`
	IdentityRetries int           `yaml:"identity_retries"`
	RepairAfter     time.Duration `yaml:"repair_after"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	DeliverNotifications string `yaml:"deliver_notifications"`
	RepairIntakes        string `yaml:"repair_intakes"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func envInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func envString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	envString("DB_HOST", &c.Database.Host)
	envInt("DB_PORT", &c.Database.Port)
	envString("DB_USER", &c.Database.User)
	envString("DB_PASSWORD", &c.Database.Password)
	envString("DB_NAME", &c.Database.Database)
	envString("DB_SSL_MODE", &c.Database.SSLMode)
	envString("STORAGE_TYPE", &c.Storage.Type)

	envString("SERVER_HOST", &c.Server.Host)
	envInt("GRPC_PORT", &c.Server.GRPCPort)
	envInt("HTTP_PORT", &c.Server.HTTPPort)

	envString("JWT_SECRET", &c.JWT.Secret)

	envString("NOTIFY_TRANSPORT", &c.Notification.Transport)
	envString("NOTIFY_ENDPOINT", &c.Notification.Endpoint)
	envString("SENDGRID_API_KEY", &c.Notification.SendGridAPIKey)
	envString("NOTIFY_FROM_EMAIL", &c.Notification.FromEmail)
	envString("LOGIN_URL", &c.Notification.LoginURL)
	envDuration("NOTIFY_TIMEOUT", &c.Notification.Timeout)

	envDuration("STORE_TIMEOUT", &c.Registration.StoreTimeout)

	envString("LOG_LEVEL", &c.Log.Level)
	envString("LOG_FORMAT", &c.Log.Format)

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks the configuration and fills defaults
func (c *Config) Validate() error {
	if c.Server.GRPCPort <= 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("invalid grpc port: %d", c.Server.GRPCPort)
	}
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid http port: %d", c.Server.HTTPPort)
	}
	if c.Server.GRPCPort == c.Server.HTTPPort {
		return fmt.Errorf("grpc and http ports must differ")
	}

	if c.Storage.Type == "" {
		c.Storage.Type = "postgres"
	}
	switch c.Storage.Type {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}
	if c.JWT.RefreshTokenExpiry == 0 {
		c.JWT.RefreshTokenExpiry = 7 * 24 * 60
	}

	if c.Notification.Transport == "" {
		c.Notification.Transport = "log"
	}
	switch c.Notification.Transport {
	case "http":
		if c.Notification.Endpoint == "" {
			return fmt.Errorf("notification endpoint is required for http transport")
		}
	case "sendgrid":
		if c.Notification.SendGridAPIKey == "" {
			return fmt.Errorf("sendgrid api key is required for sendgrid transport")
		}
		if c.Notification.FromEmail == "" {
			return fmt.Errorf("notification from_email is required for sendgrid transport")
		}
	case "log":
	default:
		return fmt.Errorf("unsupported notification transport: %s", c.Notification.Transport)
	}
	if c.Notification.Timeout == 0 {
		c.Notification.Timeout = 5 * time.Second
	}
	if c.Notification.MaxAttempts == 0 {
		c.Notification.MaxAttempts = 5
	}
	if c.Notification.BatchSize == 0 {
		c.Notification.BatchSize = 50
	}
	if c.Notification.FromName == "" {
		c.Notification.FromName = "Alumni Network"
	}

	if c.Registration.StoreTimeout == 0 {
		c.Registration.StoreTimeout = 10 * time.Second
	}
	if c.Registration.IdentityRetries == 0 {
		c.Registration.IdentityRetries = 5
	}
	if c.Registration.RepairAfter == 0 {
		c.Registration.RepairAfter = 15 * time.Minute
	}

	if c.Scheduler.DeliverNotifications == "" {
		c.Scheduler.DeliverNotifications = "0 * * * * *" // every minute
	}
	if c.Scheduler.RepairIntakes == "" {
		c.Scheduler.RepairIntakes = "0 */10 * * * *" // every 10 minutes
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetGRPCAddress returns the gRPC listen address
func (c *Config) GetGRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}

// GetHTTPAddress returns the HTTP listen address
func (c *Config) GetHTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}
