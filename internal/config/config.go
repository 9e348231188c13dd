package config

import (
	"fmt"
	"os"
	"time"

	"restaurant-match-backend/internal/validation"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Catalog       CatalogConfig       `yaml:"catalog"`
	JWT           JWTConfig           `yaml:"jwt"`
	Log           LogConfig           `yaml:"log"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Presence      PresenceConfig      `yaml:"presence"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" validate:"gte=1,lte=65535"`
	Host            string        `yaml:"host"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"gte=1,lte=65535"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname" validate:"required"`
	SSLMode  string `yaml:"sslmode" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxConns int32  `yaml:"max_conns" validate:"gte=0"`
	Migrate  bool   `yaml:"migrate"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string `yaml:"addr" validate:"required"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
}

// CatalogConfig holds restaurant provider configuration
type CatalogConfig struct {
	BaseURL         string        `yaml:"base_url" validate:"required,url"`
	APIKey          string        `yaml:"api_key"`
	Timeout         time.Duration `yaml:"timeout"`
	RateLimit       float64       `yaml:"rate_limit" validate:"gte=0"`
	Burst           int           `yaml:"burst" validate:"gte=0"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	PageSize        int           `yaml:"page_size" validate:"gte=1,lte=100"`
	BreakerFailures uint32        `yaml:"breaker_failures"`
	BreakerTimeout  time.Duration `yaml:"breaker_timeout"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string `yaml:"secret" validate:"required,min=16"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// NotificationsConfig holds notification storage configuration
type NotificationsConfig struct {
	CacheSize     int           `yaml:"cache_size" validate:"gte=1"`
	PruneInterval time.Duration `yaml:"prune_interval"`
}

// PresenceConfig holds presence configuration
type PresenceConfig struct {
	OnlineTTL time.Duration `yaml:"online_ttl"`
}

// Load reads configuration from a YAML file.
// ${VAR} references are expanded from the environment before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()

	if err := validation.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Path returns the config file location, CONFIG_PATH or config.yaml
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}

// Default returns the configuration used for fields missing from the file
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Port:     5432,
			SSLMode:  "disable",
			MaxConns: 10,
			Migrate:  true,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Catalog: CatalogConfig{
			Timeout:         10 * time.Second,
			RateLimit:       5,
			Burst:           10,
			CacheTTL:        5 * time.Minute,
			PageSize:        20,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Notifications: NotificationsConfig{
			CacheSize:     50,
			PruneInterval: time.Hour,
		},
		Presence: PresenceConfig{
			OnlineTTL: 2 * time.Minute,
		},
	}
}

// applyDefaults fills values explicitly zeroed in the file
func (c *Config) applyDefaults() {
	d := Default()
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = d.Server.ShutdownTimeout
	}
	if c.Catalog.Timeout <= 0 {
		c.Catalog.Timeout = d.Catalog.Timeout
	}
	if c.Catalog.BreakerFailures == 0 {
		c.Catalog.BreakerFailures = d.Catalog.BreakerFailures
	}
	if c.Catalog.BreakerTimeout <= 0 {
		c.Catalog.BreakerTimeout = d.Catalog.BreakerTimeout
	}
	if c.Notifications.PruneInterval <= 0 {
		c.Notifications.PruneInterval = d.Notifications.PruneInterval
	}
	if c.Presence.OnlineTTL <= 0 {
		c.Presence.OnlineTTL = d.Presence.OnlineTTL
	}
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
	if c.MaxConns > 0 {
		dsn += fmt.Sprintf(" pool_max_conns=%d", c.MaxConns)
	}
	return dsn
}

// Address returns host:port for the HTTP server
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
