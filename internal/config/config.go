// Package config holds the lead-manager service configuration.
package config

import (
	"fmt"
	"time"

	infraconfig "github.com/jonesrussell/north-cloud/lead-manager/internal/infrastructure/config"
	infralogger "github.com/jonesrussell/north-cloud/lead-manager/internal/infrastructure/logger"
)

const (
	defaultServerPort      = 8060
	defaultServerTimeout   = 60
	defaultShutdownTimeout = 10
	defaultDatabasePort    = 5432
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5
	defaultRedisAddress    = "localhost:6379"
	defaultHTTPTimeout     = 30
	defaultMaxBodyBytes    = 5 << 20
)

type Config struct {
	Debug     bool               `env:"APP_DEBUG" yaml:"debug"`
	Server    ServerConfig       `yaml:"server"`
	Database  DatabaseConfig     `yaml:"database"`
	Redis     RedisConfig        `yaml:"redis"`
	Discovery DiscoveryConfig    `yaml:"discovery"`
	Logging   infralogger.Config `yaml:"logging"`
}

// RedisConfig holds Redis connection configuration for event publishing.
type RedisConfig struct {
	Address  string `env:"REDIS_ADDRESS"        yaml:"address"`
	Password string `env:"REDIS_PASSWORD"       yaml:"password"`
	DB       int    `env:"REDIS_DB"             yaml:"db"`
	Enabled  bool   `env:"REDIS_EVENTS_ENABLED" yaml:"enabled"` // Feature flag for event publishing
}

type ServerConfig struct {
	Host            string        `env:"SERVER_HOST"  yaml:"host"`
	Port            int           `env:"SERVER_PORT"  yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Host            string        `env:"DB_HOST"     yaml:"host"`
	Port            int           `env:"DB_PORT"     yaml:"port"`
	User            string        `env:"DB_USER"     yaml:"user"`
	Password        string        `env:"DB_PASSWORD" yaml:"password"`
	DBName          string        `env:"DB_NAME"     yaml:"dbname"`
	SSLMode         string        `env:"DB_SSLMODE"  yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN returns the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// DiscoveryConfig controls outbound crawling.
type DiscoveryConfig struct {
	HTTPTimeout time.Duration `env:"DISCOVERY_HTTP_TIMEOUT" yaml:"http_timeout"`
	UserAgent   string        `env:"DISCOVERY_USER_AGENT"   yaml:"user_agent"`
	// InsecureSkipVerify disables TLS verification so sites with self-signed or
	// expired certificates can still be crawled.
	InsecureSkipVerify bool  `env:"DISCOVERY_INSECURE_SKIP_VERIFY" yaml:"insecure_skip_verify"`
	MaxBodyBytes       int64 `env:"DISCOVERY_MAX_BODY_BYTES"       yaml:"max_body_bytes"`
}

func (c *Config) Validate() error {
	if err := infraconfig.ValidateRequired("server.host", c.Server.Host); err != nil {
		return err
	}
	if err := infraconfig.ValidatePort("server.port", c.Server.Port); err != nil {
		return err
	}
	if err := infraconfig.ValidateRequired("database.host", c.Database.Host); err != nil {
		return err
	}
	if err := infraconfig.ValidatePort("database.port", c.Database.Port); err != nil {
		return err
	}
	if err := infraconfig.ValidateRequired("database.user", c.Database.User); err != nil {
		return err
	}
	if err := infraconfig.ValidateRequired("database.dbname", c.Database.DBName); err != nil {
		return err
	}
	if c.Redis.Enabled {
		if err := infraconfig.ValidateRequired("redis.address", c.Redis.Address); err != nil {
			return err
		}
	}
	if err := infraconfig.ValidatePositive("discovery.http_timeout", int64(c.Discovery.HTTPTimeout)); err != nil {
		return err
	}
	if err := infraconfig.ValidatePositive("discovery.max_body_bytes", c.Discovery.MaxBodyBytes); err != nil {
		return err
	}
	return infraconfig.ValidateLogLevel(c.Logging.Level)
}

func Load(path string) (*Config, error) {
	cfg, err := infraconfig.LoadWithDefaults(path, setDefaults)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultServerTimeout * time.Second
	}
	// Discover-now runs synchronously, so writes get the same budget as a fetch plus staging.
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultServerTimeout * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = defaultShutdownTimeout * time.Second
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = defaultDatabasePort
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = defaultMaxOpenConns
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = defaultMaxIdleConns
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = defaultConnMaxLifetime * time.Minute
	}
	if cfg.Redis.Address == "" {
		cfg.Redis.Address = defaultRedisAddress
	}
	// Note: cfg.Redis.Enabled defaults to false (feature flag)
	if cfg.Discovery.HTTPTimeout == 0 {
		cfg.Discovery.HTTPTimeout = defaultHTTPTimeout * time.Second
	}
	if cfg.Discovery.UserAgent == "" {
		cfg.Discovery.UserAgent = "Mozilla/5.0 (compatible; North-Cloud-LeadDiscovery/1.0)"
	}
	if cfg.Discovery.MaxBodyBytes == 0 {
		cfg.Discovery.MaxBodyBytes = defaultMaxBodyBytes
	}
	cfg.Logging.SetDefaults()
	if cfg.Debug {
		cfg.Logging.Development = true
	}
}
