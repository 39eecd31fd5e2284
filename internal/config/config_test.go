package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad(t *testing.T) {
	configPath := writeConfig(t, `
debug: true
server:
  host: "0.0.0.0"
  port: 8060
database:
  host: "localhost"
  port: 5432
  user: "testuser"
  password: "testpass"
  dbname: "testdb"
discovery:
  http_timeout: 10s
  insecure_skip_verify: true
logging:
  level: debug
  format: console
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if !cfg.Debug {
		t.Error("Load() cfg.Debug = false, want true")
	}
	if cfg.Server.Port != 8060 {
		t.Errorf("Load() cfg.Server.Port = %v, want 8060", cfg.Server.Port)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("Load() cfg.Database.Host = %v, want localhost", cfg.Database.Host)
	}
	if cfg.Discovery.HTTPTimeout != 10*time.Second {
		t.Errorf("Load() cfg.Discovery.HTTPTimeout = %v, want 10s", cfg.Discovery.HTTPTimeout)
	}
	if !cfg.Discovery.InsecureSkipVerify {
		t.Error("Load() cfg.Discovery.InsecureSkipVerify = false, want true")
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Load() cfg.Logging.Format = %v, want console", cfg.Logging.Format)
	}
	if !cfg.Logging.Development {
		t.Error("Load() cfg.Logging.Development = false, want true when debug is set")
	}
}

func TestLoad_Defaults(t *testing.T) {
	configPath := writeConfig(t, `
server:
  host: "127.0.0.1"
database:
  host: "localhost"
  user: "user"
  password: "pass"
  dbname: "db"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.Server.Port != defaultServerPort {
		t.Errorf("Load() cfg.Server.Port = %v, want %v", cfg.Server.Port, defaultServerPort)
	}
	if cfg.Database.Port != defaultDatabasePort {
		t.Errorf("Load() cfg.Database.Port = %v, want %v", cfg.Database.Port, defaultDatabasePort)
	}
	if cfg.Database.SSLMode != "disable" {
		t.Errorf("Load() cfg.Database.SSLMode = %v, want disable", cfg.Database.SSLMode)
	}
	if cfg.Database.MaxOpenConns != defaultMaxOpenConns {
		t.Errorf("Load() cfg.Database.MaxOpenConns = %v, want %v", cfg.Database.MaxOpenConns, defaultMaxOpenConns)
	}
	if cfg.Server.ShutdownTimeout != defaultShutdownTimeout*time.Second {
		t.Errorf("Load() cfg.Server.ShutdownTimeout = %v, want %v", cfg.Server.ShutdownTimeout, defaultShutdownTimeout*time.Second)
	}
	if cfg.Discovery.HTTPTimeout != defaultHTTPTimeout*time.Second {
		t.Errorf("Load() cfg.Discovery.HTTPTimeout = %v, want %v", cfg.Discovery.HTTPTimeout, defaultHTTPTimeout*time.Second)
	}
	if cfg.Discovery.MaxBodyBytes != defaultMaxBodyBytes {
		t.Errorf("Load() cfg.Discovery.MaxBodyBytes = %v, want %v", cfg.Discovery.MaxBodyBytes, defaultMaxBodyBytes)
	}
	if cfg.Discovery.InsecureSkipVerify {
		t.Error("Load() cfg.Discovery.InsecureSkipVerify = true, want false by default")
	}
	if cfg.Redis.Enabled {
		t.Error("Load() cfg.Redis.Enabled = true, want false by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Load() cfg.Logging.Level = %v, want info", cfg.Logging.Level)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("REDIS_EVENTS_ENABLED", "true")
	t.Setenv("DISCOVERY_HTTP_TIMEOUT", "5s")

	configPath := writeConfig(t, `
database:
  host: "localhost"
  user: "user"
  dbname: "db"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("Load() cfg.Database.Host = %v, want db.internal", cfg.Database.Host)
	}
	if !cfg.Redis.Enabled {
		t.Error("Load() cfg.Redis.Enabled = false, want true")
	}
	if cfg.Discovery.HTTPTimeout != 5*time.Second {
		t.Errorf("Load() cfg.Discovery.HTTPTimeout = %v, want 5s", cfg.Discovery.HTTPTimeout)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yml")
	if err == nil {
		t.Error("Load() error = nil, want error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "invalid: yaml: content: [")

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() error = nil, want error for invalid YAML")
	}
}

func validConfig() Config {
	cfg := Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8060},
		Database: DatabaseConfig{
			Host:   "localhost",
			Port:   5432,
			User:   "user",
			DBName: "db",
		},
	}
	setDefaults(&cfg)
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "empty server host", mutate: func(c *Config) { c.Server.Host = "" }, wantErr: true},
		{name: "server port out of range", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "empty database host", mutate: func(c *Config) { c.Database.Host = "" }, wantErr: true},
		{name: "empty database user", mutate: func(c *Config) { c.Database.User = "" }, wantErr: true},
		{name: "empty database name", mutate: func(c *Config) { c.Database.DBName = "" }, wantErr: true},
		{
			name:    "redis enabled without address",
			mutate:  func(c *Config) { c.Redis.Enabled = true; c.Redis.Address = "" },
			wantErr: true,
		},
		{name: "redis disabled without address", mutate: func(c *Config) { c.Redis.Address = "" }},
		{name: "negative fetch timeout", mutate: func(c *Config) { c.Discovery.HTTPTimeout = -time.Second }, wantErr: true},
		{name: "zero body limit", mutate: func(c *Config) { c.Discovery.MaxBodyBytes = 0 }, wantErr: true},
		{name: "unknown log level", mutate: func(c *Config) { c.Logging.Level = "verbose" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 5433, User: "u", Password: "p", DBName: "leads", SSLMode: "require"}
	want := "host=h port=5433 user=u password=p dbname=leads sslmode=require"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
