package bootstrap

import (
	"flag"
	"fmt"

	"github.com/jonesrussell/north-cloud/lead-manager/internal/config"
	infraconfig "github.com/jonesrussell/north-cloud/lead-manager/internal/infrastructure/config"
	infralogger "github.com/jonesrussell/north-cloud/lead-manager/internal/infrastructure/logger"
)

// LoadConfig loads configuration. Uses -config flag with infraconfig default.
// Commands register their own flags before calling it.
func LoadConfig() (*config.Config, error) {
	configPath := flag.String("config", infraconfig.GetConfigPath("config.yml"), "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// CreateLogger creates a logger instance from configuration.
func CreateLogger(cfg *config.Config, service, version string) (infralogger.Logger, error) {
	log, err := infralogger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return log.With(
		infralogger.String("service", service),
		infralogger.String("version", version),
	), nil
}
