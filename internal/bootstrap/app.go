// Package bootstrap handles application initialization and lifecycle management
// for the lead-manager service.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	infralogger "github.com/jonesrussell/north-cloud/lead-manager/internal/infrastructure/logger"
)

const version = "dev"

// Start initializes and runs the lead-manager API until SIGINT or SIGTERM.
func Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Phase 1: Load config and create logger
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := CreateLogger(cfg, "lead-manager", version)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// Phase 2: Setup database
	db, err := SetupDatabase(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("Failed to close database", infralogger.Error(closeErr))
		}
	}()

	// Phase 3: Setup event publisher (optional)
	publisher, closeRedis := SetupEventPublisher(ctx, cfg, log)
	defer closeRedis()

	// Phase 4: Wire repositories and the discovery service
	components := SetupComponents(cfg, db, publisher, log)

	// Phase 5: Setup and run HTTP server
	server := SetupHTTPServer(cfg, db, components, log)

	log.Info("Starting HTTP server",
		infralogger.String("host", cfg.Server.Host),
		infralogger.Int("port", cfg.Server.Port),
	)

	if runErr := server.Run(ctx); runErr != nil {
		log.Error("Server error", infralogger.Error(runErr))
		return fmt.Errorf("server error: %w", runErr)
	}

	log.Info("Server exited")
	return nil
}
