// Command discover runs discovery for every active source that is due.
// It is meant to be invoked by an external scheduler such as cron.
//
// Usage: discover [-config config.yml] [-source <id>]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonesrussell/north-cloud/lead-manager/internal/bootstrap"
	infralogger "github.com/jonesrussell/north-cloud/lead-manager/internal/infrastructure/logger"
)

const version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	sourceID := flag.String("source", "", "Run a single source by id instead of every due source")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	log, err := bootstrap.CreateLogger(cfg, "lead-discover", version)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := bootstrap.SetupDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	// closeRedis flushes queued run events before the process exits.
	publisher, closeRedis := bootstrap.SetupEventPublisher(ctx, cfg, log)
	defer closeRedis()

	svc := bootstrap.SetupComponents(cfg, db, publisher, log).Discovery

	if *sourceID != "" {
		result, runErr := svc.Run(ctx, *sourceID)
		if runErr != nil {
			return fmt.Errorf("run source %s: %w", *sourceID, runErr)
		}
		log.Info("Discovery finished",
			infralogger.String("source_id", result.SourceID),
			infralogger.Int("staged", result.Staged),
			infralogger.Int("skipped", result.Skipped),
		)
		return nil
	}

	due, err := svc.RunDue(ctx)
	if err != nil {
		return fmt.Errorf("run due sources: %w", err)
	}

	staged := 0
	for _, r := range due.Runs {
		staged += r.Staged
	}
	for _, f := range due.Failures {
		log.Warn("Source run failed",
			infralogger.String("source_id", f.SourceID),
			infralogger.String("error", f.Error),
		)
	}
	log.Info("Due sources processed",
		infralogger.Int("runs", len(due.Runs)),
		infralogger.Int("failures", len(due.Failures)),
		infralogger.Int("staged", staged),
	)
	return nil
}
