// Command exportleads writes discovered leads to an xlsx workbook.
//
// Usage: exportleads -out leads.xlsx [-status pending] [-min-score 60]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jonesrussell/north-cloud/lead-manager/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/lead-manager/internal/export"
	infralogger "github.com/jonesrussell/north-cloud/lead-manager/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/lead-manager/internal/models"
	"github.com/jonesrussell/north-cloud/lead-manager/internal/repository"
)

const version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	out := flag.String("out", "discovered-leads.xlsx", "Output path")
	status := flag.String("status", "", "Only export leads in this status (pending, imported, ignored)")
	sourceType := flag.String("source-type", "", "Only export leads from this source type")
	minScore := flag.Int("min-score", 0, "Only export leads scoring at least this much")

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	filter := repository.StagedLeadFilter{
		SortBy:     "confidence_score",
		SortOrder:  "desc",
		Status:     models.DiscoveryStatus(*status),
		SourceType: models.SourceType(*sourceType),
		MinScore:   *minScore,
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return fmt.Errorf("unknown status %q", *status)
	}
	if filter.SourceType != "" && !filter.SourceType.Valid() {
		return fmt.Errorf("unknown source type %q", *sourceType)
	}

	log, err := bootstrap.CreateLogger(cfg, "lead-export", version)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	db, err := bootstrap.SetupDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	leads, err := repository.NewStagedLeadRepository(db, log).List(ctx, filter)
	if err != nil {
		return fmt.Errorf("list discovered leads: %w", err)
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}
	if writeErr := export.WriteStagedLeads(f, leads); writeErr != nil {
		_ = f.Close()
		return fmt.Errorf("write workbook: %w", writeErr)
	}
	if closeErr := f.Close(); closeErr != nil {
		return fmt.Errorf("close %s: %w", *out, closeErr)
	}

	log.Info("Discovered leads exported",
		infralogger.String("path", *out),
		infralogger.Int("count", len(leads)),
	)
	return nil
}
