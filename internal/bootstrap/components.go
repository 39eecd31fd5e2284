package bootstrap

import (
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/lead-manager/internal/config"
	"github.com/jonesrussell/north-cloud/lead-manager/internal/discovery"
	"github.com/jonesrussell/north-cloud/lead-manager/internal/events"
	infralogger "github.com/jonesrussell/north-cloud/lead-manager/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/lead-manager/internal/metadata"
	"github.com/jonesrussell/north-cloud/lead-manager/internal/repository"
)

// Components holds the wired repositories and the discovery service.
type Components struct {
	Sources     *repository.SourceRepository
	StagedLeads *repository.StagedLeadRepository
	Leads       *repository.LeadRepository
	Discovery   *discovery.Service
	Metadata    *metadata.Extractor
}

// SetupComponents builds the repositories, extractors and discovery service.
// publisher may be nil, in which case no events are emitted.
func SetupComponents(
	cfg *config.Config,
	db *sqlx.DB,
	publisher *events.Publisher,
	log infralogger.Logger,
) *Components {
	sources := repository.NewSourceRepository(db, log)
	staged := repository.NewStagedLeadRepository(db, log)
	leads := repository.NewLeadRepository(db, log)

	fetcher := discovery.NewFetcher(discovery.FetchConfig{
		Timeout:            cfg.Discovery.HTTPTimeout,
		UserAgent:          cfg.Discovery.UserAgent,
		InsecureSkipVerify: cfg.Discovery.InsecureSkipVerify,
		MaxBodyBytes:       cfg.Discovery.MaxBodyBytes,
	})

	var opts []discovery.Option
	if publisher != nil {
		opts = append(opts, discovery.WithPublisher(publisher))
	}

	return &Components{
		Sources:     sources,
		StagedLeads: staged,
		Leads:       leads,
		Metadata:    metadata.NewExtractor(fetcher, log),
		Discovery: discovery.NewService(
			sources, staged, leads,
			discovery.DefaultExtractors(fetcher),
			log.With(infralogger.String("component", "discovery")),
			opts...,
		),
	}
}
