// Package discovery finds candidate leads in configured sources, scores and stages
// them, and promotes reviewed leads into the lead store.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/north-cloud/lead-manager/internal/events"
	infralogger "github.com/jonesrussell/north-cloud/lead-manager/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/lead-manager/internal/models"
	"github.com/jonesrussell/north-cloud/lead-manager/internal/repository"
)

// SourceStore is the source registry as seen by the orchestrator.
type SourceStore interface {
	GetByID(ctx context.Context, id string) (*models.DiscoverySource, error)
	ListDue(ctx context.Context, now time.Time) ([]models.DiscoverySource, error)
	UpdateCrawlTimes(ctx context.Context, id string, lastCrawled, nextCrawl time.Time) error
}

// StagedLeadStore persists staged leads.
type StagedLeadStore interface {
	ExistsByEmailAndSourceURL(ctx context.Context, email, sourceURL string) (bool, error)
	Create(ctx context.Context, lead *models.StagedLead) error
	GetByID(ctx context.Context, id string) (*models.StagedLead, error)
	MarkImported(ctx context.Context, id, leadID string) error
	MarkIgnored(ctx context.Context, id string) error
}

// LeadStore is the authoritative lead store imports write to.
type LeadStore interface {
	Create(ctx context.Context, input models.LeadInput) (string, error)
}

// EventPublisher receives best-effort lifecycle notifications.
type EventPublisher interface {
	PublishAsync(event events.DiscoveryEvent)
}

// RunResult summarises one discovery run.
type RunResult struct {
	SourceID    string    `json:"source_id"`
	Discovered  int       `json:"discovered"`
	Staged      int       `json:"staged"`
	Skipped     int       `json:"skipped"`
	LastCrawled time.Time `json:"last_crawled"`
	NextCrawl   time.Time `json:"next_crawl"`
}

// RunFailure records a source whose run failed during RunDue.
type RunFailure struct {
	SourceID string `json:"source_id"`
	Error    string `json:"error"`
}

// DueResult summarises a RunDue pass.
type DueResult struct {
	Runs     []RunResult  `json:"runs"`
	Failures []RunFailure `json:"failures"`
}

// BulkItemError reports one failed id in a bulk import.
type BulkItemError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BulkResult summarises a bulk import. Successful imports are not rolled back
// when later ones fail.
type BulkResult struct {
	Imported int             `json:"imported"`
	Failed   int             `json:"failed"`
	Errors   []BulkItemError `json:"errors"`
}

// Service runs discovery and manages the staged lead lifecycle.
type Service struct {
	sources    SourceStore
	staged     StagedLeadStore
	leads      LeadStore
	extractors Extractors
	publisher  EventPublisher
	log        infralogger.Logger
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the event publisher. A nil publisher disables events.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a discovery service.
func NewService(
	sources SourceStore,
	staged StagedLeadStore,
	leads LeadStore,
	extractors Extractors,
	log infralogger.Logger,
	opts ...Option,
) *Service {
	if log == nil {
		log = infralogger.NewNop()
	}
	s := &Service{
		sources:    sources,
		staged:     staged,
		leads:      leads,
		extractors: extractors,
		log:        log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// logger prefers the request-scoped logger carried by ctx.
func (s *Service) logger(ctx context.Context) infralogger.Logger {
	return infralogger.FromContext(ctx, s.log)
}

// Run discovers leads from one source and stages the new ones.
// Crawl timestamps only advance when extraction succeeds.
func (s *Service) Run(ctx context.Context, sourceID string) (*RunResult, error) {
	source, err := s.sources.GetByID(ctx, sourceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, sourceID)
		}
		return nil, fmt.Errorf("load source: %w", err)
	}
	if !source.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrSourceInactive, sourceID)
	}

	extractor, ok := s.extractors[source.SourceType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSourceType, source.SourceType)
	}

	log := s.logger(ctx).With(
		infralogger.String("source_id", source.ID),
		infralogger.String("source_type", string(source.SourceType)),
	)
	log.Info("Discovery run started", infralogger.String("source_url", source.SourceURL))
	start := s.now()

	candidates, err := extractor.Extract(ctx, source.SourceURL, source.CrawlSettings)
	if err != nil {
		log.Warn("Extraction failed", infralogger.Error(err))
		return nil, fmt.Errorf("extract %s: %w", source.SourceURL, err)
	}

	result := &RunResult{SourceID: source.ID, Discovered: len(candidates)}
	for _, candidate := range candidates {
		staged, stageErr := s.stage(ctx, source, candidate)
		if stageErr != nil {
			return nil, stageErr
		}
		if staged {
			result.Staged++
		} else {
			result.Skipped++
		}
	}

	now := s.now()
	next := models.CalculateNextCrawl(now, source.CrawlFrequency)
	if updateErr := s.sources.UpdateCrawlTimes(ctx, source.ID, now, next); updateErr != nil {
		return nil, fmt.Errorf("update crawl times: %w", updateErr)
	}
	result.LastCrawled = now
	result.NextCrawl = next

	log.Info("Discovery run completed",
		infralogger.Int("discovered", result.Discovered),
		infralogger.Int("staged", result.Staged),
		infralogger.Int("skipped", result.Skipped),
		infralogger.Duration("duration", now.Sub(start)),
	)

	s.publish(events.DiscoveryEvent{
		EventType: events.DiscoveryRunCompleted,
		SourceID:  source.ID,
		Payload: events.RunCompletedPayload{
			Discovered: result.Discovered,
			Staged:     result.Staged,
			Skipped:    result.Skipped,
			NextCrawl:  next,
		},
	})

	return result, nil
}

// stage scores and inserts a candidate unless (email, source_url) is already staged.
// The check and the insert are not atomic; concurrent runs of one source can stage a duplicate.
func (s *Service) stage(ctx context.Context, source *models.DiscoverySource, c models.Candidate) (bool, error) {
	if !c.HasEmail() {
		return false, nil
	}

	exists, err := s.staged.ExistsByEmailAndSourceURL(ctx, c.Email, source.SourceURL)
	if err != nil {
		return false, fmt.Errorf("check duplicate %s: %w", c.Email, err)
	}
	if exists {
		s.logger(ctx).Debug("Skipping duplicate candidate",
			infralogger.String("source_id", source.ID),
			infralogger.String("email", c.Email),
		)
		return false, nil
	}

	lead := models.NewStagedLead(c, source, Score(c))
	if createErr := s.staged.Create(ctx, lead); createErr != nil {
		return false, fmt.Errorf("stage %s: %w", c.Email, createErr)
	}
	return true, nil
}

// RunDue runs every active source whose next crawl is unset or has passed.
// Sources run one after another; a failing source does not stop the rest.
func (s *Service) RunDue(ctx context.Context) (*DueResult, error) {
	due, err := s.sources.ListDue(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("list due sources: %w", err)
	}

	result := &DueResult{
		Runs:     make([]RunResult, 0, len(due)),
		Failures: make([]RunFailure, 0),
	}
	for i := range due {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		run, runErr := s.Run(ctx, due[i].ID)
		if runErr != nil {
			s.logger(ctx).Error("Scheduled discovery run failed",
				infralogger.String("source_id", due[i].ID),
				infralogger.Error(runErr),
			)
			result.Failures = append(result.Failures, RunFailure{SourceID: due[i].ID, Error: runErr.Error()})
			continue
		}
		result.Runs = append(result.Runs, *run)
	}
	return result, nil
}

// Import promotes a pending staged lead into the lead store and returns the new lead id.
// Lead store failures are returned unchanged and leave the staged lead pending.
func (s *Service) Import(ctx context.Context, id string) (string, error) {
	lead, err := s.getPending(ctx, id)
	if err != nil {
		return "", err
	}

	leadID, err := s.leads.Create(ctx, BuildLeadInput(lead))
	if err != nil {
		return "", err
	}

	if markErr := s.staged.MarkImported(ctx, id, leadID); markErr != nil {
		if errors.Is(markErr, repository.ErrStatusConflict) {
			s.logger(ctx).Warn("Staged lead changed state during import",
				infralogger.String("discovered_lead_id", id),
				infralogger.String("lead_id", leadID),
			)
			return "", fmt.Errorf("%w: %s", ErrInvalidTransition, id)
		}
		return "", fmt.Errorf("mark imported: %w", markErr)
	}

	s.logger(ctx).Info("Discovered lead imported",
		infralogger.String("discovered_lead_id", id),
		infralogger.String("lead_id", leadID),
	)
	s.publish(events.DiscoveryEvent{
		EventType:        events.LeadImported,
		SourceID:         lead.SourceID,
		DiscoveredLeadID: id,
		LeadID:           leadID,
	})
	return leadID, nil
}

// Reject marks a pending staged lead as ignored.
func (s *Service) Reject(ctx context.Context, id string) error {
	lead, err := s.getPending(ctx, id)
	if err != nil {
		return err
	}

	if markErr := s.staged.MarkIgnored(ctx, id); markErr != nil {
		if errors.Is(markErr, repository.ErrStatusConflict) {
			return fmt.Errorf("%w: %s", ErrInvalidTransition, id)
		}
		return fmt.Errorf("mark ignored: %w", markErr)
	}

	s.logger(ctx).Info("Discovered lead rejected", infralogger.String("discovered_lead_id", id))
	s.publish(events.DiscoveryEvent{
		EventType:        events.LeadRejected,
		SourceID:         lead.SourceID,
		DiscoveredLeadID: id,
	})
	return nil
}

// BulkImport imports each id in order and reports per-item outcomes.
func (s *Service) BulkImport(ctx context.Context, ids []string) *BulkResult {
	result := &BulkResult{Errors: make([]BulkItemError, 0)}
	for _, id := range ids {
		if _, err := s.Import(ctx, id); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, BulkItemError{ID: id, Error: err.Error()})
			continue
		}
		result.Imported++
	}
	return result
}

func (s *Service) getPending(ctx context.Context, id string) (*models.StagedLead, error) {
	lead, err := s.staged.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrLeadNotFound, id)
		}
		return nil, fmt.Errorf("load discovered lead: %w", err)
	}
	if lead.DiscoveryStatus != models.DiscoveryPending {
		return nil, fmt.Errorf("%w: %s is %s", ErrInvalidTransition, id, lead.DiscoveryStatus)
	}
	return lead, nil
}

func (s *Service) publish(event events.DiscoveryEvent) {
	if s.publisher == nil {
		return
	}
	event.Timestamp = s.now().UTC()
	s.publisher.PublishAsync(event)
}

// BuildLeadInput maps a staged lead to the lead store's create input.
func BuildLeadInput(lead *models.StagedLead) models.LeadInput {
	return models.LeadInput{
		Name:     lead.Name,
		Email:    lead.Email,
		Phone:    lead.Phone,
		Source:   models.LeadSourceDiscovery,
		Status:   models.LeadStatusNew,
		Priority: models.LeadPriorityMedium,
		Metadata: map[string]string{
			"company":            lead.Company,
			"website":            lead.Website,
			"location":           lead.Location,
			"title":              lead.Title,
			"discovered_lead_id": lead.ID,
		},
	}
}
