package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	infralogger "github.com/jonesrussell/north-cloud/lead-manager/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/lead-manager/internal/models"
)

const stagedLeadColumns = `id, name, email, phone, company, website, location, title,
		       source_id, source_url, source_type, discovery_status, confidence_score,
		       raw_data, imported_lead_id, created_at, updated_at`

// StagedLeadRepository stores staged leads in the discovered_leads table.
type StagedLeadRepository struct {
	db     *sqlx.DB
	logger infralogger.Logger
}

func NewStagedLeadRepository(db *sqlx.DB, log infralogger.Logger) *StagedLeadRepository {
	if log == nil {
		log = infralogger.NewNop()
	}
	return &StagedLeadRepository{db: db, logger: log}
}

// Create inserts a staged lead, assigning its id and timestamps.
func (r *StagedLeadRepository) Create(ctx context.Context, lead *models.StagedLead) error {
	now := time.Now()
	lead.ID = uuid.New().String()
	lead.CreatedAt = now
	lead.UpdatedAt = now
	if lead.DiscoveryStatus == "" {
		lead.DiscoveryStatus = models.DiscoveryPending
	}
	if len(lead.RawData) == 0 {
		lead.RawData = []byte("{}")
	}

	query := `
		INSERT INTO discovered_leads (
			id, name, email, phone, company, website, location, title,
			source_id, source_url, source_type, discovery_status, confidence_score,
			raw_data, imported_lead_id, created_at, updated_at
		) VALUES (
			:id, :name, :email, :phone, :company, :website, :location, :title,
			:source_id, :source_url, :source_type, :discovery_status, :confidence_score,
			:raw_data, :imported_lead_id, :created_at, :updated_at
		)
	`

	if _, err := r.db.NamedExecContext(ctx, query, lead); err != nil {
		return fmt.Errorf("insert discovered lead: %w", err)
	}
	return nil
}

func (r *StagedLeadRepository) GetByID(ctx context.Context, id string) (*models.StagedLead, error) {
	if err := checkID("discovered lead", id); err != nil {
		return nil, err
	}

	var lead models.StagedLead

	query := `SELECT ` + stagedLeadColumns + ` FROM discovered_leads WHERE id = $1`

	err := r.db.GetContext(ctx, &lead, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("discovered lead %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query discovered lead: %w", err)
	}
	return &lead, nil
}

// ExistsByEmailAndSourceURL reports whether the pair has already been staged, in any status.
// The match is exact; emails are not case-folded.
func (r *StagedLeadRepository) ExistsByEmailAndSourceURL(ctx context.Context, email, sourceURL string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM discovered_leads WHERE email = $1 AND source_url = $2)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email, sourceURL); err != nil {
		return false, fmt.Errorf("check discovered lead: %w", err)
	}
	return exists, nil
}

// StagedLeadFilter holds pagination and filter params for List.
type StagedLeadFilter struct {
	Limit      int
	Offset     int
	SortBy     string // created_at, confidence_score, email, name, discovery_status
	SortOrder  string // asc, desc
	Status     models.DiscoveryStatus
	SourceType models.SourceType
	SourceID   string
	MinScore   int
}

// StagedLeadSortColumns lists the columns List accepts in SortBy.
var StagedLeadSortColumns = map[string]bool{
	"created_at": true, "confidence_score": true, "email": true, "name": true, "discovery_status": true,
}

// Count returns the number of staged leads matching the filter (ignores Limit/Offset/Sort).
func (r *StagedLeadRepository) Count(ctx context.Context, filter StagedLeadFilter) (int, error) {
	whereClause, args := buildStagedLeadWhere(filter)
	query := `SELECT COUNT(*) FROM discovered_leads WHERE 1=1` + whereClause

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count discovered leads: %w", err)
	}
	return count, nil
}

// List returns staged leads with pagination, sorting and filtering.
// A zero Limit returns every matching row.
func (r *StagedLeadRepository) List(ctx context.Context, filter StagedLeadFilter) ([]models.StagedLead, error) {
	whereClause, args := buildStagedLeadWhere(filter)
	orderClause := orderBy(filter.SortBy, filter.SortOrder, StagedLeadSortColumns, "created_at", sortDesc)

	// #nosec G202 -- column names come from a whitelist, values are bound parameters
	query := `SELECT ` + stagedLeadColumns + ` FROM discovered_leads WHERE 1=1` + whereClause + orderClause
	if filter.Limit > 0 {
		query += ` LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
		args = append(args, filter.Limit, filter.Offset)
	}

	leads := make([]models.StagedLead, 0)
	if err := r.db.SelectContext(ctx, &leads, query, args...); err != nil {
		return nil, fmt.Errorf("query discovered leads: %w", err)
	}
	return leads, nil
}

func buildStagedLeadWhere(filter StagedLeadFilter) (whereClause string, args []any) {
	var clauses []string
	args = make([]any, 0)

	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if filter.Status != "" {
		add("discovery_status = $%d", filter.Status)
	}
	if filter.SourceType != "" {
		add("source_type = $%d", filter.SourceType)
	}
	if filter.SourceID != "" {
		add("source_id = $%d", filter.SourceID)
	}
	if filter.MinScore > 0 {
		add("confidence_score >= $%d", filter.MinScore)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " AND " + strings.Join(clauses, " AND "), args
}

// MarkImported moves a pending lead to imported and records the created lead id.
// Returns ErrStatusConflict if the lead exists but is no longer pending.
func (r *StagedLeadRepository) MarkImported(ctx context.Context, id, leadID string) error {
	if err := checkID("discovered lead", id); err != nil {
		return err
	}
	query := `
		UPDATE discovered_leads
		SET discovery_status = $2, imported_lead_id = $3, updated_at = $4
		WHERE id = $1 AND discovery_status = $5
	`
	result, err := r.db.ExecContext(ctx, query,
		id, models.DiscoveryImported, leadID, time.Now(), models.DiscoveryPending)
	if err != nil {
		return fmt.Errorf("mark discovered lead imported: %w", err)
	}
	return r.requireTransition(ctx, result, id)
}

// MarkIgnored moves a pending lead to ignored.
func (r *StagedLeadRepository) MarkIgnored(ctx context.Context, id string) error {
	if err := checkID("discovered lead", id); err != nil {
		return err
	}
	query := `
		UPDATE discovered_leads
		SET discovery_status = $2, updated_at = $3
		WHERE id = $1 AND discovery_status = $4
	`
	result, err := r.db.ExecContext(ctx, query,
		id, models.DiscoveryIgnored, time.Now(), models.DiscoveryPending)
	if err != nil {
		return fmt.Errorf("mark discovered lead ignored: %w", err)
	}
	return r.requireTransition(ctx, result, id)
}

// requireTransition tells a missing row apart from one that already left pending.
func (r *StagedLeadRepository) requireTransition(ctx context.Context, result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return getErr
	}
	return fmt.Errorf("discovered lead %s: %w", id, ErrStatusConflict)
}

// Stats aggregates staged leads by status.
func (r *StagedLeadRepository) Stats(ctx context.Context) (*models.StagedLeadStats, error) {
	query := `
		SELECT discovery_status, COUNT(*) AS count, COALESCE(SUM(confidence_score), 0) AS score_sum
		FROM discovered_leads
		GROUP BY discovery_status
	`

	var rows []struct {
		Status   models.DiscoveryStatus `db:"discovery_status"`
		Count    int                    `db:"count"`
		ScoreSum int64                  `db:"score_sum"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("query discovered lead stats: %w", err)
	}

	stats := &models.StagedLeadStats{
		ByStatus: map[models.DiscoveryStatus]int{
			models.DiscoveryPending:  0,
			models.DiscoveryImported: 0,
			models.DiscoveryIgnored:  0,
		},
	}
	var scoreSum int64
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
		stats.Total += row.Count
		scoreSum += row.ScoreSum
	}
	if stats.Total > 0 {
		stats.AverageScore = float64(scoreSum) / float64(stats.Total)
		stats.ImportedPercent = float64(stats.ByStatus[models.DiscoveryImported]) * 100 / float64(stats.Total)
	}
	return stats, nil
}
