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

const sourceColumns = `id, name, source_type, source_url, is_active, crawl_frequency,
		       crawl_settings, last_crawled, next_crawl, created_at, updated_at`

// SourceRepository stores discovery sources in the discovery_sources table.
type SourceRepository struct {
	db     *sqlx.DB
	logger infralogger.Logger
}

func NewSourceRepository(db *sqlx.DB, log infralogger.Logger) *SourceRepository {
	if log == nil {
		log = infralogger.NewNop()
	}
	return &SourceRepository{
		db:     db,
		logger: log,
	}
}

// Create inserts a validated source, assigning its id and timestamps.
func (r *SourceRepository) Create(ctx context.Context, source *models.DiscoverySource) error {
	if err := source.Validate(); err != nil {
		return err
	}

	now := time.Now()
	source.ID = uuid.New().String()
	source.CreatedAt = now
	source.UpdatedAt = now

	query := `
		INSERT INTO discovery_sources (
			id, name, source_type, source_url, is_active, crawl_frequency,
			crawl_settings, last_crawled, next_crawl, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx,
		query,
		source.ID,
		source.Name,
		source.SourceType,
		source.SourceURL,
		source.IsActive,
		source.CrawlFrequency,
		source.CrawlSettings,
		source.LastCrawled,
		source.NextCrawl,
		source.CreatedAt,
		source.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert discovery source: %w", err)
	}

	r.logger.Debug("Discovery source created",
		infralogger.String("source_id", source.ID),
		infralogger.String("source_type", string(source.SourceType)),
	)
	return nil
}

func (r *SourceRepository) GetByID(ctx context.Context, id string) (*models.DiscoverySource, error) {
	if err := checkID("discovery source", id); err != nil {
		return nil, err
	}

	var source models.DiscoverySource

	query := `SELECT ` + sourceColumns + ` FROM discovery_sources WHERE id = $1`

	err := r.db.GetContext(ctx, &source, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("discovery source %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query discovery source: %w", err)
	}

	return &source, nil
}

// SourceFilter holds pagination and filter params for List.
type SourceFilter struct {
	Limit      int
	Offset     int
	SortBy     string // name, source_type, created_at, next_crawl
	SortOrder  string // asc, desc
	SourceType models.SourceType
	Active     *bool // nil = all
}

var sourceSortColumns = map[string]bool{
	"name": true, "source_type": true, "created_at": true, "next_crawl": true,
}

// Count returns the number of sources matching the filter (ignores Limit/Offset/Sort).
func (r *SourceRepository) Count(ctx context.Context, filter SourceFilter) (int, error) {
	whereClause, args := buildSourceWhere(filter)
	query := `SELECT COUNT(*) FROM discovery_sources WHERE 1=1` + whereClause

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count discovery sources: %w", err)
	}
	return count, nil
}

// List returns sources with pagination, sorting and filtering.
func (r *SourceRepository) List(ctx context.Context, filter SourceFilter) ([]models.DiscoverySource, error) {
	whereClause, args := buildSourceWhere(filter)
	orderClause := orderBy(filter.SortBy, filter.SortOrder, sourceSortColumns, "name", sortAsc)
	limitPos := strconv.Itoa(len(args) + 1)
	offsetPos := strconv.Itoa(len(args) + 2)

	// #nosec G202 -- column names come from a whitelist, values are bound parameters
	query := `SELECT ` + sourceColumns + ` FROM discovery_sources WHERE 1=1` +
		whereClause + orderClause + ` LIMIT $` + limitPos + ` OFFSET $` + offsetPos
	args = append(args, filter.Limit, filter.Offset)

	sources := make([]models.DiscoverySource, 0)
	if err := r.db.SelectContext(ctx, &sources, query, args...); err != nil {
		return nil, fmt.Errorf("query discovery sources: %w", err)
	}
	return sources, nil
}

func buildSourceWhere(filter SourceFilter) (whereClause string, args []any) {
	var clauses []string
	args = make([]any, 0)
	pos := 1

	if filter.SourceType != "" {
		clauses = append(clauses, fmt.Sprintf("source_type = $%d", pos))
		args = append(args, filter.SourceType)
		pos++
	}
	if filter.Active != nil {
		clauses = append(clauses, fmt.Sprintf("is_active = $%d", pos))
		args = append(args, *filter.Active)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " AND " + strings.Join(clauses, " AND "), args
}

// Update overwrites the editable fields of a source. Crawl timestamps are left alone.
func (r *SourceRepository) Update(ctx context.Context, source *models.DiscoverySource) error {
	if err := checkID("discovery source", source.ID); err != nil {
		return err
	}
	if err := source.Validate(); err != nil {
		return err
	}
	source.UpdatedAt = time.Now()

	query := `
		UPDATE discovery_sources
		SET name = $2, source_type = $3, source_url = $4, is_active = $5,
		    crawl_frequency = $6, crawl_settings = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx,
		query,
		source.ID,
		source.Name,
		source.SourceType,
		source.SourceURL,
		source.IsActive,
		source.CrawlFrequency,
		source.CrawlSettings,
		source.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update discovery source: %w", err)
	}

	return requireRow(result, source.ID)
}

func (r *SourceRepository) Delete(ctx context.Context, id string) error {
	if err := checkID("discovery source", id); err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM discovery_sources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete discovery source: %w", err)
	}
	return requireRow(result, id)
}

// SetActive enables or disables a source.
func (r *SourceRepository) SetActive(ctx context.Context, id string, active bool) error {
	if err := checkID("discovery source", id); err != nil {
		return err
	}
	query := `UPDATE discovery_sources SET is_active = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, active, time.Now())
	if err != nil {
		return fmt.Errorf("set discovery source active: %w", err)
	}
	return requireRow(result, id)
}

// ListDue returns active sources never crawled or whose next crawl is at or before now.
func (r *SourceRepository) ListDue(ctx context.Context, now time.Time) ([]models.DiscoverySource, error) {
	query := `SELECT ` + sourceColumns + ` FROM discovery_sources
		WHERE is_active = true AND (next_crawl IS NULL OR next_crawl <= $1)
		ORDER BY next_crawl ASC NULLS FIRST, name ASC`

	sources := make([]models.DiscoverySource, 0)
	if err := r.db.SelectContext(ctx, &sources, query, now); err != nil {
		return nil, fmt.Errorf("query due discovery sources: %w", err)
	}
	return sources, nil
}

// UpdateCrawlTimes records a completed crawl.
func (r *SourceRepository) UpdateCrawlTimes(ctx context.Context, id string, lastCrawled, nextCrawl time.Time) error {
	if err := checkID("discovery source", id); err != nil {
		return err
	}
	query := `
		UPDATE discovery_sources
		SET last_crawled = $2, next_crawl = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, lastCrawled, nextCrawl, time.Now())
	if err != nil {
		return fmt.Errorf("update crawl times: %w", err)
	}
	return requireRow(result, id)
}

func requireRow(result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}
