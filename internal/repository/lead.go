package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	infralogger "github.com/jonesrussell/north-cloud/lead-manager/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/lead-manager/internal/models"
)

const leadColumns = `id, name, email, phone, source, status, priority, assigned_user,
		       tags, metadata, created_at, updated_at`

// LeadRepository is the Postgres lead store.
type LeadRepository struct {
	db       *sqlx.DB
	validate *validator.Validate
	logger   infralogger.Logger
}

func NewLeadRepository(db *sqlx.DB, log infralogger.Logger) *LeadRepository {
	if log == nil {
		log = infralogger.NewNop()
	}
	return &LeadRepository{
		db:       db,
		validate: validator.New(),
		logger:   log,
	}
}

// Create validates and inserts a lead and returns its id.
// Validation failures, including a duplicate email, are *models.ValidationError.
func (r *LeadRepository) Create(ctx context.Context, input models.LeadInput) (string, error) {
	input.Email = strings.TrimSpace(input.Email)
	if err := r.validateInput(input); err != nil {
		return "", err
	}

	existing, err := r.FindByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", err
	}
	if existing != nil {
		return "", &models.ValidationError{Field: "email", Message: "already exists"}
	}

	metadata, err := json.Marshal(nonNilMetadata(input.Metadata))
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}

	id := uuid.New().String()
	now := time.Now()
	query := `
		INSERT INTO leads (
			id, name, email, phone, source, status, priority, assigned_user,
			tags, metadata, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.db.ExecContext(ctx, query,
		id,
		input.Name,
		input.Email,
		input.Phone,
		input.Source,
		input.Status,
		input.Priority,
		input.AssignedUser,
		pq.Array(nonNilTags(input.Tags)),
		metadata,
		now,
		now,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return "", &models.ValidationError{Field: "email", Message: "already exists"}
		}
		return "", fmt.Errorf("insert lead: %w", err)
	}

	r.logger.Debug("Lead created",
		infralogger.String("lead_id", id),
		infralogger.String("source", input.Source),
	)
	return id, nil
}

func (r *LeadRepository) validateInput(input models.LeadInput) error {
	if input.Email == "" {
		return &models.ValidationError{Field: "email", Message: "is required"}
	}
	if err := r.validate.Var(input.Email, "email"); err != nil {
		return &models.ValidationError{Field: "email", Message: "is not a valid email address"}
	}
	if !models.ValidStatus(input.Status) {
		return &models.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", input.Status)}
	}
	if !models.ValidPriority(input.Priority) {
		return &models.ValidationError{Field: "priority", Message: fmt.Sprintf("unknown priority %q", input.Priority)}
	}
	return nil
}

// FindByEmail returns the lead with the given email or ErrNotFound.
func (r *LeadRepository) FindByEmail(ctx context.Context, email string) (*models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE email = $1 LIMIT 1`
	return r.getOne(ctx, query, email)
}

func (r *LeadRepository) GetByID(ctx context.Context, id string) (*models.Lead, error) {
	if err := checkID("lead", id); err != nil {
		return nil, err
	}
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *LeadRepository) getOne(ctx context.Context, query string, arg any) (*models.Lead, error) {
	var lead models.Lead
	var metadata []byte
	var tags pq.StringArray

	err := r.db.QueryRowxContext(ctx, query, arg).Scan(
		&lead.ID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.Source,
		&lead.Status,
		&lead.Priority,
		&lead.AssignedUser,
		&tags,
		&metadata,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lead: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query lead: %w", err)
	}

	lead.Tags = nonNilTags(tags)
	lead.Metadata = map[string]string{}
	if len(metadata) > 0 {
		if unmarshalErr := json.Unmarshal(metadata, &lead.Metadata); unmarshalErr != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", unmarshalErr)
		}
	}
	return &lead, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func nonNilMetadata(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
