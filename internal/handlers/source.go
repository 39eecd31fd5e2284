package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/lead-manager/internal/discovery"
	"github.com/jonesrussell/north-cloud/lead-manager/internal/importer"
	infralogger "github.com/jonesrussell/north-cloud/lead-manager/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/lead-manager/internal/models"
	"github.com/jonesrussell/north-cloud/lead-manager/internal/repository"
)

// SourceRepository is the source registry used by SourceHandler.
type SourceRepository interface {
	Create(ctx context.Context, source *models.DiscoverySource) error
	GetByID(ctx context.Context, id string) (*models.DiscoverySource, error)
	List(ctx context.Context, filter repository.SourceFilter) ([]models.DiscoverySource, error)
	Count(ctx context.Context, filter repository.SourceFilter) (int, error)
	Update(ctx context.Context, source *models.DiscoverySource) error
	Delete(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) error
}

// DiscoveryRunner runs discovery for a single source.
type DiscoveryRunner interface {
	Run(ctx context.Context, sourceID string) (*discovery.RunResult, error)
}

type SourceHandler struct {
	repo   SourceRepository
	runner DiscoveryRunner
	logger infralogger.Logger
}

func NewSourceHandler(repo SourceRepository, runner DiscoveryRunner, log infralogger.Logger) *SourceHandler {
	return &SourceHandler{
		repo:   repo,
		runner: runner,
		logger: log,
	}
}

// sourceRequest is the writable part of a discovery source.
type sourceRequest struct {
	Name           string                `json:"name"`
	SourceType     models.SourceType     `json:"source_type"`
	SourceURL      string                `json:"source_url"`
	IsActive       *bool                 `json:"is_active"`
	CrawlFrequency models.CrawlFrequency `json:"crawl_frequency"`
	CrawlSettings  models.CrawlSettings  `json:"crawl_settings"`
}

func (r sourceRequest) toSource() *models.DiscoverySource {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return &models.DiscoverySource{
		Name:           r.Name,
		SourceType:     r.SourceType,
		SourceURL:      r.SourceURL,
		IsActive:       active,
		CrawlFrequency: r.CrawlFrequency,
		CrawlSettings:  r.CrawlSettings,
	}
}

func (h *SourceHandler) Create(c *gin.Context) {
	var req sourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "Invalid request body", err)
		return
	}

	source := req.toSource()
	if err := h.repo.Create(c.Request.Context(), source); err != nil {
		respondError(c, h.logger, "Failed to create source", err,
			infralogger.String("source_name", source.Name),
		)
		return
	}

	h.logger.Info("Discovery source created",
		infralogger.String("source_id", source.ID),
		infralogger.String("source_name", source.Name),
	)

	c.JSON(http.StatusCreated, source)
}

func (h *SourceHandler) GetByID(c *gin.Context) {
	id := c.Param("id")

	source, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "Source not found", err, infralogger.String("source_id", id))
		return
	}

	c.JSON(http.StatusOK, source)
}

func (h *SourceHandler) List(c *gin.Context) {
	page, err := parsePagination(c)
	if err != nil {
		badRequest(c, h.logger, "Invalid pagination", err)
		return
	}
	active, err := parseOptionalBool(c, "is_active")
	if err != nil {
		badRequest(c, h.logger, "Invalid filter", err)
		return
	}

	filter := repository.SourceFilter{
		Limit:      page.PerPage,
		Offset:     page.offset(),
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
		SourceType: models.SourceType(c.Query("source_type")),
		Active:     active,
	}
	if filter.SourceType != "" && !filter.SourceType.Valid() {
		badRequest(c, h.logger, "Invalid filter", errors.New("unknown source_type"))
		return
	}

	ctx := c.Request.Context()
	total, err := h.repo.Count(ctx, filter)
	if err != nil {
		respondError(c, h.logger, "Failed to list sources", err)
		return
	}
	sources, err := h.repo.List(ctx, filter)
	if err != nil {
		respondError(c, h.logger, "Failed to list sources", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sources":  sources,
		"total":    total,
		"page":     page.Page,
		"per_page": page.PerPage,
	})
}

func (h *SourceHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var req sourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "Invalid request body", err)
		return
	}

	ctx := c.Request.Context()
	existing, err := h.repo.GetByID(ctx, id)
	if err != nil {
		respondError(c, h.logger, "Source not found", err, infralogger.String("source_id", id))
		return
	}

	source := req.toSource()
	source.ID = id
	if req.IsActive == nil {
		source.IsActive = existing.IsActive
	}

	if updateErr := h.repo.Update(ctx, source); updateErr != nil {
		respondError(c, h.logger, "Failed to update source", updateErr, infralogger.String("source_id", id))
		return
	}

	h.logger.Info("Discovery source updated",
		infralogger.String("source_id", id),
		infralogger.String("source_name", source.Name),
	)

	// Re-read so crawl timestamps are included.
	updated, err := h.repo.GetByID(ctx, id)
	if err != nil {
		c.JSON(http.StatusOK, source)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *SourceHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, "Failed to delete source", err, infralogger.String("source_id", id))
		return
	}

	h.logger.Info("Discovery source deleted",
		infralogger.String("source_id", id),
	)

	c.Status(http.StatusNoContent)
}

// ToggleActive flips is_active and returns the updated source.
func (h *SourceHandler) ToggleActive(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	source, err := h.repo.GetByID(ctx, id)
	if err != nil {
		respondError(c, h.logger, "Source not found", err, infralogger.String("source_id", id))
		return
	}

	if setErr := h.repo.SetActive(ctx, id, !source.IsActive); setErr != nil {
		respondError(c, h.logger, "Failed to toggle source", setErr, infralogger.String("source_id", id))
		return
	}
	source.IsActive = !source.IsActive

	h.logger.Info("Discovery source toggled",
		infralogger.String("source_id", id),
		infralogger.Bool("is_active", source.IsActive),
	)

	c.JSON(http.StatusOK, source)
}

// Discover runs discovery for the source synchronously and returns the run summary.
func (h *SourceHandler) Discover(c *gin.Context) {
	id := c.Param("id")

	result, err := h.runner.Run(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "Discovery run failed", err, infralogger.String("source_id", id))
		return
	}

	c.JSON(http.StatusOK, result)
}

// Import registers every valid row of an uploaded workbook. Invalid rows are reported, not fatal.
func (h *SourceHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, h.logger, "Missing file", err)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		badRequest(c, h.logger, "Unreadable file", err)
		return
	}
	defer file.Close()

	rows, importErrors := importer.ParseExcelFile(file)
	if importErrors == nil {
		importErrors = []importer.ImportError{}
	}

	created := 0
	for _, row := range rows {
		source, convErr := importer.ToSource(row)
		if convErr == nil {
			convErr = h.repo.Create(c.Request.Context(), source)
		}
		if convErr != nil {
			importErrors = append(importErrors, importer.ImportError{Row: row.Row, Error: convErr.Error()})
			continue
		}
		created++
	}

	h.logger.Info("Discovery sources imported",
		infralogger.Int("created", created),
		infralogger.Int("failed", len(importErrors)),
	)

	c.JSON(http.StatusOK, gin.H{
		"created": created,
		"errors":  importErrors,
	})
}

// Template serves the import template workbook.
func (h *SourceHandler) Template(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="discovery-source-template.xlsx"`)
	c.Header("Content-Type", exportContentType)
	if err := importer.WriteTemplate(c.Writer); err != nil {
		h.logger.Error("Failed to write import template", infralogger.Error(err))
		c.Status(http.StatusInternalServerError)
	}
}
