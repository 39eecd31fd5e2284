package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/lead-manager/internal/discovery"
	"github.com/jonesrussell/north-cloud/lead-manager/internal/export"
	infralogger "github.com/jonesrussell/north-cloud/lead-manager/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/lead-manager/internal/models"
	"github.com/jonesrussell/north-cloud/lead-manager/internal/repository"
)

const exportContentType = export.ContentType

// StagedLeadReader is the read side of the staging store.
type StagedLeadReader interface {
	GetByID(ctx context.Context, id string) (*models.StagedLead, error)
	List(ctx context.Context, filter repository.StagedLeadFilter) ([]models.StagedLead, error)
	Count(ctx context.Context, filter repository.StagedLeadFilter) (int, error)
	Stats(ctx context.Context) (*models.StagedLeadStats, error)
}

// LeadLifecycle performs review transitions on staged leads.
type LeadLifecycle interface {
	Import(ctx context.Context, id string) (string, error)
	Reject(ctx context.Context, id string) error
	BulkImport(ctx context.Context, ids []string) *discovery.BulkResult
}

type DiscoveredLeadHandler struct {
	leads     StagedLeadReader
	lifecycle LeadLifecycle
	logger    infralogger.Logger
	now       func() time.Time
}

func NewDiscoveredLeadHandler(leads StagedLeadReader, lifecycle LeadLifecycle, log infralogger.Logger) *DiscoveredLeadHandler {
	return &DiscoveredLeadHandler{
		leads:     leads,
		lifecycle: lifecycle,
		logger:    log,
		now:       time.Now,
	}
}

// filterFromQuery reads the shared list/export filters.
func filterFromQuery(c *gin.Context) (repository.StagedLeadFilter, error) {
	filter := repository.StagedLeadFilter{
		SortBy:     c.DefaultQuery("sort_by", "created_at"),
		SortOrder:  c.DefaultQuery("sort_order", "desc"),
		Status:     models.DiscoveryStatus(c.Query("status")),
		SourceType: models.SourceType(c.Query("source_type")),
		SourceID:   c.Query("source_id"),
	}

	if !repository.StagedLeadSortColumns[filter.SortBy] {
		return filter, errors.New("unsupported sort_by " + strconv.Quote(filter.SortBy))
	}
	if filter.SortOrder != "asc" && filter.SortOrder != "desc" {
		return filter, errors.New("sort_order must be asc or desc")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return filter, errors.New("unknown status")
	}
	if filter.SourceType != "" && !filter.SourceType.Valid() {
		return filter, errors.New("unknown source_type")
	}
	if raw := c.Query("min_score"); raw != "" {
		score, err := strconv.Atoi(raw)
		if err != nil || score < 0 || score > discovery.MaxScore {
			return filter, errors.New("min_score must be between 0 and 100")
		}
		filter.MinScore = score
	}
	return filter, nil
}

func (h *DiscoveredLeadHandler) List(c *gin.Context) {
	page, err := parsePagination(c)
	if err != nil {
		badRequest(c, h.logger, "Invalid pagination", err)
		return
	}
	filter, err := filterFromQuery(c)
	if err != nil {
		badRequest(c, h.logger, "Invalid filter", err)
		return
	}
	filter.Limit = page.PerPage
	filter.Offset = page.offset()

	ctx := c.Request.Context()
	total, err := h.leads.Count(ctx, filter)
	if err != nil {
		respondError(c, h.logger, "Failed to list discovered leads", err)
		return
	}
	leads, err := h.leads.List(ctx, filter)
	if err != nil {
		respondError(c, h.logger, "Failed to list discovered leads", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leads":       leads,
		"total":       total,
		"page":        page.Page,
		"per_page":    page.PerPage,
		"total_pages": page.totalPages(total),
	})
}

func (h *DiscoveredLeadHandler) GetByID(c *gin.Context) {
	id := c.Param("id")

	lead, err := h.leads.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "Discovered lead not found", err, infralogger.String("discovered_lead_id", id))
		return
	}

	c.JSON(http.StatusOK, lead)
}

func (h *DiscoveredLeadHandler) Import(c *gin.Context) {
	id := c.Param("id")

	leadID, err := h.lifecycle.Import(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "Failed to import discovered lead", err,
			infralogger.String("discovered_lead_id", id))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"discovered_lead_id": id,
		"lead_id":            leadID,
	})
}

func (h *DiscoveredLeadHandler) Reject(c *gin.Context) {
	id := c.Param("id")

	if err := h.lifecycle.Reject(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, "Failed to reject discovered lead", err,
			infralogger.String("discovered_lead_id", id))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"discovered_lead_id": id,
		"discovery_status":   models.DiscoveryIgnored,
	})
}

type bulkImportRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,dive,required"`
}

func (h *DiscoveredLeadHandler) BulkImport(c *gin.Context) {
	var req bulkImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "Invalid request body", err)
		return
	}

	result := h.lifecycle.BulkImport(c.Request.Context(), req.IDs)

	h.logger.Info("Bulk import finished",
		infralogger.Int("imported", result.Imported),
		infralogger.Int("failed", result.Failed),
	)

	c.JSON(http.StatusOK, result)
}

func (h *DiscoveredLeadHandler) Stats(c *gin.Context) {
	stats, err := h.leads.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "Failed to load discovery stats", err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Export streams every lead matching the list filters as an xlsx workbook.
func (h *DiscoveredLeadHandler) Export(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		badRequest(c, h.logger, "Invalid filter", err)
		return
	}

	leads, err := h.leads.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, "Failed to export discovered leads", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.Filename(h.now().Unix())+`"`)
	c.Header("Content-Type", exportContentType)
	c.Status(http.StatusOK)
	if writeErr := export.WriteStagedLeads(c.Writer, leads); writeErr != nil {
		h.logger.Error("Failed to write export", infralogger.Error(writeErr))
		return
	}

	h.logger.Info("Discovered leads exported", infralogger.Int("count", len(leads)))
}
