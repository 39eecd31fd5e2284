package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	infralogger "github.com/jonesrussell/north-cloud/lead-manager/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/lead-manager/internal/metadata"
)

// SourceSuggester proposes discovery source fields for a URL.
type SourceSuggester interface {
	Extract(ctx context.Context, sourceURL string) (*metadata.Suggestion, error)
}

type MetadataHandler struct {
	suggester SourceSuggester
	logger    infralogger.Logger
}

func NewMetadataHandler(suggester SourceSuggester, log infralogger.Logger) *MetadataHandler {
	return &MetadataHandler{suggester: suggester, logger: log}
}

// Suggest fetches ?url= and returns prefilled source fields.
func (h *MetadataHandler) Suggest(c *gin.Context) {
	sourceURL := c.Query("url")
	if sourceURL == "" {
		badRequest(c, h.logger, "Missing url", errors.New("url query parameter is required"))
		return
	}

	suggestion, err := h.suggester.Extract(c.Request.Context(), sourceURL)
	if err != nil {
		respondError(c, h.logger, "Failed to fetch metadata", err, infralogger.String("url", sourceURL))
		return
	}

	c.JSON(http.StatusOK, suggestion)
}
