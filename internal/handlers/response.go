// Package handlers implements the HTTP handlers for discovery sources and discovered leads.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/lead-manager/internal/discovery"
	infralogger "github.com/jonesrussell/north-cloud/lead-manager/internal/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/lead-manager/internal/models"
	"github.com/jonesrussell/north-cloud/lead-manager/internal/repository"
)

const (
	defaultPage    = 1
	defaultPerPage = 20
	maxPerPage     = 100
)

// pagination is the parsed page/per_page pair.
type pagination struct {
	Page    int
	PerPage int
}

func (p pagination) offset() int { return (p.Page - 1) * p.PerPage }

func (p pagination) totalPages(total int) int {
	if total == 0 {
		return 0
	}
	return (total + p.PerPage - 1) / p.PerPage
}

// parsePagination reads page and per_page, applying defaults and capping per_page.
func parsePagination(c *gin.Context) (pagination, error) {
	p := pagination{Page: defaultPage, PerPage: defaultPerPage}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return p, errors.New("page must be a positive integer")
		}
		p.Page = page
	}
	if raw := c.Query("per_page"); raw != "" {
		perPage, err := strconv.Atoi(raw)
		if err != nil || perPage < 1 {
			return p, errors.New("per_page must be a positive integer")
		}
		p.PerPage = min(perPage, maxPerPage)
	}
	return p, nil
}

// parseOptionalBool reads a boolean query parameter; nil when absent.
func parseOptionalBool(c *gin.Context, key string) (*bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil //nolint:nilnil // absent parameter
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errors.New(key + " must be true or false")
	}
	return &b, nil
}

// errorStatus maps domain errors to HTTP statuses.
func errorStatus(err error) int {
	var validationErr *models.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, discovery.ErrSourceInactive),
		errors.Is(err, discovery.ErrInvalidTransition),
		errors.Is(err, repository.ErrStatusConflict):
		return http.StatusConflict
	case errors.Is(err, discovery.ErrSourceNotFound),
		errors.Is(err, discovery.ErrLeadNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, discovery.ErrUnsupportedSourceType):
		return http.StatusUnprocessableEntity
	case errors.Is(err, discovery.ErrTransport),
		errors.Is(err, discovery.ErrUnparseableResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with the mapped status. Internal error details are logged, not returned.
func respondError(c *gin.Context, log infralogger.Logger, msg string, err error, fields ...infralogger.Field) {
	status := errorStatus(err)
	fields = append(fields, infralogger.Error(err), infralogger.Int("status", status))

	body := gin.H{"error": msg}
	switch {
	case status == http.StatusBadGateway:
		log.Warn(msg, fields...)
		body["details"] = err.Error()
	case status >= http.StatusInternalServerError:
		log.Error(msg, fields...)
	default:
		log.Debug(msg, fields...)
		body["details"] = err.Error()
	}
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		body["field"] = validationErr.Field
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, log infralogger.Logger, msg string, err error) {
	log.Debug(msg, infralogger.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "details": err.Error()})
}
