// Package api wires the HTTP routes of the lead-manager service.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jonesrussell/north-cloud/lead-manager/internal/handlers"
	infralogger "github.com/jonesrussell/north-cloud/lead-manager/internal/infrastructure/logger"
)

const (
	corsMaxAgeHours = 12
	healthTimeout   = 2 * time.Second
	requestIDHeader = "X-Request-ID"
)

// Pinger reports database reachability for the health check.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators the router hands to its handlers.
type Deps struct {
	Sources     handlers.SourceRepository
	Runner      handlers.DiscoveryRunner
	StagedLeads handlers.StagedLeadReader
	Lifecycle   handlers.LeadLifecycle
	Suggester   handlers.SourceSuggester
	DB          Pinger
	CORSOrigins []string
	Logger      infralogger.Logger
}

func NewRouter(deps Deps) *gin.Engine {
	log := deps.Logger
	router := gin.New()

	// CORS middleware - must be first
	router.Use(cors.New(cors.Config{
		AllowOrigins: deps.CORSOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Content-Length", "Accept-Encoding",
			"X-CSRF-Token", "Authorization", "accept", "origin",
			"Cache-Control", "X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           corsMaxAgeHours * time.Hour,
	}))

	// Middleware
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	router.GET("/health", healthHandler(deps.DB))

	v1 := router.Group("/api/v1")

	sourceHandler := handlers.NewSourceHandler(deps.Sources, deps.Runner, log)
	sources := v1.Group("/discovery-sources")
	sources.POST("", sourceHandler.Create)
	sources.GET("", sourceHandler.List)
	sources.POST("/import", sourceHandler.Import)
	sources.GET("/import-template", sourceHandler.Template)
	sources.GET("/suggest", handlers.NewMetadataHandler(deps.Suggester, log).Suggest)
	sources.GET("/:id", sourceHandler.GetByID)
	sources.PUT("/:id", sourceHandler.Update)
	sources.DELETE("/:id", sourceHandler.Delete)
	sources.POST("/:id/toggle", sourceHandler.ToggleActive)
	sources.POST("/:id/discover", sourceHandler.Discover)

	leadHandler := handlers.NewDiscoveredLeadHandler(deps.StagedLeads, deps.Lifecycle, log)
	leads := v1.Group("/discovered-leads")
	leads.GET("", leadHandler.List)
	leads.GET("/stats", leadHandler.Stats)
	leads.GET("/export", leadHandler.Export)
	leads.POST("/bulk-import", leadHandler.BulkImport)
	leads.GET("/:id", leadHandler.GetByID)
	leads.POST("/:id/import", leadHandler.Import)
	leads.POST("/:id/reject", leadHandler.Reject)

	return router
}

func healthHandler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// ginLogger tags each request with an id, stores a request-scoped logger in the
// request context and logs the outcome.
func ginLogger(log infralogger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)
		reqLog := log.With(infralogger.String("request_id", requestID))
		c.Request = c.Request.WithContext(infralogger.WithContext(c.Request.Context(), reqLog))

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		reqLog.Info("HTTP request",
			infralogger.String("method", method),
			infralogger.String("path", path),
			infralogger.Int("status_code", statusCode),
			infralogger.String("client_ip", c.ClientIP()),
			infralogger.Duration("duration", duration),
		)
	}
}
