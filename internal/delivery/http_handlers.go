package delivery

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"hotelmetrics/internal/domain"
	"hotelmetrics/internal/usecase"
	"hotelmetrics/pkg/logger"
	"hotelmetrics/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// handles HTTP requests
type HTTPHandlers struct {
	summaryService *usecase.SummaryService
	auditService   *usecase.AuditService
	orchestrator   *usecase.BackfillOrchestrator
	logger         *logger.Logger
	metrics        *metrics.Metrics
}

// creates new HTTP handlers
func NewHTTPHandlers(
	summaryService *usecase.SummaryService,
	auditService *usecase.AuditService,
	orchestrator *usecase.BackfillOrchestrator,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *HTTPHandlers {
	return &HTTPHandlers{
		summaryService: summaryService,
		auditService:   auditService,
		orchestrator:   orchestrator,
		logger:         logger,
		metrics:        metrics,
	}
}

// GetSummaries returns stored aggregate summaries for a client.
func (h *HTTPHandlers) GetSummaries(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	requestID := uuid.New().String()
	ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)

	clientID, platform, periodType, ok := h.parseIdentityParams(c, requestID, "/summaries", start)
	if !ok {
		return
	}

	limit := 12
	if limitStr := c.Query("periods"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			h.metrics.RecordHTTPRequest("GET", "/summaries", "400", time.Since(start))
			c.JSON(http.StatusBadRequest, gin.H{
				"error":      "Invalid parameters",
				"message":    "periods must be a positive integer",
				"request_id": requestID,
			})
			return
		}
		limit = parsed
	}

	summaries, err := h.summaryService.GetSummaries(ctx, clientID, platform, periodType, limit)
	if err != nil {
		h.metrics.RecordHTTPRequest("GET", "/summaries", "500", time.Since(start))
		h.logger.WithContext(ctx).WithError(err).Error("Failed to get summaries")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Failed to retrieve summaries",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	h.metrics.RecordHTTPRequest("GET", "/summaries", "200", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"data":       summaries,
		"total":      len(summaries),
		"request_id": requestID,
	})
}

// GetCurrentSummary serves the in-progress period, cache-first.
func (h *HTTPHandlers) GetCurrentSummary(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	requestID := uuid.New().String()
	ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)

	clientID, platform, periodType, ok := h.parseIdentityParams(c, requestID, "/summaries/current", start)
	if !ok {
		return
	}

	period := domain.CurrentPeriod(periodType, time.Now())
	key := domain.SummaryKey{
		ClientID:   clientID,
		Platform:   platform,
		PeriodType: periodType,
		PeriodID:   period.ID,
	}

	summary, err := h.summaryService.GetCurrent(ctx, clientID, platform, periodType, key)
	if err != nil {
		h.metrics.RecordHTTPRequest("GET", "/summaries/current", "500", time.Since(start))
		h.logger.WithContext(ctx).WithError(err).Error("Failed to get current summary")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Failed to retrieve summary",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}
	if summary == nil {
		h.metrics.RecordHTTPRequest("GET", "/summaries/current", "404", time.Since(start))
		c.JSON(http.StatusNotFound, gin.H{
			"error":      "No summary for current period",
			"period":     period.ID,
			"request_id": requestID,
		})
		return
	}

	h.metrics.RecordHTTPRequest("GET", "/summaries/current", "200", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"data":       summary,
		"period":     period,
		"request_id": requestID,
	})
}

// BackfillRun triggers a batch over every active client.
func (h *HTTPHandlers) BackfillRun(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	requestID := uuid.New().String()
	ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)

	log := h.logger.WithContext(ctx)
	log.Info("Starting backfill run")

	periodType := domain.PeriodType(c.DefaultQuery("type", string(domain.PeriodWeekly)))
	if periodType != domain.PeriodWeekly && periodType != domain.PeriodMonthly {
		h.metrics.RecordHTTPRequest("POST", "/backfill/run", "400", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid parameters",
			"message":    "type must be weekly or monthly",
			"request_id": requestID,
		})
		return
	}

	periods := 12
	if periodsStr := c.Query("periods"); periodsStr != "" {
		parsed, err := strconv.Atoi(periodsStr)
		if err != nil || parsed <= 0 {
			h.metrics.RecordHTTPRequest("POST", "/backfill/run", "400", time.Since(start))
			c.JSON(http.StatusBadRequest, gin.H{
				"error":      "Invalid parameters",
				"message":    "periods must be a positive integer",
				"request_id": requestID,
			})
			return
		}
		periods = parsed
	}

	opts := usecase.BackfillOptions{
		PeriodType:     periodType,
		Periods:        periods,
		IncludeCurrent: c.Query("include_current") == "true",
		DryRun:         c.Query("dry_run") == "true",
		SkipExisting:   c.DefaultQuery("skip_existing", "true") != "false",
		ForceRefresh:   c.Query("force_refresh") == "true",
	}

	report, err := h.orchestrator.Run(ctx, opts)
	if err != nil {
		h.metrics.RecordHTTPRequest("POST", "/backfill/run", "500", time.Since(start))
		log.WithError(err).Error("Backfill run failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Backfill run failed",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	h.metrics.RecordHTTPRequest("POST", "/backfill/run", "200", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"report":     report,
		"request_id": requestID,
	})
}

// GetAudit reconciles one client/platform/period against the live API.
func (h *HTTPHandlers) GetAudit(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	requestID := uuid.New().String()
	ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)

	clientID, platform, periodType, ok := h.parseIdentityParams(c, requestID, "/audit", start)
	if !ok {
		return
	}

	accountID := c.Query("account")
	if accountID == "" {
		h.metrics.RecordHTTPRequest("GET", "/audit", "400", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Missing required parameter",
			"message":    "account parameter is required",
			"request_id": requestID,
		})
		return
	}

	period := domain.CurrentPeriod(periodType, time.Now())
	if periodID := c.Query("period"); periodID != "" {
		startDate, err := time.Parse("2006-01-02", periodID)
		if err != nil {
			h.metrics.RecordHTTPRequest("GET", "/audit", "400", time.Since(start))
			c.JSON(http.StatusBadRequest, gin.H{
				"error":      "Invalid date format",
				"message":    "period must be the period start date in YYYY-MM-DD format",
				"request_id": requestID,
			})
			return
		}
		period = domain.CurrentPeriod(periodType, startDate)
	}

	key := domain.SummaryKey{
		ClientID:   clientID,
		Platform:   platform,
		PeriodType: periodType,
		PeriodID:   period.ID,
	}

	report, err := h.auditService.Audit(ctx, accountID, period, key)
	if err != nil {
		h.metrics.RecordHTTPRequest("GET", "/audit", "500", time.Since(start))
		h.logger.WithContext(ctx).WithError(err).Error("Audit failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Audit failed",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	h.metrics.RecordHTTPRequest("GET", "/audit", "200", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"audit":      report,
		"request_id": requestID,
	})
}

// HealthCheck returns the health status of the service
func (h *HTTPHandlers) HealthCheck(c *gin.Context) {
	start := time.Now()
	h.metrics.IncHTTPRequestsInFlight()
	defer h.metrics.DecHTTPRequestsInFlight()

	requestID := uuid.New().String()

	health := gin.H{
		"status":     "healthy",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"service":    "hotelmetrics",
		"version":    "1.0.0",
		"request_id": requestID,
	}

	h.metrics.RecordHTTPRequest("GET", "/health", "200", time.Since(start))
	c.JSON(http.StatusOK, health)
}

// parseIdentityParams parses the client/platform/type triple every
// summary endpoint requires.
func (h *HTTPHandlers) parseIdentityParams(c *gin.Context, requestID, endpoint string, start time.Time) (string, domain.Platform, domain.PeriodType, bool) {
	clientID := c.Query("client")
	if clientID == "" {
		h.metrics.RecordHTTPRequest(c.Request.Method, endpoint, "400", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Missing required parameter",
			"message":    "client parameter is required",
			"request_id": requestID,
		})
		return "", "", "", false
	}

	platform := domain.Platform(c.DefaultQuery("platform", string(domain.PlatformMeta)))
	if platform != domain.PlatformMeta && platform != domain.PlatformGoogle {
		h.metrics.RecordHTTPRequest(c.Request.Method, endpoint, "400", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid parameters",
			"message":    "platform must be meta or google",
			"request_id": requestID,
		})
		return "", "", "", false
	}

	periodType := domain.PeriodType(c.DefaultQuery("type", string(domain.PeriodWeekly)))
	if periodType != domain.PeriodWeekly && periodType != domain.PeriodMonthly {
		h.metrics.RecordHTTPRequest(c.Request.Method, endpoint, "400", time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid parameters",
			"message":    "type must be weekly or monthly",
			"request_id": requestID,
		})
		return "", "", "", false
	}

	return clientID, platform, periodType, true
}
