package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"hotelmetrics/pkg/logger"
	"hotelmetrics/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RequestID tags every request with an ID, honoring one supplied by
// the caller, and threads it into the request context so downstream
// log lines carry it.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}

		c.Header("X-Request-ID", id)
		c.Set("request_id", id)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), logger.RequestIDKey, id))

		c.Next()
	}
}

// Logger emits one structured access line per request. Probe and
// scrape endpoints are excluded to keep the log useful.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "/health" || path == "/metrics" {
			return
		}

		fields := map[string]any{
			"request_id": c.GetString("request_id"),
			"status":     c.Writer.Status(),
			"latency":    time.Since(start),
			"method":     c.Request.Method,
			"path":       path,
			"client_ip":  c.ClientIP(),
		}
		if clientID := c.Query("client"); clientID != "" {
			fields["client"] = clientID
		}
		if len(c.Errors) > 0 {
			fields["error"] = c.Errors.String()
		}
		log.WithFields(fields).Info("HTTP request")
	}
}

// Recovery converts panics into a 500 carrying the request ID.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		requestID := c.GetString("request_id")

		log.WithFields(map[string]any{
			"request_id": requestID,
			"error":      recovered,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		}).Error("Panic recovered")

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "internal server error",
			"request_id": requestID,
		})
	})
}

// Timeout bounds every handler. The deadline rides the request
// context, so store queries and upstream fetches observe it too.
func Timeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		done := make(chan struct{})
		go func() {
			c.Next()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			c.JSON(http.StatusRequestTimeout, gin.H{
				"error":      "request timeout",
				"request_id": c.GetString("request_id"),
			})
			c.Abort()
		}
	}
}

// Metrics records per-route request counts and latencies.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// PrometheusHandler exposes the default registry as a gin handler.
func PrometheusHandler() gin.HandlerFunc {
	handler := promhttp.Handler()
	return func(c *gin.Context) {
		handler.ServeHTTP(c.Writer, c.Request)
	}
}
