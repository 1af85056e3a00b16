package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"insightsfetch/internal/query"
	"insightsfetch/internal/report"
	"insightsfetch/internal/service"
)

type Handler struct {
	fetcher service.ExceptionFetcher
	logger  *zap.Logger
}

func New(fetcher service.ExceptionFetcher, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{fetcher: fetcher, logger: logger}
}

// NewRouter wires the API routes onto a fresh gin engine.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger))

	r.GET("/ping", Ping)
	r.GET("/exceptions", h.ListExceptionsHandler)
	return r
}

func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

func (h *Handler) ListExceptionsHandler(c *gin.Context) {
	if h.fetcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No telemetry client configured"})
		return
	}

	hours, err := strconv.Atoi(c.DefaultQuery("hours", strconv.Itoa(query.DefaultHours)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'hours' query parameter"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(query.DefaultLimit)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'limit' query parameter"})
		return
	}

	params := query.Params{Hours: hours, Limit: limit}
	if v, ok := c.GetQuery("type"); ok {
		params.Type = query.Filter(v)
	}
	if v, ok := c.GetQuery("message"); ok {
		params.Message = query.Filter(v)
	}

	records, err := h.fetcher.FetchRecentExceptions(c.Request.Context(), params)
	if err != nil {
		h.logger.Warn("Fetching exceptions failed", zap.Error(err))
		status, body := errorResponse(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, report.NewResult(records))
}

// errorResponse maps fetch failures onto HTTP statuses. Upstream failures
// are reported as 502 so callers can tell them apart from local faults.
func errorResponse(err error) (int, gin.H) {
	var apiErr *service.ApiError
	if errors.As(err, &apiErr) {
		return http.StatusBadGateway, gin.H{"error": err.Error(), "status": apiErr.StatusCode}
	}
	var transportErr *service.TransportError
	if errors.As(err, &transportErr) {
		return http.StatusBadGateway, gin.H{"error": "Failed to reach telemetry backend: " + err.Error()}
	}
	var decodeErr *service.DecodeError
	if errors.As(err, &decodeErr) {
		return http.StatusBadGateway, gin.H{"error": "Unexpected response from telemetry backend: " + err.Error()}
	}
	return http.StatusInternalServerError, gin.H{"error": err.Error()}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("Handled request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
