package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"wallet-analytics/internal/domain"
	"wallet-analytics/internal/observability"
	"wallet-analytics/internal/reporting"
	"wallet-analytics/internal/solana"
)

// Analytics response formats.
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
)

// NewRouter builds the gin engine with every route registered.
func NewRouter(svc *Service, generator *reporting.Generator, logger logrus.FieldLogger) *gin.Engine {
	if generator == nil {
		generator = reporting.NewGenerator()
	}
	h := &handler{svc: svc, generator: generator, logger: logger.WithField("component", "http")}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(h.requestLogger())

	router.GET("/health", h.health)
	router.GET("/status", h.status)
	router.GET("/metrics", gin.WrapH(observability.Handler()))

	v1 := router.Group("/v1/wallets/:address")
	v1.Use(h.validateAddress())
	{
		v1.GET("/analytics", h.analytics)
		v1.POST("/refresh", h.refresh)
		v1.GET("/tax/:year", h.tax)
	}
	return router
}

type handler struct {
	svc       *Service
	generator *reporting.Generator
	logger    logrus.FieldLogger
}

func (h *handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := h.logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Debug("request served")
	}
}

func (h *handler) validateAddress() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := solana.ValidateAddress(c.Param("address")); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.Next()
	}
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (h *handler) status(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Status())
}

// analytics serves GET /v1/wallets/:address/analytics?period=30d&format=json|markdown
func (h *handler) analytics(c *gin.Context) {
	period, ok := h.period(c)
	if !ok {
		return
	}

	res, err := h.svc.Analytics(c.Request.Context(), c.Param("address"), period)
	if err != nil {
		h.fail(c, err)
		return
	}

	switch c.DefaultQuery("format", FormatJSON) {
	case FormatMarkdown:
		report, err := h.generator.Generate(res)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(reporting.RenderMarkdown(report)))
	case FormatJSON:
		c.JSON(http.StatusOK, res)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported format"})
	}
}

// refresh serves POST /v1/wallets/:address/refresh?period=30d
func (h *handler) refresh(c *gin.Context) {
	period, ok := h.period(c)
	if !ok {
		return
	}
	h.svc.Refresh(c.Param("address"), period, "api")
	c.JSON(http.StatusAccepted, gin.H{"status": "scheduled", "period": period})
}

// tax serves GET /v1/wallets/:address/tax/:year?format=json|csv|markdown
func (h *handler) tax(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year must be an integer"})
		return
	}

	address := c.Param("address")
	report, err := h.svc.TaxReport(c.Request.Context(), address, year)
	if err != nil {
		h.fail(c, err)
		return
	}

	switch c.DefaultQuery("format", FormatJSON) {
	case FormatCSV:
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", "attachment; filename=\"tax-"+address+"-"+c.Param("year")+".csv\"")
		c.Status(http.StatusOK)
		if err := reporting.WriteTaxCSV(c.Writer, report); err != nil {
			h.logger.WithError(err).Warn("csv write failed")
		}
	case FormatMarkdown:
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(reporting.RenderTaxMarkdown(report)))
	case FormatJSON:
		c.JSON(http.StatusOK, report)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported format"})
	}
}

func (h *handler) period(c *gin.Context) (domain.Period, bool) {
	raw := strings.ToLower(c.DefaultQuery("period", string(h.svc.DefaultPeriod())))
	p := domain.Period(raw)
	if !p.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported period " + strconv.Quote(raw)})
		return "", false
	}
	return p, true
}

// fail maps the error taxonomy onto HTTP status codes.
func (h *handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, solana.ErrInvalidAddress), errors.Is(err, domain.ErrInvalidConfig):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrDataIntegrity), errors.Is(err, domain.ErrUnknownKind):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUpstream):
		status = http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
