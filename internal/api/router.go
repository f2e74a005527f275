// Package api serves the liveness, metadata and debug endpoints.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "alertbridge/internal/api/docs"
	"alertbridge/internal/config"
	"alertbridge/internal/logger"
	"alertbridge/internal/metadata"
	"alertbridge/pkg/errors"
	"alertbridge/pkg/health"
	"alertbridge/pkg/middleware"
	"alertbridge/pkg/ratelimit"
	"alertbridge/pkg/tracing"
)

type Metadata interface {
	EnsureLoaded(ctx context.Context) error
	Snapshot() metadata.Snapshot
}

type LastMessage interface {
	LastMessage() (json.RawMessage, bool)
}

type Options struct {
	ServiceName string
	Tracing     bool
	RateLimit   config.RateLimitConfig
}

type Handler struct {
	meta   Metadata
	last   LastMessage
	health *health.CheckerRegistry
	logger logger.Logger
}

func NewHandler(meta Metadata, last LastMessage, registry *health.CheckerRegistry, log logger.Logger) *Handler {
	if registry == nil {
		registry = health.NewCheckerRegistry()
	}
	return &Handler{meta: meta, last: last, health: registry, logger: log}
}

func NewRouter(h *Handler, opts Options) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if opts.Tracing {
		router.Use(tracing.GinMiddleware(opts.ServiceName))
	}
	router.Use(middleware.RecoveryMiddleware(h.logger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(h.logger))

	metaChain := []gin.HandlerFunc{}
	if opts.RateLimit.Enabled {
		limiter := ratelimit.New(ratelimit.Config{
			RPS:    opts.RateLimit.RPS,
			Burst:  opts.RateLimit.Burst,
			MaxAge: time.Duration(opts.RateLimit.MaxAgeSeconds) * time.Second,
		})
		metaChain = append(metaChain, limiter.Middleware())
	}

	h.RegisterRoutes(router, metaChain...)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	return router
}

func (h *Handler) RegisterRoutes(router gin.IRouter, metaMiddleware ...gin.HandlerFunc) {
	router.GET("/", h.Liveness)
	router.GET("/health", h.Liveness)
	router.GET("/healthz", h.Health)

	meta := router.Group("/meta", metaMiddleware...)
	{
		meta.GET("", h.GetMeta)
	}

	router.GET("/debug/last", h.GetLastMessage)
}

func (h *Handler) HandleError(c *gin.Context, err error) {
	h.logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)
	c.JSON(errors.ToHTTPStatus(err), errors.ToErrorResponse(err))
}

// Liveness godoc
// @Summary  Liveness probe
// @Produce  plain
// @Success  200  {string}  string  "ok"
// @Router   /health [get]
func (h *Handler) Liveness(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Health godoc
// @Summary  Dependency health
// @Produce  json
// @Success  200  {object}  health.Health
// @Failure  503  {object}  health.Health
// @Router   /healthz [get]
func (h *Handler) Health(c *gin.Context) {
	result := h.health.Check(c.Request.Context())
	status := http.StatusOK
	if result.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, result)
}

// GetMeta godoc
// @Summary  Tracker metadata
// @Description  Loads priorities and category options on first call and returns the cached values.
// @Produce  json
// @Success  200  {object}  metadata.Snapshot
// @Failure  502  {object}  map[string]interface{}
// @Router   /meta [get]
func (h *Handler) GetMeta(c *gin.Context) {
	if err := h.meta.EnsureLoaded(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.meta.Snapshot())
}

// GetLastMessage godoc
// @Summary  Last observed channel message
// @Produce  json
// @Success  200  {object}  map[string]interface{}
// @Failure  404  {object}  map[string]interface{}
// @Router   /debug/last [get]
func (h *Handler) GetLastMessage(c *gin.Context) {
	raw, ok := h.last.LastMessage()
	if !ok {
		h.HandleError(c, errors.ErrNotFound.WithMessage("no message processed yet"))
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}
