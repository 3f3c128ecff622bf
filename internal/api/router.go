package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/extrapoints/internal/middleware"
)

// Pinger reports whether the store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterConfig holds the collaborators of the router besides the handler.
type RouterConfig struct {
	Logger   *slog.Logger
	Store    Pinger
	Gatherer prometheus.Gatherer
	Observer middleware.RequestObserver
}

// NewRouter registers every route on a new gin engine.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logging(cfg.Logger), middleware.CORS())
	if cfg.Observer != nil {
		r.Use(middleware.Metrics(cfg.Observer))
	}

	r.GET("/health", func(c *gin.Context) {
		if cfg.Store != nil {
			if err := cfg.Store.PingContext(c.Request.Context()); err != nil {
				_ = c.Error(err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_ping_error"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	points := r.Group("/extra-points")
	{
		points.GET("", h.ListTotals)
		points.GET("/:studentId", h.GetDetail)
		points.POST("/:studentId/extra-points", h.Award)
		points.PUT("/:studentId/extra-points", h.Revise)
		points.DELETE("/:studentId/extra-points/:extraPointsId", h.Remove)
	}

	r.GET("/export/extra-points.xlsx", h.ExportTotals)

	return r
}
