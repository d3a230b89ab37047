// Package server exposes the rating engine over HTTP. Routes are versioned
// under /v1 and every handler reports failures through the shared error
// middleware.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/freightrate/internal/chargeable/calculator"
	"github.com/smallbiznis/freightrate/internal/config"
	"github.com/smallbiznis/freightrate/internal/observability"
	obslogger "github.com/smallbiznis/freightrate/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/freightrate/internal/observability/metrics"
	obstracing "github.com/smallbiznis/freightrate/internal/observability/tracing"
	"github.com/smallbiznis/freightrate/internal/ratelimit"
	ratingdomain "github.com/smallbiznis/freightrate/internal/rating/domain"
	regiondomain "github.com/smallbiznis/freightrate/internal/region/domain"
	zonedomain "github.com/smallbiznis/freightrate/internal/zone/domain"
	importdomain "github.com/smallbiznis/freightrate/internal/zoneimport/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module wires the HTTP surface.
var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

// NewEngine builds the gin engine with the shared middleware chain.
func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics, registry *prometheus.Registry) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return r
}

// Server holds the handler dependencies.
type Server struct {
	engine   *gin.Engine
	matcher  zonedomain.Matcher
	zones    zonedomain.Repository
	regions  regiondomain.Repository
	importer importdomain.Orchestrator
	weights  *calculator.Service
	rates    ratingdomain.Engine
	limiter  *ratelimit.QuoteLimiter
	log      *zap.Logger
}

// ServerParams collects the handler dependencies.
type ServerParams struct {
	fx.In

	Engine   *gin.Engine
	Matcher  zonedomain.Matcher
	Zones    zonedomain.Repository
	Regions  regiondomain.Repository
	Importer importdomain.Orchestrator
	Weights  *calculator.Service
	Rates    ratingdomain.Engine
	Limiter  *ratelimit.QuoteLimiter
	Log      *zap.Logger
}

// NewServer registers every route on the engine.
func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:   p.Engine,
		matcher:  p.Matcher,
		zones:    p.Zones,
		regions:  p.Regions,
		importer: p.Importer,
		weights:  p.Weights,
		rates:    p.Rates,
		limiter:  p.Limiter,
		log:      p.Log.Named("http.server"),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	v1 := s.engine.Group("/v1")

	zones := v1.Group("/zones")
	zones.POST("/resolve", s.resolveZone)
	zones.POST("/import", s.importZones)
	zones.GET("", s.listZones)
	zones.GET("/:code", s.getZone)

	rates := v1.Group("/rates")
	rates.POST("/quote", s.quoteRateLimit(), s.quoteRate)

	v1.POST("/chargeable-weight", s.chargeableWeight)
	v1.GET("/regions", s.listRegions)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_ = ctx
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Panic("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
