package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/cloudsim-backend/internal/http/handlers"
	httpMW "github.com/yungbote/cloudsim-backend/internal/http/middleware"
	"github.com/yungbote/cloudsim-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string

	HealthHandler     *httpH.HealthHandler
	EventHandler      *httpH.EventHandler
	IntegrityHandler  *httpH.IntegrityHandler
	GenerationHandler *httpH.GenerationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Turn events
		if cfg.EventHandler != nil {
			api.POST("/games/:gameId/events/next", cfg.EventHandler.NextEvent)
			api.POST("/games/:gameId/events/:eventId/choices/:index", cfg.EventHandler.ResolveChoice)
			api.POST("/games/:gameId/transitions/validate", cfg.EventHandler.ValidateTransition)
		}

		// Integrity
		if cfg.IntegrityHandler != nil {
			api.POST("/snapshots/validate", cfg.IntegrityHandler.ValidateSnapshot)
			api.POST("/snapshots/hash", cfg.IntegrityHandler.Hash)
			api.POST("/snapshots/verify", cfg.IntegrityHandler.Verify)
			api.GET("/games/:gameId/anomaly", cfg.IntegrityHandler.Anomaly)
			api.GET("/games/:gameId/incidents", cfg.IntegrityHandler.Incidents)
		}

		// Generation
		if cfg.GenerationHandler != nil {
			api.GET("/generation/cache/stats", cfg.GenerationHandler.CacheStats)
		}
	}

	return r
}
