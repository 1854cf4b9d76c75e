package app

import (
	"context"

	"gorm.io/gorm"

	httpserver "github.com/yungbote/cloudsim-backend/internal/http"
	httpH "github.com/yungbote/cloudsim-backend/internal/http/handlers"
	"github.com/yungbote/cloudsim-backend/internal/platform/logger"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	Event      *httpH.EventHandler
	Integrity  *httpH.IntegrityHandler
	Generation *httpH.GenerationHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	dbProbe := httpH.Probe{Name: "db", Required: true, Check: func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}}
	textgenProbe := httpH.Probe{Name: "textgen", Check: services.Pipeline.Health}
	return Handlers{
		Health:     httpH.NewHealthHandler(dbProbe, textgenProbe),
		Event:      httpH.NewEventHandler(services.Turns),
		Integrity:  httpH.NewIntegrityHandler(services.Integrity),
		Generation: httpH.NewGenerationHandler(services.Pipeline),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers) *httpserver.Server {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return httpserver.NewServer(cfg.HTTPAddr, httpserver.RouterConfig{
		Log:               log,
		ServiceName:       serviceName,
		CORSOrigins:       cfg.CORSOrigins,
		HealthHandler:     handlers.Health,
		EventHandler:      handlers.Event,
		IntegrityHandler:  handlers.Integrity,
		GenerationHandler: handlers.Generation,
	})
}
