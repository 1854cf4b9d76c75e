package app

import (
	"fmt"

	"github.com/yungbote/cloudsim-backend/internal/modules/catalog"
	"github.com/yungbote/cloudsim-backend/internal/modules/generation"
	"github.com/yungbote/cloudsim-backend/internal/modules/integrity"
	"github.com/yungbote/cloudsim-backend/internal/modules/securerand"
	"github.com/yungbote/cloudsim-backend/internal/modules/tracking"
	"github.com/yungbote/cloudsim-backend/internal/modules/trigger"
	"github.com/yungbote/cloudsim-backend/internal/platform/logger"
	"github.com/yungbote/cloudsim-backend/internal/services"
)

type Services struct {
	Catalog   *catalog.Catalog
	Records   *tracking.Store[trigger.GameRecord]
	Engine    *trigger.Engine
	Guard     *integrity.Guard
	Pipeline  *generation.Pipeline
	Turns     services.TurnEventService
	Integrity services.IntegrityService
}

func loadCatalog(log *logger.Logger, path string) (*catalog.Catalog, error) {
	if path == "" {
		log.Info("Loading built-in event catalog...")
		return catalog.Default()
	}
	log.Info("Loading event catalog...", "path", path)
	return catalog.LoadFile(path)
}

func wireServices(log *logger.Logger, cfg Config, reposet Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	cat, err := loadCatalog(log, cfg.CatalogPath)
	if err != nil {
		return Services{}, fmt.Errorf("load catalog: %w", err)
	}

	records := tracking.New("trigger", log, trigger.NewGameRecord,
		tracking.WithRetention[trigger.GameRecord](cfg.TrackingRetention))
	engine := trigger.NewEngine(log, cat, records, securerand.Default(), trigger.Config{BaseRate: cfg.BaseTriggerRate})

	hasher, err := integrity.NewHasher([]byte(cfg.HashKey))
	if err != nil {
		return Services{}, fmt.Errorf("init hasher: %w", err)
	}
	if cfg.HashKey == "" {
		log.Warn("INTEGRITY_HASH_KEY not set, snapshot hashes are unkeyed")
	}
	guard := integrity.NewGuard(log, integrity.DefaultLimits(),
		integrity.RateConfig{
			MinInterval: cfg.RateMinInterval,
			PerMinute:   cfg.RatePerMinute,
			BurstWindow: cfg.RateBurstWindow,
			BurstMax:    cfg.RateBurstMax,
		},
		integrity.DefaultAnomalyConfig(), hasher,
		integrity.WithRetention(cfg.TrackingRetention),
	)

	validator, err := generation.NewValidator(log, generation.DefaultValidatorConfig())
	if err != nil {
		return Services{}, fmt.Errorf("init validator: %w", err)
	}
	var remote generation.Store
	if clients.Redis != nil {
		remote = clients.Redis
	}
	cache := generation.NewCache(log, remote, cfg.Cache)
	pipeline := generation.NewPipeline(log, cfg.Generation, clients.TextGen, cache, validator,
		generation.NewScorer(generation.DefaultScorerConfig()))

	return Services{
		Catalog:   cat,
		Records:   records,
		Engine:    engine,
		Guard:     guard,
		Pipeline:  pipeline,
		Turns:     services.NewTurnEventService(log, engine, guard, pipeline, reposet.EventStates, reposet.Incidents),
		Integrity: services.NewIntegrityService(log, guard, reposet.Incidents),
	}, nil
}
