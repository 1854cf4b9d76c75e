package app

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/cloudsim-backend/internal/db"
	httpserver "github.com/yungbote/cloudsim-backend/internal/http"
	"github.com/yungbote/cloudsim-backend/internal/observability"
	"github.com/yungbote/cloudsim-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *httpserver.Server
	Cfg      Config
	Repos    Repos
	Services Services

	dbService    *db.Service
	clients      Clients
	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel)

	dbService, err := db.Open(log, cfg.DB)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, fmt.Errorf("database automigrate: %w", err)
	}
	theDB := dbService.DB()

	clients := wireClients(ctx, log, cfg)
	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(log, cfg, reposet, clients)
	if err != nil {
		clients.Close()
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}
	if _, err := serviceset.Integrity.RestoreBlocks(ctx); err != nil {
		clients.Close()
		_ = dbService.Close()
		log.Sync()
		return nil, fmt.Errorf("restore blocked games: %w", err)
	}
	handlerset := wireHandlers(log, theDB, serviceset)
	server := wireServer(log, cfg, handlerset)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		dbService:    dbService,
		clients:      clients,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP and sweeps idle per-game records until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Services.Records.StartSweeper(ctx, a.Cfg.TrackingSweepInterval)
	a.Services.Guard.StartSweeper(ctx, a.Cfg.TrackingSweepInterval)
	a.Log.Info("Server listening", "addr", a.Cfg.HTTPAddr)
	return a.Server.Run(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	a.clients.Close()
	if a.dbService != nil {
		if err := a.dbService.Close(); err != nil {
			a.Log.Warn("database close failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
