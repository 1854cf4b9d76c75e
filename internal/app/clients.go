package app

import (
	"context"
	"strings"

	"github.com/yungbote/cloudsim-backend/internal/modules/generation"
	"github.com/yungbote/cloudsim-backend/internal/platform/logger"
	"github.com/yungbote/cloudsim-backend/internal/platform/textgen"
)

type Clients struct {
	TextGen textgen.Client
	Redis   *generation.RedisStore
}

// wireClients builds the outbound clients. Both are optional: without a
// backend generation is disabled, without Redis the cache is process-local.
func wireClients(ctx context.Context, log *logger.Logger, cfg Config) Clients {
	log.Info("Wiring clients...")
	var out Clients

	if cfg.Generation.Enabled {
		tg, err := textgen.NewClient(log, cfg.TextGen)
		if err != nil {
			log.Warn("Text generation client unavailable, generation disabled", "error", err)
		} else {
			out.TextGen = tg
		}
	}

	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		store, err := generation.NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, using local content cache only", "addr", cfg.Redis.Addr, "error", err)
		} else {
			out.Redis = store
		}
	}
	return out
}

func (c Clients) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
