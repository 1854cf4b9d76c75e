package generation

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/yungbote/cloudsim-backend/internal/domain/game"
	"github.com/yungbote/cloudsim-backend/internal/platform/logger"
)

// Store is a TTL key-value store for accepted generated events.
type Store interface {
	Get(ctx context.Context, key string) (game.GeneratedEvent, bool, error)
	Set(ctx context.Context, key string, ev game.GeneratedEvent, ttl time.Duration) error
	Name() string
}

type CacheConfig struct {
	TTL        time.Duration `env:"CACHE_TTL" envDefault:"1h"`
	MaxEntries int           `env:"CACHE_MAX_ENTRIES" envDefault:"1000"`
}

type CacheStats struct {
	Backend      string `json:"backend"`
	Hits         int64  `json:"hits"`
	Misses       int64  `json:"misses"`
	Sets         int64  `json:"sets"`
	Errors       int64  `json:"errors"`
	LocalEntries int    `json:"localEntries"`
}

// Cache consults the in-process LRU first and the distributed store second.
// Writes go to both. Distributed store failures are logged and counted, and
// behave as misses.
type Cache struct {
	log    *logger.Logger
	remote Store
	local  *LocalStore
	ttl    time.Duration

	hits, misses, sets, errs atomic.Int64
}

// NewCache builds a cache. remote may be nil, in which case only the local
// LRU is used.
func NewCache(log *logger.Logger, remote Store, cfg CacheConfig) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	return &Cache{
		log:    log.With("component", "GenerationCache"),
		remote: remote,
		local:  NewLocalStore(cfg.MaxEntries),
		ttl:    cfg.TTL,
	}
}

func (c *Cache) Get(ctx context.Context, key string) (game.GeneratedEvent, bool) {
	if ev, ok, _ := c.local.Get(ctx, key); ok {
		c.hits.Add(1)
		return ev, true
	}
	if c.remote != nil {
		ev, ok, err := c.remote.Get(ctx, key)
		if err != nil {
			c.errs.Add(1)
			c.log.Warn("cache get failed, treating as miss", "store", c.remote.Name(), "key", key, "error", err)
		} else if ok {
			c.hits.Add(1)
			_ = c.local.Set(ctx, key, ev, c.ttl)
			return ev, true
		}
	}
	c.misses.Add(1)
	return game.GeneratedEvent{}, false
}

func (c *Cache) Set(ctx context.Context, key string, ev game.GeneratedEvent) {
	_ = c.local.Set(ctx, key, ev, c.ttl)
	if c.remote != nil {
		if err := c.remote.Set(ctx, key, ev, c.ttl); err != nil {
			c.errs.Add(1)
			c.log.Warn("cache set failed", "store", c.remote.Name(), "key", key, "error", err)
		}
	}
	c.sets.Add(1)
}

func (c *Cache) Stats() CacheStats {
	backend := c.local.Name()
	if c.remote != nil {
		backend = c.remote.Name() + "+" + backend
	}
	return CacheStats{
		Backend:      backend,
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		Sets:         c.sets.Load(),
		Errors:       c.errs.Load(),
		LocalEntries: c.local.Len(),
	}
}

// CacheKey buckets a snapshot into coarse tiers so similar states share
// generated content.
func CacheKey(s game.Snapshot) string {
	d := s.Difficulty
	if d == "" {
		d = game.DifficultyNormal
	}
	return fmt.Sprintf("evt:v1:t%d:b%d:p%d:r%d:d%s",
		s.Turn/5, balanceTier(s.Balance), populationTier(s.Population), trustTier(s.Trust), d)
}

// CacheKeyFor scopes CacheKey to the catalog definition content is generated
// for, so two dynamic events in the same tiers never share content.
func CacheKeyFor(s game.Snapshot, hint *game.EventDefinition) string {
	key := CacheKey(s)
	if hint == nil {
		return key
	}
	return fmt.Sprintf("%s:c%s:e%s", key, hint.Category, hint.ID)
}

func balanceTier(b int64) int {
	switch {
	case b < 0:
		return 0
	case b < 100_000:
		return 1
	case b < 1_000_000:
		return 2
	case b < 10_000_000:
		return 3
	case b < 100_000_000:
		return 4
	default:
		return 5
	}
}

func populationTier(p int64) int {
	switch {
	case p < 100:
		return 0
	case p < 1_000:
		return 1
	case p < 10_000:
		return 2
	case p < 100_000:
		return 3
	case p < 1_000_000:
		return 4
	default:
		return 5
	}
}

func trustTier(t float64) int {
	switch {
	case t < 20:
		return 0
	case t < 40:
		return 1
	case t < 60:
		return 2
	case t < 80:
		return 3
	default:
		return 4
	}
}
