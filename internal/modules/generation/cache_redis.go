package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/cloudsim-backend/internal/domain/game"
)

type RedisConfig struct {
	Addr        string        `env:"REDIS_ADDR"`
	Password    string        `env:"REDIS_PASSWORD"`
	DB          int           `env:"REDIS_DB" envDefault:"0"`
	Prefix      string        `env:"REDIS_PREFIX" envDefault:"cloudsim:"`
	DialTimeout time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
}

// RedisStore keeps generated events as JSON strings with a TTL.
type RedisStore struct {
	rdb    *goredis.Client
	prefix string
}

// NewRedisStore connects and pings. A store is never returned for an
// unreachable server; callers fall back to the local cache.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{rdb: rdb, prefix: cfg.Prefix}, nil
}

// NewRedisStoreFromClient wraps an existing client without pinging it.
func NewRedisStoreFromClient(rdb *goredis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) Name() string { return "redis" }

func (s *RedisStore) Get(ctx context.Context, key string) (game.GeneratedEvent, bool, error) {
	raw, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return game.GeneratedEvent{}, false, nil
	}
	if err != nil {
		return game.GeneratedEvent{}, false, err
	}
	var ev game.GeneratedEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return game.GeneratedEvent{}, false, fmt.Errorf("decode cached event: %w", err)
	}
	return ev, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, ev game.GeneratedEvent, ttl time.Duration) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.prefix+key, raw, ttl).Err()
}

func (s *RedisStore) Close() error { return s.rdb.Close() }
