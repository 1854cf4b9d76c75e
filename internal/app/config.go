package app

import (
	"time"

	"github.com/yungbote/cloudsim-backend/internal/db"
	"github.com/yungbote/cloudsim-backend/internal/modules/generation"
	"github.com/yungbote/cloudsim-backend/internal/observability"
	"github.com/yungbote/cloudsim-backend/internal/platform/config"
	"github.com/yungbote/cloudsim-backend/internal/platform/textgen"
)

type Config struct {
	LogMode     string   `env:"LOG_MODE" envDefault:"development"`
	HTTPAddr    string   `env:"HTTP_ADDR" envDefault:":8080"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`

	CatalogPath     string `env:"CATALOG_PATH"`
	BaseTriggerRate int    `env:"BASE_TRIGGER_RATE" envDefault:"15"`

	HashKey         string        `env:"INTEGRITY_HASH_KEY"`
	RateMinInterval time.Duration `env:"RATE_MIN_INTERVAL" envDefault:"100ms"`
	RatePerMinute   int           `env:"RATE_PER_MINUTE" envDefault:"120"`
	RateBurstWindow time.Duration `env:"RATE_BURST_WINDOW" envDefault:"2s"`
	RateBurstMax    int           `env:"RATE_BURST_MAX" envDefault:"10"`

	TrackingRetention     time.Duration `env:"TRACKING_RETENTION" envDefault:"24h"`
	TrackingSweepInterval time.Duration `env:"TRACKING_SWEEP_INTERVAL" envDefault:"5m"`

	DB         db.Config
	Redis      generation.RedisConfig
	Cache      generation.CacheConfig
	Generation generation.Config
	TextGen    textgen.Config
	Otel       observability.OtelConfig
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
