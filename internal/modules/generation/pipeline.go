// Package generation turns a game snapshot into a validated, scored,
// cached event produced by the text-generation backend.
//
// Generate runs: cache lookup, prompt build, backend call, extraction,
// validation with auto-repair, quality scoring, cache store. Any failure
// returns an error the caller treats as "no content" and falls back to the
// static catalog. Concurrent misses for the same cache key share one backend
// call.
package generation

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/cloudsim-backend/internal/domain/game"
	apperrors "github.com/yungbote/cloudsim-backend/internal/pkg/errors"
	"github.com/yungbote/cloudsim-backend/internal/platform/logger"
	"github.com/yungbote/cloudsim-backend/internal/platform/textgen"
)

type Config struct {
	Enabled bool          `env:"GENERATION_ENABLED" envDefault:"true"`
	Timeout time.Duration `env:"GENERATION_TIMEOUT" envDefault:"90s"`
}

type Source string

const (
	SourceCache   Source = "cache"
	SourceBackend Source = "backend"
)

type Result struct {
	Event   game.GeneratedEvent    `json:"event"`
	Verdict game.ValidationVerdict `json:"verdict"`
	Source  Source                 `json:"source"`
	Key     string                 `json:"key"`
}

type PipelineStats struct {
	Cache     CacheStats `json:"cache"`
	Requests  int64      `json:"requests"`
	Generated int64      `json:"generated"`
	Rejected  int64      `json:"rejected"`
	Failures  int64      `json:"failures"`
	Shared    int64      `json:"shared"`
}

type Pipeline struct {
	log       *logger.Logger
	cfg       Config
	backend   textgen.Client
	cache     *Cache
	validator *Validator
	scorer    *Scorer
	group     singleflight.Group
	tracer    trace.Tracer

	requests, generated, rejected, failures, shared atomic.Int64
}

func NewPipeline(log *logger.Logger, cfg Config, backend textgen.Client, cache *Cache, validator *Validator, scorer *Scorer) *Pipeline {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	return &Pipeline{
		log:       log.With("component", "GenerationPipeline"),
		cfg:       cfg,
		backend:   backend,
		cache:     cache,
		validator: validator,
		scorer:    scorer,
		tracer:    otel.Tracer("cloudsim/generation"),
	}
}

func (p *Pipeline) Enabled() bool { return p != nil && p.cfg.Enabled && p.backend != nil }

func (p *Pipeline) Stats() PipelineStats {
	return PipelineStats{
		Cache:     p.cache.Stats(),
		Requests:  p.requests.Load(),
		Generated: p.generated.Load(),
		Rejected:  p.rejected.Load(),
		Failures:  p.failures.Load(),
		Shared:    p.shared.Load(),
	}
}

// Health reports whether the backend answers its health probe.
func (p *Pipeline) Health(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	return p.backend.Health(ctx)
}

// Generate returns accepted content for snap. hint, when non-nil, is the
// catalog definition being made dynamic.
func (p *Pipeline) Generate(ctx context.Context, snap game.Snapshot, hint *game.EventDefinition) (Result, error) {
	const op = "generation.Generate"
	if !p.Enabled() {
		return Result{}, apperrors.New(apperrors.CodeGenerationFailed, op, nil, "generation disabled")
	}
	p.requests.Add(1)
	key := CacheKeyFor(snap, hint)

	v, err, shared := p.group.Do(key, func() (any, error) {
		if ev, ok := p.cache.Get(ctx, key); ok {
			return Result{Event: ev, Verdict: game.ValidationVerdict{Valid: true}, Source: SourceCache, Key: key}, nil
		}
		// The fill outlives any single waiter's cancellation.
		fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.Timeout)
		defer cancel()
		return p.generate(fillCtx, snap, hint, key)
	})
	if shared {
		p.shared.Add(1)
	}
	if err != nil {
		return Result{}, err
	}
	res := v.(Result)
	res.Event = res.Event.Clone()
	return res, nil
}

func (p *Pipeline) generate(ctx context.Context, snap game.Snapshot, hint *game.EventDefinition, key string) (Result, error) {
	const op = "generation.Generate"
	ctx, span := p.tracer.Start(ctx, "generation.generate", trace.WithAttributes(
		attribute.String("generation.key", key),
		attribute.String("game.id", snap.GameID),
	))
	defer span.End()

	fail := func(err error) (Result, error) {
		p.failures.Add(1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.log.Warn("generation failed, falling back to static content", "game_id", snap.GameID, "key", key, "error", err)
		return Result{}, err
	}

	prompt := BuildPrompt(snap, hint, p.validator.Config())
	text, err := p.backend.Complete(ctx, prompt)
	if err != nil {
		return fail(err)
	}
	raw, err := ExtractJSON(text)
	if err != nil {
		return fail(err)
	}

	ev, verdict := p.validator.ValidatePayload(raw, snap)
	if !verdict.Valid {
		p.rejected.Add(1)
		return fail(apperrors.New(apperrors.CodeGenerationFailed, op, nil, verdict.Errors...))
	}
	if verdict.Repaired != nil {
		ev = *verdict.Repaired
	}
	ev = normalizeChoiceIDs(ev)

	q := p.scorer.Score(ev, snap)
	verdict.Quality = &q
	span.SetAttributes(attribute.Int("generation.quality", q.Overall))
	if q.Overall < p.scorer.MinQuality() {
		p.rejected.Add(1)
		return fail(apperrors.New(apperrors.CodeGenerationFailed, op, nil,
			fmt.Sprintf("quality %d below minimum %d", q.Overall, p.scorer.MinQuality())))
	}

	p.cache.Set(ctx, key, ev)
	p.generated.Add(1)
	p.log.Info("generated event accepted",
		"game_id", snap.GameID,
		"key", key,
		"quality", q.Overall,
		"repaired", verdict.Repaired != nil,
	)
	return Result{Event: ev, Verdict: verdict, Source: SourceBackend, Key: key}, nil
}

// normalizeChoiceIDs fills missing or duplicate choice ids with positional
// letters.
func normalizeChoiceIDs(ev game.GeneratedEvent) game.GeneratedEvent {
	seen := map[string]bool{}
	for i := range ev.Choices {
		id := strings.TrimSpace(ev.Choices[i].ID)
		if id == "" || seen[id] {
			id = string(rune('a' + i))
		}
		seen[id] = true
		ev.Choices[i].ID = id
	}
	return ev
}
