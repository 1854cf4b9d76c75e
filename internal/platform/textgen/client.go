// Package textgen is the client for the external text-generation backend.
//
// The backend speaks a completions protocol:
//
//	POST {base}/v1/completions  {"prompt", "max_tokens", "temperature", "top_p", "stop", "n"}
//	  -> {"choices": [{"text": "..."}]}
//	GET  {base}/health          -> 2xx when ready
//
// Every completion attempt runs under its own timeout. A refused connection
// fails immediately; timeouts and retryable HTTP statuses are retried with
// linear backoff until the retry budget is spent.
package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	apperrors "github.com/yungbote/cloudsim-backend/internal/pkg/errors"
	"github.com/yungbote/cloudsim-backend/internal/pkg/httpx"
	"github.com/yungbote/cloudsim-backend/internal/platform/logger"
)

type Config struct {
	BaseURL     string        `env:"TEXTGEN_BASE_URL" envDefault:"http://localhost:8081"`
	Timeout     time.Duration `env:"TEXTGEN_TIMEOUT" envDefault:"30s"`
	MaxRetries  int           `env:"TEXTGEN_MAX_RETRIES" envDefault:"3"`
	BackoffStep time.Duration `env:"TEXTGEN_BACKOFF_STEP" envDefault:"1s"`
	MaxBackoff  time.Duration `env:"TEXTGEN_MAX_BACKOFF" envDefault:"10s"`
	RPS         float64       `env:"TEXTGEN_RPS" envDefault:"5"`
	Burst       int           `env:"TEXTGEN_BURST" envDefault:"5"`
	MaxTokens   int           `env:"TEXTGEN_MAX_TOKENS" envDefault:"800"`
	Temperature float64       `env:"TEXTGEN_TEMPERATURE" envDefault:"0.8"`
	TopP        float64       `env:"TEXTGEN_TOP_P" envDefault:"0.95"`
	Stop        []string      `env:"TEXTGEN_STOP" envSeparator:"|"`
}

// Client is the text-generation backend used by the content pipeline.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Health(ctx context.Context) error
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	tracer     trace.Tracer
	sleep      func(ctx context.Context, d time.Duration) error
}

type Option func(*client)

// WithHTTPClient replaces the transport. Per-attempt timeouts still come from
// Config.Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func withSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *client) { c.sleep = fn }
}

func NewClient(log *logger.Logger, cfg Config, opts ...Option) (Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("missing TEXTGEN_BASE_URL")
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 800
	}
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	c := &client{
		log:        log.With("service", "TextGenClient"),
		cfg:        cfg,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(limit, burst),
		tracer:     otel.Tracer("cloudsim/textgen"),
		sleep:      sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type completionRequest struct {
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens"`
	Temperature float64  `json:"temperature"`
	TopP        float64  `json:"top_p"`
	Stop        []string `json:"stop,omitempty"`
	N           int      `json:"n"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

type backendHTTPError struct {
	StatusCode int
	Body       string
}

func (e *backendHTTPError) Error() string {
	return fmt.Sprintf("textgen http %d: %s", e.StatusCode, e.Body)
}

func (e *backendHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// decision is the outcome of classifying one attempt.
type decision int

const (
	decisionDone decision = iota
	decisionRetry
	decisionFail
)

func classify(err error) decision {
	switch {
	case err == nil:
		return decisionDone
	case httpx.IsRetryableError(err):
		return decisionRetry
	default:
		return decisionFail
	}
}

// Complete sends prompt to the backend and returns the first choice's text.
// Exhausted or fatal failures are returned as GenerationFailed.
func (c *client) Complete(ctx context.Context, prompt string) (string, error) {
	const op = "textgen.Complete"
	body := completionRequest{
		Prompt:      prompt,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		TopP:        c.cfg.TopP,
		Stop:        c.cfg.Stop,
		N:           1,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", apperrors.New(apperrors.CodeGenerationFailed, op, err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries+1; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", apperrors.New(apperrors.CodeGenerationFailed, op, err)
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return "", apperrors.New(apperrors.CodeGenerationFailed, op, err)
		}

		resp, text, err := c.attempt(ctx, attempt, payload)
		switch classify(err) {
		case decisionDone:
			return text, nil
		case decisionFail:
			c.log.Warn("textgen request failed", "attempt", attempt, "error", err.Error())
			return "", apperrors.New(apperrors.CodeGenerationFailed, op, err, "non-retryable backend error")
		}
		lastErr = err
		if attempt > c.cfg.MaxRetries {
			break
		}
		wait := httpx.RetryAfterDuration(resp, httpx.LinearBackoff(c.cfg.BackoffStep, attempt, c.cfg.MaxBackoff), c.cfg.MaxBackoff)
		c.log.Warn("textgen request retrying",
			"attempt", attempt,
			"max_retries", c.cfg.MaxRetries,
			"sleep", wait.String(),
			"error", err.Error(),
		)
		if err := c.sleep(ctx, wait); err != nil {
			return "", apperrors.New(apperrors.CodeGenerationFailed, op, err)
		}
	}
	return "", apperrors.New(apperrors.CodeGenerationFailed, op, lastErr,
		fmt.Sprintf("exhausted %d attempts", c.cfg.MaxRetries+1))
}

func (c *client) attempt(ctx context.Context, attempt int, payload []byte) (*http.Response, string, error) {
	ctx, span := c.tracer.Start(ctx, "textgen.completion", trace.WithAttributes(
		attribute.Int("textgen.attempt", attempt),
		attribute.Int("textgen.prompt_bytes", len(payload)),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, raw, err := c.doOnce(ctx, http.MethodPost, "/v1/completions", payload)
	if resp != nil {
		span.SetAttributes(attribute.String("http.status", strconv.Itoa(resp.StatusCode)))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return resp, "", err
	}
	var out completionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return resp, "", fmt.Errorf("textgen decode error: %w", err)
	}
	if len(out.Choices) == 0 {
		return resp, "", errors.New("textgen response has no choices")
	}
	return resp, out.Choices[0].Text, nil
}

func (c *client) doOnce(ctx context.Context, method, path string, payload []byte) (*http.Response, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &backendHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

// Health probes the backend once with the configured timeout.
func (c *client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	_, _, err := c.doOnce(ctx, http.MethodGet, "/health", nil)
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
