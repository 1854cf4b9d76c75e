package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/cloudsim-backend/internal/domain/game"
	"github.com/yungbote/cloudsim-backend/internal/http/response"
	"github.com/yungbote/cloudsim-backend/internal/modules/generation"
	"github.com/yungbote/cloudsim-backend/internal/modules/integrity"
	apperrors "github.com/yungbote/cloudsim-backend/internal/pkg/errors"
	"github.com/yungbote/cloudsim-backend/internal/repos"
	"github.com/yungbote/cloudsim-backend/internal/services"
)

type fakeTurns struct {
	next    services.Outcome
	err     error
	gotSnap game.Snapshot
	gotIdx  int
	verdict game.ValidationVerdict
}

func (f *fakeTurns) NextEvent(ctx context.Context, snap game.Snapshot) (services.Outcome, error) {
	f.gotSnap = snap
	return f.next, f.err
}

func (f *fakeTurns) ResolveChoice(ctx context.Context, gameID, eventID string, index int) (services.ChoiceOutcome, error) {
	f.gotIdx = index
	if f.err != nil {
		return services.ChoiceOutcome{}, f.err
	}
	return services.ChoiceOutcome{EventID: eventID, Index: index}, nil
}

func (f *fakeTurns) ValidateTransition(ctx context.Context, before, after game.Snapshot) (services.TransitionOutcome, error) {
	return services.TransitionOutcome{Verdict: f.verdict}, f.err
}

type fakeIntegrity struct {
	valid bool
}

func (f *fakeIntegrity) ValidateSnapshot(ctx context.Context, snap game.Snapshot) game.ValidationVerdict {
	if f.valid {
		return game.ValidationVerdict{Valid: true}
	}
	return game.ValidationVerdict{Errors: []string{"trust: 140 outside [0,100]"}}
}

func (f *fakeIntegrity) ComputeHash(ctx context.Context, snap game.Snapshot) (string, error) {
	return "abc", nil
}

func (f *fakeIntegrity) VerifyHash(ctx context.Context, snap game.Snapshot, expected string) (bool, error) {
	return expected == "abc", nil
}

func (f *fakeIntegrity) Report(ctx context.Context, gameID string) integrity.Report {
	return integrity.Report{GameID: gameID, Signals: []string{}}
}

func (f *fakeIntegrity) Incidents(ctx context.Context, gameID string, limit int) ([]repos.Incident, error) {
	return make([]repos.Incident, 0, limit), nil
}

func (f *fakeIntegrity) RestoreBlocks(ctx context.Context) (int, error) { return 0, nil }

type fakeStats struct{}

func (fakeStats) Enabled() bool { return true }
func (fakeStats) Stats() generation.PipelineStats {
	return generation.PipelineStats{Requests: 3, Cache: generation.CacheStats{Backend: "local", Hits: 2}}
}

func newTestRouter(turns services.TurnEventService, integ services.IntegrityService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	eh := NewEventHandler(turns)
	ih := NewIntegrityHandler(integ)
	gh := NewGenerationHandler(fakeStats{})
	r.POST("/api/games/:gameId/events/next", eh.NextEvent)
	r.POST("/api/games/:gameId/events/:eventId/choices/:index", eh.ResolveChoice)
	r.POST("/api/games/:gameId/transitions/validate", eh.ValidateTransition)
	r.POST("/api/snapshots/validate", ih.ValidateSnapshot)
	r.POST("/api/snapshots/verify", ih.Verify)
	r.GET("/api/games/:gameId/incidents", ih.Incidents)
	r.GET("/api/generation/cache/stats", gh.CacheStats)
	return r
}

func do(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.APIError {
	t.Helper()
	var env response.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v body=%s", err, rec.Body.String())
	}
	return env.Error
}

func TestNextEventFillsGameIDFromPath(t *testing.T) {
	turns := &fakeTurns{next: services.Outcome{Triggered: true, Source: services.SourceStatic}}
	r := newTestRouter(turns, &fakeIntegrity{valid: true})

	rec := do(r, http.MethodPost, "/api/games/g-7/events/next", map[string]any{"turn": 3, "status": "active"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	if turns.gotSnap.GameID != "g-7" || turns.gotSnap.Turn != 3 {
		t.Fatalf("snapshot passed to service: %+v", turns.gotSnap)
	}
}

func TestNextEventRejectsGameIDMismatch(t *testing.T) {
	r := newTestRouter(&fakeTurns{}, &fakeIntegrity{valid: true})
	rec := do(r, http.MethodPost, "/api/games/g-7/events/next", map[string]any{"gameId": "other"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", rec.Code)
	}
	if e := decodeError(t, rec); e.Code != "game_id_mismatch" {
		t.Fatalf("code: want=game_id_mismatch got=%s", e.Code)
	}
}

func TestNextEventMapsErrorCodes(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperrors.RateLimited("test", "too fast"), http.StatusTooManyRequests},
		{apperrors.New(apperrors.CodeSessionBlocked, "test", nil), http.StatusForbidden},
		{apperrors.InvalidArgument("test", "trust: out of range"), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		r := newTestRouter(&fakeTurns{err: tc.err}, &fakeIntegrity{valid: true})
		rec := do(r, http.MethodPost, "/api/games/g/events/next", map[string]any{})
		if rec.Code != tc.status {
			t.Fatalf("%v: want=%d got=%d", tc.err, tc.status, rec.Code)
		}
	}
}

func TestInvalidArgumentCarriesReasons(t *testing.T) {
	r := newTestRouter(&fakeTurns{err: apperrors.InvalidArgument("test", "trust: out of range", "turn: negative")}, &fakeIntegrity{})
	rec := do(r, http.MethodPost, "/api/games/g/events/next", map[string]any{})
	e := decodeError(t, rec)
	if e.Code != string(apperrors.CodeInvalidArgument) || len(e.Reasons) != 2 {
		t.Fatalf("error envelope: %+v", e)
	}
}

func TestResolveChoiceParsesIndex(t *testing.T) {
	turns := &fakeTurns{}
	r := newTestRouter(turns, &fakeIntegrity{valid: true})
	if rec := do(r, http.MethodPost, "/api/games/g/events/disk/choices/2", nil); rec.Code != http.StatusOK || turns.gotIdx != 2 {
		t.Fatalf("resolve: status=%d idx=%d", rec.Code, turns.gotIdx)
	}
	if rec := do(r, http.MethodPost, "/api/games/g/events/disk/choices/two", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad index: want=400 got=%d", rec.Code)
	}
}

func TestValidateTransitionRejectionIs422(t *testing.T) {
	turns := &fakeTurns{verdict: game.ValidationVerdict{Errors: []string{"turn: regressed from 4 to 2"}}}
	r := newTestRouter(turns, &fakeIntegrity{valid: true})
	rec := do(r, http.MethodPost, "/api/games/g/transitions/validate", map[string]any{
		"before": map[string]any{"turn": 4},
		"after":  map[string]any{"turn": 2},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: want=422 got=%d", rec.Code)
	}
}

func TestSnapshotValidateAndVerify(t *testing.T) {
	r := newTestRouter(&fakeTurns{}, &fakeIntegrity{valid: false})
	if rec := do(r, http.MethodPost, "/api/snapshots/validate", map[string]any{"gameId": "g"}); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("validate: want=422 got=%d", rec.Code)
	}
	rec := do(r, http.MethodPost, "/api/snapshots/verify", map[string]any{"snapshot": map[string]any{"gameId": "g"}, "hash": "abc"})
	var body struct {
		Valid bool `json:"valid"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || !body.Valid {
		t.Fatalf("verify: status=%d body=%s", rec.Code, rec.Body.String())
	}
	if rec := do(r, http.MethodPost, "/api/snapshots/verify", map[string]any{"snapshot": map[string]any{"gameId": "g"}}); rec.Code != http.StatusBadRequest {
		t.Fatalf("verify without hash: want=400 got=%d", rec.Code)
	}
}

func TestIncidentsLimitValidation(t *testing.T) {
	r := newTestRouter(&fakeTurns{}, &fakeIntegrity{valid: true})
	if rec := do(r, http.MethodGet, "/api/games/g/incidents?limit=0", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("limit=0: want=400 got=%d", rec.Code)
	}
	if rec := do(r, http.MethodGet, "/api/games/g/incidents?limit=5", nil); rec.Code != http.StatusOK {
		t.Fatalf("limit=5: want=200 got=%d", rec.Code)
	}
}

func TestCacheStats(t *testing.T) {
	r := newTestRouter(&fakeTurns{}, &fakeIntegrity{valid: true})
	rec := do(r, http.MethodGet, "/api/generation/cache/stats", nil)
	var body struct {
		Enabled bool                     `json:"enabled"`
		Stats   generation.PipelineStats `json:"stats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Enabled || body.Stats.Requests != 3 || body.Stats.Cache.Hits != 2 {
		t.Fatalf("stats: %+v", body)
	}
}

func TestHealthCheckRequiredProbe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHealthHandler(
		Probe{Name: "db", Required: true, Check: func(context.Context) error { return nil }},
		Probe{Name: "textgen", Check: func(context.Context) error { return errors.New("down") }},
	)
	r.GET("/healthcheck", h.HealthCheck)
	if rec := do(r, http.MethodGet, "/healthcheck", nil); rec.Code != http.StatusOK {
		t.Fatalf("optional failure should not fail health: %d", rec.Code)
	}

	h = NewHealthHandler(Probe{Name: "db", Required: true, Check: func(context.Context) error { return errors.New("down") }})
	r = gin.New()
	r.GET("/healthcheck", h.HealthCheck)
	if rec := do(r, http.MethodGet, "/healthcheck", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("required failure: want=503 got=%d", rec.Code)
	}
}
