package services

import (
	"context"

	"github.com/yungbote/cloudsim-backend/internal/domain/game"
	"github.com/yungbote/cloudsim-backend/internal/modules/integrity"
	"github.com/yungbote/cloudsim-backend/internal/pkg/dbctx"
	"github.com/yungbote/cloudsim-backend/internal/platform/ctxutil"
	"github.com/yungbote/cloudsim-backend/internal/platform/logger"
	"github.com/yungbote/cloudsim-backend/internal/repos"
)

type IntegrityService interface {
	ValidateSnapshot(ctx context.Context, snap game.Snapshot) game.ValidationVerdict
	ComputeHash(ctx context.Context, snap game.Snapshot) (string, error)
	VerifyHash(ctx context.Context, snap game.Snapshot, expected string) (bool, error)
	Report(ctx context.Context, gameID string) integrity.Report
	Incidents(ctx context.Context, gameID string, limit int) ([]repos.Incident, error)
	RestoreBlocks(ctx context.Context) (int, error)
}

type integrityService struct {
	log       *logger.Logger
	guard     *integrity.Guard
	incidents repos.IncidentRepo
	recorder  incidentRecorder
}

func NewIntegrityService(baseLog *logger.Logger, guard *integrity.Guard, incidents repos.IncidentRepo) IntegrityService {
	log := baseLog.With("service", "IntegrityService")
	return &integrityService{
		log:       log,
		guard:     guard,
		incidents: incidents,
		recorder:  incidentRecorder{repo: incidents, log: log},
	}
}

func (s *integrityService) ValidateSnapshot(ctx context.Context, snap game.Snapshot) game.ValidationVerdict {
	tagGame(ctx, snap.GameID)
	v := s.guard.ValidateSnapshot(snap)
	if !v.Valid {
		s.log.Debug("snapshot rejected", "game_id", snap.GameID, "errors", len(v.Errors))
	}
	return v
}

func (s *integrityService) ComputeHash(ctx context.Context, snap game.Snapshot) (string, error) {
	tagGame(ctx, snap.GameID)
	return s.guard.ComputeHash(snap)
}

// VerifyHash reports whether expected matches the snapshot's canonical hash.
// A mismatch is recorded as an incident.
func (s *integrityService) VerifyHash(ctx context.Context, snap game.Snapshot, expected string) (bool, error) {
	tagGame(ctx, snap.GameID)
	ok, err := s.guard.VerifyHash(snap, expected)
	if err != nil {
		return false, err
	}
	if !ok {
		s.recorder.record(ctx, repos.Incident{
			GameID:  snap.GameID,
			Kind:    repos.IncidentHashMismatch,
			Turn:    snap.Turn,
			Reasons: []string{"hash: does not match canonical snapshot"},
		})
	}
	return ok, nil
}

func (s *integrityService) Report(ctx context.Context, gameID string) integrity.Report {
	tagGame(ctx, gameID)
	return s.guard.Report(gameID)
}

func (s *integrityService) Incidents(ctx context.Context, gameID string, limit int) ([]repos.Incident, error) {
	tagGame(ctx, gameID)
	if s.incidents == nil {
		return []repos.Incident{}, nil
	}
	return s.incidents.ListByGame(dbctx.Context{Ctx: ctx}, gameID, limit)
}

// RestoreBlocks re-applies every block recorded in the incident log, so a
// blocked game stays blocked across restarts. It returns the number of games
// blocked.
func (s *integrityService) RestoreBlocks(ctx context.Context) (int, error) {
	if s.incidents == nil {
		return 0, nil
	}
	ids, err := s.incidents.ListGameIDsByKind(dbctx.Context{Ctx: ctx}, repos.IncidentSessionBlocked)
	if err != nil {
		s.log.Error("load blocked games failed", "error", err)
		return 0, err
	}
	n := 0
	for _, id := range ids {
		if s.guard.Block(id, "blocked by an earlier session") {
			n++
		}
	}
	if n > 0 {
		s.log.Info("restored blocked games", "count", n)
	}
	return n, nil
}

func tagGame(ctx context.Context, gameID string) {
	if gd := ctxutil.GetGameData(ctx); gd != nil && gd.GameID == "" {
		gd.GameID = gameID
	}
}
