package services

import (
	"context"

	"github.com/yungbote/cloudsim-backend/internal/domain/game"
	"github.com/yungbote/cloudsim-backend/internal/modules/generation"
	"github.com/yungbote/cloudsim-backend/internal/modules/integrity"
	"github.com/yungbote/cloudsim-backend/internal/modules/trigger"
	"github.com/yungbote/cloudsim-backend/internal/pkg/dbctx"
	apperrors "github.com/yungbote/cloudsim-backend/internal/pkg/errors"
	"github.com/yungbote/cloudsim-backend/internal/platform/logger"
	"github.com/yungbote/cloudsim-backend/internal/repos"
)

// SourceStatic marks an outcome that uses the catalog's own content.
const SourceStatic = "static"

// ContentGenerator produces dynamic event content. *generation.Pipeline
// implements it.
type ContentGenerator interface {
	Enabled() bool
	Generate(ctx context.Context, snap game.Snapshot, hint *game.EventDefinition) (generation.Result, error)
}

// Outcome is the per-turn event decision handed back to the caller.
type Outcome struct {
	Triggered  bool                  `json:"triggered"`
	Stage      trigger.Stage         `json:"stage"`
	Seed       string                `json:"seed,omitempty"`
	Definition *game.EventDefinition `json:"definition,omitempty"`
	Generated  *game.GeneratedEvent  `json:"generated,omitempty"`
	Choices    []game.Choice         `json:"choices,omitempty"`
	Source     string                `json:"source,omitempty"`
	Quality    *game.QualityScore    `json:"quality,omitempty"`
	Anomaly    integrity.Report      `json:"anomaly"`
}

type ChoiceOutcome struct {
	EventID string           `json:"eventId"`
	Index   int              `json:"index"`
	Choice  game.Choice      `json:"choice"`
	Anomaly integrity.Report `json:"anomaly"`
}

type TransitionOutcome struct {
	Verdict game.ValidationVerdict `json:"verdict"`
	Anomaly integrity.Report       `json:"anomaly"`
}

type TurnEventService interface {
	NextEvent(ctx context.Context, snap game.Snapshot) (Outcome, error)
	ResolveChoice(ctx context.Context, gameID, eventID string, index int) (ChoiceOutcome, error)
	ValidateTransition(ctx context.Context, before, after game.Snapshot) (TransitionOutcome, error)
}

type turnEventService struct {
	log       *logger.Logger
	engine    *trigger.Engine
	guard     *integrity.Guard
	generator ContentGenerator
	states    repos.EventStateRepo
	recorder  incidentRecorder
}

func NewTurnEventService(
	baseLog *logger.Logger,
	engine *trigger.Engine,
	guard *integrity.Guard,
	generator ContentGenerator,
	states repos.EventStateRepo,
	incidents repos.IncidentRepo,
) TurnEventService {
	log := baseLog.With("service", "TurnEventService")
	return &turnEventService{
		log:       log,
		engine:    engine,
		guard:     guard,
		generator: generator,
		states:    states,
		recorder:  incidentRecorder{repo: incidents, log: log},
	}
}

// NextEvent runs one turn's event decision: admission, snapshot validation,
// trigger evaluation and, for dynamic definitions, generated content with a
// fallback to the static entry.
func (s *turnEventService) NextEvent(ctx context.Context, snap game.Snapshot) (Outcome, error) {
	const op = "services.NextEvent"
	tagGame(ctx, snap.GameID)

	if err := s.guard.CheckRequest(snap.GameID); err != nil {
		if apperrors.CodeOf(err) != apperrors.CodeInvalidArgument {
			s.recorder.denial(ctx, snap.GameID, snap.Turn, s.guard.Report(snap.GameID), err)
		}
		return Outcome{}, err
	}
	if v := s.guard.ValidateSnapshot(snap); !v.Valid {
		s.recorder.record(ctx, repos.Incident{
			GameID:  snap.GameID,
			Kind:    repos.IncidentSnapshotRejected,
			Turn:    snap.Turn,
			Reasons: v.Errors,
		})
		return Outcome{}, apperrors.InvalidArgument(op, v.Errors...)
	}

	rep := s.guard.ObserveTurn(snap.GameID, snap.Turn)
	if rep.Blocked {
		reason, _ := s.guard.BlockReason(snap.GameID)
		err := apperrors.New(apperrors.CodeSessionBlocked, op, nil, reason)
		s.recorder.denial(ctx, snap.GameID, snap.Turn, rep, err)
		return Outcome{}, err
	}

	if err := s.restore(ctx, snap.GameID); err != nil {
		return Outcome{}, err
	}

	res, err := s.engine.Evaluate(ctx, snap)
	if err != nil {
		s.log.Error("trigger evaluation failed", "game_id", snap.GameID, "turn", snap.Turn, "error", err)
		if apperrors.CodeOf(err) == apperrors.CodeExhaustedEntropy {
			s.endSession(ctx, snap.GameID, snap.Turn, rep, "entropy exhausted")
		}
		return Outcome{}, err
	}
	out := Outcome{Triggered: res.Triggered, Stage: res.Stage, Seed: res.Seed, Anomaly: rep}
	if !res.Triggered {
		return out, nil
	}

	def := *res.Event
	out.Definition = &def
	out.Choices = def.Choices
	out.Source = SourceStatic

	if def.Dynamic && s.generator != nil && s.generator.Enabled() {
		gen, err := s.generator.Generate(ctx, snap, &def)
		switch {
		case err != nil:
			s.log.Warn("dynamic content unavailable, using static event",
				"game_id", snap.GameID,
				"event_id", def.ID,
				"error", err,
			)
		default:
			if err := s.engine.OfferChoices(snap.GameID, def.ID, gen.Event.Choices); err != nil {
				return Outcome{}, err
			}
			ev := gen.Event
			out.Generated = &ev
			out.Choices = ev.Choices
			out.Source = string(gen.Source)
			out.Quality = gen.Verdict.Quality
		}
	}

	s.persist(ctx, snap.GameID)
	return out, nil
}

// ResolveChoice records the player's selection for an active event and
// returns the chosen option, whose effects the caller applies.
func (s *turnEventService) ResolveChoice(ctx context.Context, gameID, eventID string, index int) (ChoiceOutcome, error) {
	const op = "services.ResolveChoice"
	tagGame(ctx, gameID)
	if eventID == "" {
		return ChoiceOutcome{}, apperrors.InvalidArgument(op, "eventId required")
	}
	if err := s.guard.CheckRequest(gameID); err != nil {
		if apperrors.CodeOf(err) != apperrors.CodeInvalidArgument {
			s.recorder.denial(ctx, gameID, 0, s.guard.Report(gameID), err)
		}
		return ChoiceOutcome{}, err
	}
	if err := s.restore(ctx, gameID); err != nil {
		return ChoiceOutcome{}, err
	}
	choice, err := s.engine.ResolveChoice(gameID, eventID, index)
	if err != nil {
		return ChoiceOutcome{}, err
	}
	rep := s.guard.ObserveChoice(gameID, index)
	s.persist(ctx, gameID)
	return ChoiceOutcome{EventID: eventID, Index: index, Choice: choice, Anomaly: rep}, nil
}

// ValidateTransition checks a proposed before/after pair. Rejections are
// verdicts, not errors, and are recorded as incidents.
func (s *turnEventService) ValidateTransition(ctx context.Context, before, after game.Snapshot) (TransitionOutcome, error) {
	tagGame(ctx, after.GameID)
	if err := s.guard.CheckRequest(after.GameID); err != nil {
		if apperrors.CodeOf(err) != apperrors.CodeInvalidArgument {
			s.recorder.denial(ctx, after.GameID, after.Turn, s.guard.Report(after.GameID), err)
		}
		return TransitionOutcome{}, err
	}
	v := s.guard.ValidateTransition(before, after)
	var rep integrity.Report
	if before.GameID == after.GameID {
		rep = s.guard.ObserveTurn(after.GameID, after.Turn)
	} else {
		rep = s.guard.Report(after.GameID)
	}
	if !v.Valid {
		s.recorder.record(ctx, repos.Incident{
			GameID:  after.GameID,
			Kind:    repos.IncidentTransitionRejected,
			Turn:    after.Turn,
			Score:   rep.Score,
			Reasons: v.Errors,
		})
	}
	if rep.Blocked {
		reason, _ := s.guard.BlockReason(after.GameID)
		s.recorder.record(ctx, repos.Incident{
			GameID:  after.GameID,
			Kind:    repos.IncidentSessionBlocked,
			Turn:    after.Turn,
			Score:   rep.Score,
			Reasons: []string{reason},
		})
	}
	return TransitionOutcome{Verdict: v, Anomaly: rep}, nil
}

// endSession blocks gameID for good and records why.
func (s *turnEventService) endSession(ctx context.Context, gameID string, turn int, rep integrity.Report, reason string) {
	if !s.guard.Block(gameID, reason) {
		return
	}
	s.recorder.record(ctx, repos.Incident{
		GameID:  gameID,
		Kind:    repos.IncidentSessionBlocked,
		Turn:    turn,
		Score:   rep.Score,
		Reasons: []string{reason},
	})
}

// restore loads persisted event states the first time a game is seen by this
// process, or again after its tracking record was swept.
func (s *turnEventService) restore(ctx context.Context, gameID string) error {
	if s.states == nil || len(s.engine.States(gameID)) > 0 {
		return nil
	}
	states, err := s.states.ListByGame(dbctx.Context{Ctx: ctx}, gameID)
	if err != nil {
		s.log.Error("load event states failed", "game_id", gameID, "error", err)
		return err
	}
	if len(states) == 0 {
		return nil
	}
	return s.engine.Restore(gameID, states)
}

func (s *turnEventService) persist(ctx context.Context, gameID string) {
	if s.states == nil {
		return
	}
	if err := s.states.Upsert(dbctx.Context{Ctx: context.WithoutCancel(ctx)}, s.engine.States(gameID)); err != nil {
		s.log.Error("persist event states failed", "game_id", gameID, "error", err)
	}
}
