// Package trigger decides which catalog event, if any, fires for a game on a
// given turn.
//
// An evaluation moves through Idle, Filtering, Rolling and ends Triggered or
// NotTriggered. Filtering keeps the entries whose eligibility predicate holds
// for the snapshot and the game's tracking record. Survivors are ordered by
// descending priority with catalog order breaking ties. Rolling derives one
// seed for the (game, turn) and walks the candidates in order, accepting the
// first whose seed-derived fraction falls below its probability. At most one
// event triggers per evaluation.
package trigger

import (
	"context"
	"fmt"
	"sort"

	"github.com/yungbote/cloudsim-backend/internal/domain/game"
	"github.com/yungbote/cloudsim-backend/internal/modules/catalog"
	"github.com/yungbote/cloudsim-backend/internal/modules/securerand"
	"github.com/yungbote/cloudsim-backend/internal/modules/tracking"
	apperrors "github.com/yungbote/cloudsim-backend/internal/pkg/errors"
	"github.com/yungbote/cloudsim-backend/internal/platform/logger"
)

const DefaultBaseRate = 15

// decisionHistory is how many turns of decisions a game record keeps.
const decisionHistory = 8

type Stage string

const (
	StageIdle         Stage = "idle"
	StageFiltering    Stage = "filtering"
	StageRolling      Stage = "rolling"
	StageTriggered    Stage = "triggered"
	StageNotTriggered Stage = "not_triggered"
)

// GameRecord is the tracking record the engine keeps per game.
type GameRecord struct {
	States map[string]*game.EventState
	// Offered holds the choices last presented for an event, which may be
	// generated rather than the catalog's own.
	Offered map[string][]game.Choice
	// Decisions holds the evaluation result per turn. A turn is rolled once;
	// later evaluations of the same turn return the recorded result.
	Decisions map[int]Result
}

func NewGameRecord(string) *GameRecord {
	return &GameRecord{
		States:    make(map[string]*game.EventState),
		Offered:   make(map[string][]game.Choice),
		Decisions: make(map[int]Result),
	}
}

type Config struct {
	// BaseRate is the trigger percentage for entries without a probability.
	BaseRate int
}

type Candidate struct {
	EventID     string  `json:"eventId"`
	Priority    int     `json:"priority"`
	Probability int     `json:"probability"`
	Roll        float64 `json:"roll"`
}

type Result struct {
	Triggered  bool                  `json:"triggered"`
	Event      *game.EventDefinition `json:"event,omitempty"`
	Seed       string                `json:"seed,omitempty"`
	Roll       float64               `json:"roll,omitempty"`
	Candidates []Candidate           `json:"candidates,omitempty"`
	Stage      Stage                 `json:"stage"`
}

type Engine struct {
	log     *logger.Logger
	catalog *catalog.Catalog
	records *tracking.Store[GameRecord]
	src     *securerand.Source
	cfg     Config
}

func NewEngine(log *logger.Logger, cat *catalog.Catalog, records *tracking.Store[GameRecord], src *securerand.Source, cfg Config) *Engine {
	if cfg.BaseRate < 0 || cfg.BaseRate > 100 {
		cfg.BaseRate = DefaultBaseRate
	}
	if src == nil {
		src = securerand.Default()
	}
	return &Engine{
		log:     log.With("component", "trigger.Engine"),
		catalog: cat,
		records: records,
		src:     src,
		cfg:     cfg,
	}
}

func (e *Engine) probability(def game.EventDefinition) int {
	if def.Probability != nil {
		return *def.Probability
	}
	return e.cfg.BaseRate
}

// Evaluate filters, orders and rolls the catalog for snap. On a trigger the
// game's tracking record is updated atomically with the decision. Each
// (game, turn) is decided once: repeating the call for a turn already
// evaluated returns the recorded result without rolling again.
func (e *Engine) Evaluate(ctx context.Context, snap game.Snapshot) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{Stage: StageIdle}, err
	}
	if snap.GameID == "" {
		return Result{Stage: StageIdle}, apperrors.InvalidArgument("trigger.Evaluate", "game id is required")
	}
	if snap.Status.Terminal() || e.catalog.Len() == 0 {
		return Result{Stage: StageNotTriggered}, nil
	}

	var (
		res    Result
		repeat bool
	)
	err := e.records.Do(snap.GameID, func(rec *GameRecord) error {
		if prev, ok := rec.Decisions[snap.Turn]; ok {
			res, repeat = prev.clone(), true
			return nil
		}
		refreshCooldowns(rec, e.catalog, snap.Turn)
		candidates := e.filter(snap, rec)
		if len(candidates) == 0 {
			res = Result{Stage: StageNotTriggered}
			rememberDecision(rec, snap.Turn, res)
			return nil
		}
		seed, err := e.src.Seed(snap.GameID, snap.Turn, snap.Population, snap.Balance)
		if err != nil {
			return err
		}
		res = e.roll(seed, candidates)
		if res.Triggered {
			recordTrigger(rec, snap, *res.Event)
		}
		rememberDecision(rec, snap.Turn, res)
		return nil
	})
	if err != nil {
		return Result{Stage: StageIdle}, err
	}

	if repeat {
		e.log.Debug("turn already decided", "game_id", snap.GameID, "turn", snap.Turn, "triggered", res.Triggered, "seed", res.Seed)
		return res, nil
	}
	if res.Triggered {
		e.log.Info("event triggered",
			"game_id", snap.GameID,
			"turn", snap.Turn,
			"event_id", res.Event.ID,
			"seed", res.Seed,
			"roll", res.Roll,
			"candidates", len(res.Candidates),
		)
	} else {
		e.log.Debug("no event triggered", "game_id", snap.GameID, "turn", snap.Turn, "candidates", len(res.Candidates))
	}
	return res, nil
}

// Replay re-runs rolling for snap with a recorded seed. It reads the game's
// tracking record without modifying it.
func (e *Engine) Replay(snap game.Snapshot, seed string) Result {
	rec := e.copyRecord(snap.GameID)
	candidates := e.filter(snap, rec)
	if len(candidates) == 0 {
		return Result{Stage: StageNotTriggered, Seed: seed}
	}
	return e.roll(seed, candidates)
}

// Filter returns the eligible definitions for snap ordered by descending
// priority, ties by catalog order.
func (e *Engine) Filter(snap game.Snapshot) []game.EventDefinition {
	rec := e.copyRecord(snap.GameID)
	return e.filter(snap, rec)
}

func (e *Engine) copyRecord(gameID string) *GameRecord {
	rec := NewGameRecord(gameID)
	e.records.Peek(gameID, func(cur *GameRecord) {
		for id, st := range cur.States {
			cp := *st
			rec.States[id] = &cp
		}
	})
	return rec
}

func (e *Engine) filter(snap game.Snapshot, rec *GameRecord) []game.EventDefinition {
	var out []game.EventDefinition
	for _, def := range e.catalog.Events() {
		if ok, _ := Eligible(def, snap, rec.States[def.ID]); ok {
			out = append(out, def)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}

func (e *Engine) roll(seed string, candidates []game.EventDefinition) Result {
	res := Result{Seed: seed, Stage: StageNotTriggered}
	for i := range candidates {
		def := candidates[i]
		p := e.probability(def)
		fraction := securerand.SeededFloat(seed + ":" + def.ID)
		res.Candidates = append(res.Candidates, Candidate{EventID: def.ID, Priority: def.Priority, Probability: p, Roll: fraction})
		if fraction < float64(p)/100 {
			res.Triggered = true
			res.Event = &def
			res.Roll = fraction
			res.Stage = StageTriggered
			return res
		}
	}
	return res
}

func (r Result) clone() Result {
	out := r
	if r.Event != nil {
		ev := *r.Event
		out.Event = &ev
	}
	out.Candidates = append([]Candidate(nil), r.Candidates...)
	return out
}

// rememberDecision records res for turn and forgets decisions that fell out
// of the history window.
func rememberDecision(rec *GameRecord, turn int, res Result) {
	if rec.Decisions == nil {
		rec.Decisions = make(map[int]Result)
	}
	rec.Decisions[turn] = res.clone()
	for t := range rec.Decisions {
		if t <= turn-decisionHistory {
			delete(rec.Decisions, t)
		}
	}
}

func recordTrigger(rec *GameRecord, snap game.Snapshot, def game.EventDefinition) {
	st := rec.States[def.ID]
	if st == nil {
		st = &game.EventState{GameID: snap.GameID, EventID: def.ID}
		rec.States[def.ID] = st
	}
	st.TriggerCount++
	st.LastTriggeredTurn = snap.Turn
	st.CooldownRemaining = def.Eligibility.CooldownTurns
	st.Active = true
	st.SelectedChoice = nil
	if def.OneTime {
		st.Completed = true
	}
	rec.Offered[def.ID] = def.Choices
}

func refreshCooldowns(rec *GameRecord, cat *catalog.Catalog, turn int) {
	for id, st := range rec.States {
		def, ok := cat.Get(id)
		if !ok {
			continue
		}
		remaining := def.Eligibility.CooldownTurns - (turn - st.LastTriggeredTurn)
		if remaining < 0 {
			remaining = 0
		}
		st.CooldownRemaining = remaining
	}
}

// OfferChoices replaces the choices presented for an active event, e.g. with
// generated content.
func (e *Engine) OfferChoices(gameID, eventID string, choices []game.Choice) error {
	return e.records.Do(gameID, func(rec *GameRecord) error {
		st := rec.States[eventID]
		if st == nil || !st.Active {
			return apperrors.New(apperrors.CodeNotFound, "trigger.OfferChoices", apperrors.ErrNotFound, fmt.Sprintf("event %s is not active for game", eventID))
		}
		rec.Offered[eventID] = append([]game.Choice(nil), choices...)
		return nil
	})
}

// ResolveChoice records the player's choice for an active event and returns
// the chosen option.
func (e *Engine) ResolveChoice(gameID, eventID string, index int) (game.Choice, error) {
	var chosen game.Choice
	err := e.records.Do(gameID, func(rec *GameRecord) error {
		st := rec.States[eventID]
		if st == nil || !st.Active {
			return apperrors.New(apperrors.CodeNotFound, "trigger.ResolveChoice", apperrors.ErrNotFound, fmt.Sprintf("event %s is not active for game", eventID))
		}
		offered := rec.Offered[eventID]
		if index < 0 || index >= len(offered) {
			return apperrors.InvalidArgument("trigger.ResolveChoice", fmt.Sprintf("choice %d outside [0,%d)", index, len(offered)))
		}
		chosen = offered[index]
		idx := index
		st.SelectedChoice = &idx
		st.Active = false
		delete(rec.Offered, eventID)
		return nil
	})
	return chosen, err
}

// States returns a copy of the game's tracking records in event id order.
func (e *Engine) States(gameID string) []game.EventState {
	var out []game.EventState
	e.records.Peek(gameID, func(rec *GameRecord) {
		for _, st := range rec.States {
			out = append(out, *st)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
	return out
}

// Restore seeds the tracking record for a game from persisted states. Active
// events are offered their catalog choices again.
func (e *Engine) Restore(gameID string, states []game.EventState) error {
	return e.records.Do(gameID, func(rec *GameRecord) error {
		for _, st := range states {
			cp := st
			cp.GameID = gameID
			rec.States[st.EventID] = &cp
			if !cp.Active {
				continue
			}
			if def, ok := e.catalog.Get(st.EventID); ok {
				if _, offered := rec.Offered[st.EventID]; !offered {
					rec.Offered[st.EventID] = def.Choices
				}
			}
		}
		return nil
	})
}
