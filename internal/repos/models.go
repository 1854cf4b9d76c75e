package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/cloudsim-backend/internal/domain/game"
)

// EventStateRecord persists one game.EventState.
type EventStateRecord struct {
	GameID            string `gorm:"primaryKey;size:128"`
	EventID           string `gorm:"primaryKey;size:128"`
	TriggerCount      int
	LastTriggeredTurn int
	CooldownRemaining int
	Active            bool
	Completed         bool
	SelectedChoice    *int
	UpdatedAt         time.Time
}

func (EventStateRecord) TableName() string { return "event_state" }

func eventStateRecord(s game.EventState) EventStateRecord {
	return EventStateRecord{
		GameID:            s.GameID,
		EventID:           s.EventID,
		TriggerCount:      s.TriggerCount,
		LastTriggeredTurn: s.LastTriggeredTurn,
		CooldownRemaining: s.CooldownRemaining,
		Active:            s.Active,
		Completed:         s.Completed,
		SelectedChoice:    s.SelectedChoice,
	}
}

func (r EventStateRecord) toDomain() game.EventState {
	return game.EventState{
		GameID:            r.GameID,
		EventID:           r.EventID,
		TriggerCount:      r.TriggerCount,
		LastTriggeredTurn: r.LastTriggeredTurn,
		CooldownRemaining: r.CooldownRemaining,
		Active:            r.Active,
		Completed:         r.Completed,
		SelectedChoice:    r.SelectedChoice,
	}
}

type IncidentKind string

const (
	IncidentRateLimited        IncidentKind = "rate_limited"
	IncidentSessionBlocked     IncidentKind = "session_blocked"
	IncidentSnapshotRejected   IncidentKind = "snapshot_rejected"
	IncidentTransitionRejected IncidentKind = "transition_rejected"
	IncidentHashMismatch       IncidentKind = "hash_mismatch"
)

// IncidentRecord is an integrity denial kept for review.
type IncidentRecord struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	GameID    string         `gorm:"index;size:128"`
	Kind      IncidentKind   `gorm:"size:64"`
	Turn      int            `gorm:"not null;default:0"`
	Score     int            `gorm:"not null;default:0"`
	Reasons   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"index"`
}

func (IncidentRecord) TableName() string { return "incident" }
