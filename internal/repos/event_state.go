package repos

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/cloudsim-backend/internal/domain/game"
	"github.com/yungbote/cloudsim-backend/internal/pkg/dbctx"
	"github.com/yungbote/cloudsim-backend/internal/platform/logger"
)

type EventStateRepo interface {
	Upsert(dbc dbctx.Context, states []game.EventState) error
	ListByGame(dbc dbctx.Context, gameID string) ([]game.EventState, error)
	DeleteByGame(dbc dbctx.Context, gameID string) error
}

type eventStateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEventStateRepo(db *gorm.DB, baseLog *logger.Logger) EventStateRepo {
	return &eventStateRepo{db: db, log: baseLog.With("repo", "EventStateRepo")}
}

func (r *eventStateRepo) Upsert(dbc dbctx.Context, states []game.EventState) error {
	if len(states) == 0 {
		return nil
	}
	rows := make([]EventStateRecord, len(states))
	for i, s := range states {
		rows[i] = eventStateRecord(s)
	}
	return r.conn(dbc).WithContext(dbc.Ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "game_id"}, {Name: "event_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"trigger_count",
			"last_triggered_turn",
			"cooldown_remaining",
			"active",
			"completed",
			"selected_choice",
			"updated_at",
		}),
	}).Create(&rows).Error
}

func (r *eventStateRepo) ListByGame(dbc dbctx.Context, gameID string) ([]game.EventState, error) {
	var rows []EventStateRecord
	if err := r.conn(dbc).WithContext(dbc.Ctx).
		Where("game_id = ?", gameID).
		Order("event_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]game.EventState, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

func (r *eventStateRepo) DeleteByGame(dbc dbctx.Context, gameID string) error {
	return r.conn(dbc).WithContext(dbc.Ctx).Where("game_id = ?", gameID).Delete(&EventStateRecord{}).Error
}

func (r *eventStateRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}
