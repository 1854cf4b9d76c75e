package repos

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/cloudsim-backend/internal/pkg/dbctx"
	"github.com/yungbote/cloudsim-backend/internal/platform/logger"
)

type Incident struct {
	ID      uuid.UUID    `json:"id"`
	GameID  string       `json:"gameId"`
	Kind    IncidentKind `json:"kind"`
	Turn    int          `json:"turn"`
	Score   int          `json:"score"`
	Reasons []string     `json:"reasons"`
}

type IncidentRepo interface {
	Create(dbc dbctx.Context, inc Incident) (Incident, error)
	ListByGame(dbc dbctx.Context, gameID string, limit int) ([]Incident, error)
	ListGameIDsByKind(dbc dbctx.Context, kind IncidentKind) ([]string, error)
}

type incidentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIncidentRepo(db *gorm.DB, baseLog *logger.Logger) IncidentRepo {
	return &incidentRepo{db: db, log: baseLog.With("repo", "IncidentRepo")}
}

func (r *incidentRepo) Create(dbc dbctx.Context, inc Incident) (Incident, error) {
	if inc.ID == uuid.Nil {
		inc.ID = uuid.New()
	}
	if inc.Reasons == nil {
		inc.Reasons = []string{}
	}
	reasons, err := json.Marshal(inc.Reasons)
	if err != nil {
		return Incident{}, err
	}
	row := IncidentRecord{
		ID:      inc.ID,
		GameID:  inc.GameID,
		Kind:    inc.Kind,
		Turn:    inc.Turn,
		Score:   inc.Score,
		Reasons: datatypes.JSON(reasons),
	}
	if err := r.conn(dbc).WithContext(dbc.Ctx).Create(&row).Error; err != nil {
		return Incident{}, err
	}
	return inc, nil
}

func (r *incidentRepo) ListByGame(dbc dbctx.Context, gameID string, limit int) ([]Incident, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []IncidentRecord
	if err := r.conn(dbc).WithContext(dbc.Ctx).
		Where("game_id = ?", gameID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Incident, 0, len(rows))
	for _, row := range rows {
		var reasons []string
		if len(row.Reasons) > 0 {
			if err := json.Unmarshal(row.Reasons, &reasons); err != nil {
				r.log.Warn("incident reasons unreadable", "id", row.ID.String(), "error", err)
			}
		}
		out = append(out, Incident{
			ID:      row.ID,
			GameID:  row.GameID,
			Kind:    row.Kind,
			Turn:    row.Turn,
			Score:   row.Score,
			Reasons: reasons,
		})
	}
	return out, nil
}

// ListGameIDsByKind returns the distinct games with at least one incident of
// kind, in game id order.
func (r *incidentRepo) ListGameIDsByKind(dbc dbctx.Context, kind IncidentKind) ([]string, error) {
	var ids []string
	if err := r.conn(dbc).WithContext(dbc.Ctx).
		Model(&IncidentRecord{}).
		Where("kind = ?", kind).
		Distinct("game_id").
		Order("game_id").
		Pluck("game_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *incidentRepo) conn(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}
