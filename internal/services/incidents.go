package services

import (
	"context"

	"github.com/yungbote/cloudsim-backend/internal/modules/integrity"
	"github.com/yungbote/cloudsim-backend/internal/pkg/dbctx"
	apperrors "github.com/yungbote/cloudsim-backend/internal/pkg/errors"
	"github.com/yungbote/cloudsim-backend/internal/platform/logger"
	"github.com/yungbote/cloudsim-backend/internal/repos"
)

// incidentRecorder persists integrity denials. Storage failures are logged
// and never change the verdict returned to the caller.
type incidentRecorder struct {
	repo repos.IncidentRepo
	log  *logger.Logger
}

func (r incidentRecorder) record(ctx context.Context, inc repos.Incident) {
	r.log.Warn("integrity incident",
		"game_id", inc.GameID,
		"kind", string(inc.Kind),
		"turn", inc.Turn,
		"reasons", inc.Reasons,
	)
	if r.repo == nil {
		return
	}
	if _, err := r.repo.Create(dbctx.Context{Ctx: context.WithoutCancel(ctx)}, inc); err != nil {
		r.log.Error("persist incident failed", "game_id", inc.GameID, "kind", string(inc.Kind), "error", err)
	}
}

// denial records a rejected request from the guard's rate check.
func (r incidentRecorder) denial(ctx context.Context, gameID string, turn int, rep integrity.Report, err error) {
	kind := repos.IncidentRateLimited
	if apperrors.CodeOf(err) == apperrors.CodeSessionBlocked {
		kind = repos.IncidentSessionBlocked
	}
	reasons := apperrors.ReasonsOf(err)
	if len(reasons) == 0 {
		reasons = []string{err.Error()}
	}
	r.record(ctx, repos.Incident{GameID: gameID, Kind: kind, Turn: turn, Score: rep.Score, Reasons: reasons})
}
