package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/cloudsim-backend/internal/platform/logger"
	"github.com/yungbote/cloudsim-backend/internal/repos"
)

type Repos struct {
	EventStates repos.EventStateRepo
	Incidents   repos.IncidentRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		EventStates: repos.NewEventStateRepo(db, log),
		Incidents:   repos.NewIncidentRepo(db, log),
	}
}
