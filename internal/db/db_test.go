package db

import (
	"testing"

	"github.com/yungbote/cloudsim-backend/internal/platform/logger"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	svc, err := Open(logger.NewNop(), Config{Driver: "sqlite", DSN: "file:dbtest?mode=memory&cache=shared"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer svc.Close()
	if err := svc.AutoMigrateAll(); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}
	if !svc.DB().Migrator().HasTable("event_state") || !svc.DB().Migrator().HasTable("incident") {
		t.Fatalf("tables missing after migration")
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(logger.NewNop(), Config{Driver: "oracle"}); err == nil {
		t.Fatalf("want error for unknown driver")
	}
}
