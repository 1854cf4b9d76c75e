package repos

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/cloudsim-backend/internal/domain/game"
	"github.com/yungbote/cloudsim-backend/internal/pkg/dbctx"
	"github.com/yungbote/cloudsim-backend/internal/platform/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&EventStateRecord{}, &IncidentRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func TestEventStateUpsertAndList(t *testing.T) {
	gdb := openTestDB(t)
	repo := NewEventStateRepo(gdb, logger.NewNop())
	dbc := dbctx.Context{Ctx: context.Background()}

	states := []game.EventState{
		{GameID: "g", EventID: "b", TriggerCount: 1, LastTriggeredTurn: 3, Active: true},
		{GameID: "g", EventID: "a", TriggerCount: 2, LastTriggeredTurn: 5, Completed: true},
		{GameID: "other", EventID: "a", TriggerCount: 9},
	}
	if err := repo.Upsert(dbc, states); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	choice := 1
	states[0].Active = false
	states[0].SelectedChoice = &choice
	if err := repo.Upsert(dbc, states[:1]); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}

	got, err := repo.ListByGame(dbc, "g")
	if err != nil {
		t.Fatalf("ListByGame: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len: want=2 got=%d", len(got))
	}
	if got[0].EventID != "a" || got[1].EventID != "b" {
		t.Fatalf("order: got=%s,%s", got[0].EventID, got[1].EventID)
	}
	if got[1].Active || got[1].SelectedChoice == nil || *got[1].SelectedChoice != 1 {
		t.Fatalf("updated state: got=%+v", got[1])
	}

	if err := repo.DeleteByGame(dbc, "g"); err != nil {
		t.Fatalf("DeleteByGame: %v", err)
	}
	if got, _ := repo.ListByGame(dbc, "g"); len(got) != 0 {
		t.Fatalf("after delete: got=%d rows", len(got))
	}
	if got, _ := repo.ListByGame(dbc, "other"); len(got) != 1 {
		t.Fatalf("other game must be untouched")
	}
}

func TestIncidentCreateAndList(t *testing.T) {
	gdb := openTestDB(t)
	repo := NewIncidentRepo(gdb, logger.NewNop())
	dbc := dbctx.Context{Ctx: context.Background()}

	inc, err := repo.Create(dbc, Incident{
		GameID:  "g",
		Kind:    IncidentTransitionRejected,
		Turn:    4,
		Reasons: []string{"turn: regressed from 5 to 4"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if inc.ID.String() == "" {
		t.Fatalf("id should be assigned")
	}
	got, err := repo.ListByGame(dbc, "g", 10)
	if err != nil {
		t.Fatalf("ListByGame: %v", err)
	}
	if len(got) != 1 || got[0].Kind != IncidentTransitionRejected || len(got[0].Reasons) != 1 {
		t.Fatalf("incidents: got=%+v", got)
	}
}

func TestIncidentListGameIDsByKind(t *testing.T) {
	gdb := openTestDB(t)
	repo := NewIncidentRepo(gdb, logger.NewNop())
	dbc := dbctx.Context{Ctx: context.Background()}

	for _, inc := range []Incident{
		{GameID: "b", Kind: IncidentSessionBlocked},
		{GameID: "b", Kind: IncidentSessionBlocked},
		{GameID: "a", Kind: IncidentSessionBlocked},
		{GameID: "c", Kind: IncidentRateLimited},
	} {
		if _, err := repo.Create(dbc, inc); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	ids, err := repo.ListGameIDsByKind(dbc, IncidentSessionBlocked)
	if err != nil {
		t.Fatalf("ListGameIDsByKind: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("blocked games: want=[a b] got=%v", ids)
	}
}
