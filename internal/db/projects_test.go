//go:build testutil

package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Spok95/family-score/internal/db"
	"github.com/Spok95/family-score/internal/models"
)

func TestDeleteProject_Referenced(t *testing.T) {
	ctx := context.Background()
	dbx := startDB(t)
	uid := mustSeedUser(t, dbx)
	sid := mustSeedStudent(t, dbx, uid, "Ваня")
	pid := mustSeedProject(t, dbx, uid, "Спорт", nil)
	mustAward(t, dbx, sid, pid, 3)

	err := db.DeleteProject(ctx, dbx, pid, uid)
	var inUse *db.InUseError
	if !errors.As(err, &inUse) {
		t.Fatalf("ожидали InUseError, получили %v", err)
	}
	// задача + начисление
	if inUse.Reason != db.RefRecords || inUse.Count != 2 {
		t.Fatalf("неверный отказ: %+v", inUse)
	}

	// удаление ученика не снимает ссылки
	if err := db.DeleteStudent(ctx, dbx, sid, uid); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteProject(ctx, dbx, pid, uid); !errors.As(err, &inUse) {
		t.Fatalf("ожидали отказ после удаления ученика, получили %v", err)
	}
	if _, err := db.GetProject(ctx, dbx, pid, uid); err != nil {
		t.Fatalf("проект пропал: %v", err)
	}
}

func TestDeleteProject_Children(t *testing.T) {
	ctx := context.Background()
	dbx := startDB(t)
	uid := mustSeedUser(t, dbx)
	pid := mustSeedProject(t, dbx, uid, "Дом", nil)
	child := mustSeedProject(t, dbx, uid, "Уборка", &pid)

	err := db.DeleteProject(ctx, dbx, pid, uid)
	var inUse *db.InUseError
	if !errors.As(err, &inUse) || inUse.Reason != db.RefChildren || inUse.Count != 1 {
		t.Fatalf("ожидали отказ из-за подпроекта, получили %v", err)
	}

	if err := db.DeleteProject(ctx, dbx, child, uid); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteProject(ctx, dbx, pid, uid); err != nil {
		t.Fatal(err)
	}
	lvl := models.Level1
	left, err := db.ListProjects(ctx, dbx, uid, &lvl, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 0 {
		t.Fatalf("проекты остались: %d", len(left))
	}
}

func TestProjects_OwnerScoped(t *testing.T) {
	ctx := context.Background()
	dbx := startDB(t)
	owner := mustSeedUser(t, dbx)
	other := mustSeedUser(t, dbx)
	pid := mustSeedProject(t, dbx, owner, "Дом", nil)

	if _, err := db.GetProject(ctx, dbx, pid, other); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("чужой проект виден: %v", err)
	}
	if _, err := db.UpdateProject(ctx, dbx, pid, other, models.ProjectPatch{Name: ptrString("x")}); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("чужой проект изменён: %v", err)
	}
	if err := db.DeleteProject(ctx, dbx, pid, other); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("чужой проект удалён: %v", err)
	}
}
