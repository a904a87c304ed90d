//go:build testutil

package db_test

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"testing"

	"github.com/Spok95/family-score/internal/db"
	"github.com/Spok95/family-score/internal/models"
	"github.com/Spok95/family-score/internal/testutil/testdb"
)

func startDB(t *testing.T) *sql.DB {
	t.Helper()
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(h.Close)
	return h.DB
}

func mustSeedUser(t testing.TB, dbx *sql.DB) int64 {
	t.Helper()
	u, err := db.CreateUser(context.Background(), dbx, fmt.Sprintf("parent%d@example.com", rand.Int63()), "hash", false)
	if err != nil {
		t.Fatal(err)
	}
	return u.ID
}

func mustSeedStudent(t testing.TB, dbx *sql.DB, userID int64, name string) int64 {
	t.Helper()
	s, err := db.CreateStudent(context.Background(), dbx, userID, models.StudentInput{Name: name})
	if err != nil {
		t.Fatal(err)
	}
	return s.ID
}

func mustSeedProject(t testing.TB, dbx *sql.DB, userID int64, name string, parentID *int64) int64 {
	t.Helper()
	in := models.ProjectInput{Level: models.Level1, Name: name}
	if parentID != nil {
		in.Level = models.Level2
		in.ParentID = parentID
	}
	p, err := db.CreateProject(context.Background(), dbx, userID, in)
	if err != nil {
		t.Fatal(err)
	}
	return p.ID
}

func mustSeedRewardOption(t testing.TB, dbx *sql.DB, userID int64, cost int) int64 {
	t.Helper()
	o, err := db.CreateRewardOption(context.Background(), dbx, userID, models.RewardOptionInput{Name: "Мультики", CostPoints: cost})
	if err != nil {
		t.Fatal(err)
	}
	return o.ID
}

// mustAward создаёт выполненную задачу с наградой points.
func mustAward(t testing.TB, dbx *sql.DB, studentID, projectID int64, points int) models.Task {
	t.Helper()
	task, _, err := db.CreateTask(context.Background(), dbx, models.Task{
		StudentID:       studentID,
		ProjectLevel1ID: projectID,
		Status:          models.TaskCompleted,
		Rating:          ptrRating(models.RatingA),
		RewardType:      models.RewardPoints,
		RewardPoints:    ptrInt(points),
	})
	if err != nil {
		t.Fatal(err)
	}
	return *task
}

func ptrInt(v int) *int                        { return &v }
func ptrInt64(v int64) *int64                  { return &v }
func ptrString(v string) *string               { return &v }
func ptrRating(v models.Rating) *models.Rating { return &v }
func ptrStatus(v models.TaskStatus) *models.TaskStatus {
	return &v
}
