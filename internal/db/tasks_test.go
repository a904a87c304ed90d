//go:build testutil

package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Spok95/family-score/internal/db"
	"github.com/Spok95/family-score/internal/models"
)

func TestCreateTask_CompletedRewardAddsIncrease(t *testing.T) {
	ctx := context.Background()
	dbx := startDB(t)
	uid := mustSeedUser(t, dbx)
	sid := mustSeedStudent(t, dbx, uid, "Оля")
	pid := mustSeedProject(t, dbx, uid, "Музыка", nil)

	_, eff, err := db.CreateTask(ctx, dbx, models.Task{
		StudentID:       sid,
		ProjectLevel1ID: pid,
		Status:          models.TaskCompleted,
		Rating:          ptrRating(models.RatingAStar),
		RewardType:      models.RewardPoints,
		RewardPoints:    ptrInt(10),
	})
	if err != nil {
		t.Fatal(err)
	}
	if eff.ScoreIncreaseID == nil {
		t.Fatal("начисление не создано")
	}

	incs, err := db.ListIncreases(ctx, dbx, sid, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(incs) != 1 || incs[0].Points != 10 {
		t.Fatalf("ожидали одно начисление на 10, получили %+v", incs)
	}
	if incs[0].ProjectLevel1Name == nil || *incs[0].ProjectLevel1Name != "Музыка" {
		t.Fatalf("нет названия проекта: %+v", incs[0])
	}
}

func TestUpdateTask_CompletionOnlyOnTransition(t *testing.T) {
	ctx := context.Background()
	dbx := startDB(t)
	uid := mustSeedUser(t, dbx)
	sid := mustSeedStudent(t, dbx, uid, "Оля")
	pid := mustSeedProject(t, dbx, uid, "Музыка", nil)

	task, eff, err := db.CreateTask(ctx, dbx, models.Task{
		StudentID:       sid,
		ProjectLevel1ID: pid,
		Status:          models.TaskNotStarted,
		RewardType:      models.RewardPoints,
		RewardPoints:    ptrInt(7),
	})
	if err != nil {
		t.Fatal(err)
	}
	if eff.ScoreIncreaseID != nil {
		t.Fatal("начисление до завершения")
	}

	_, eff, err = db.UpdateTask(ctx, dbx, task.ID, sid, models.TaskPatch{
		Status: ptrStatus(models.TaskCompleted),
		Rating: ptrRating(models.RatingB),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if eff.ScoreIncreaseID == nil {
		t.Fatal("начисление при завершении не создано")
	}

	// повторное сохранение завершённой задачи запрещено и ничего не начисляет
	_, _, err = db.UpdateTask(ctx, dbx, task.ID, sid, models.TaskPatch{Rating: ptrRating(models.RatingA)}, nil)
	if !errors.Is(err, db.ErrTaskLocked) {
		t.Fatalf("ожидали ErrTaskLocked, получили %v", err)
	}
	s, _ := db.ScoreSummary(ctx, dbx, sid)
	if s.AvailablePoints != 7 {
		t.Fatalf("ожидали 7 баллов, получили %d", s.AvailablePoints)
	}
}

func TestUpdateTask_CheckRollsBack(t *testing.T) {
	ctx := context.Background()
	dbx := startDB(t)
	uid := mustSeedUser(t, dbx)
	sid := mustSeedStudent(t, dbx, uid, "Оля")
	pid := mustSeedProject(t, dbx, uid, "Музыка", nil)

	task, _, err := db.CreateTask(ctx, dbx, models.Task{
		StudentID: sid, ProjectLevel1ID: pid, Status: models.TaskInProgress, RewardType: models.RewardNone,
	})
	if err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	_, _, err = db.UpdateTask(ctx, dbx, task.ID, sid, models.TaskPatch{Status: ptrStatus(models.TaskCanceled)},
		func(models.Task) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("ожидали ошибку проверки, получили %v", err)
	}
	got, err := db.GetTask(ctx, dbx, task.ID, sid)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.TaskInProgress {
		t.Fatalf("статус изменился: %s", got.Status)
	}
}

func TestCompletePunishTask_CreatesFollowUp(t *testing.T) {
	ctx := context.Background()
	dbx := startDB(t)
	uid := mustSeedUser(t, dbx)
	sid := mustSeedStudent(t, dbx, uid, "Петя")
	pid := mustSeedProject(t, dbx, uid, "Дом", nil)
	sub := mustSeedProject(t, dbx, uid, "Уборка", &pid)

	opt, err := db.CreatePunishmentOption(ctx, dbx, uid, models.PunishmentOptionInput{
		Name:                   "Убрать комнату",
		GenerateRelatedTask:    true,
		RelatedProjectLevel1ID: &pid,
		RelatedProjectLevel2ID: &sub,
	})
	if err != nil {
		t.Fatal(err)
	}

	_, eff, err := db.CreateTask(ctx, dbx, models.Task{
		StudentID:          sid,
		ProjectLevel1ID:    pid,
		Status:             models.TaskCompleted,
		Rating:             ptrRating(models.RatingC),
		RewardType:         models.RewardPunish,
		PunishmentOptionID: &opt.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if eff.FollowUpTaskID == nil {
		t.Fatal("задача-отработка не создана")
	}

	follow, err := db.GetTask(ctx, dbx, *eff.FollowUpTaskID, sid)
	if err != nil {
		t.Fatal(err)
	}
	if follow.Status != models.TaskNotStarted || follow.RewardType != models.RewardNone {
		t.Fatalf("неверная отработка: %+v", follow)
	}
	if follow.ProjectLevel2ID == nil || *follow.ProjectLevel2ID != sub {
		t.Fatalf("ожидали подпроект %d, получили %v", sub, follow.ProjectLevel2ID)
	}
}

func TestCompletePunishTask_SkipsFollowUp(t *testing.T) {
	ctx := context.Background()
	dbx := startDB(t)
	uid := mustSeedUser(t, dbx)
	sid := mustSeedStudent(t, dbx, uid, "Петя")
	pid := mustSeedProject(t, dbx, uid, "Дом", nil)

	cases := []struct {
		name  string
		input models.PunishmentOptionInput
		// after выполняется между созданием опции и завершением задачи
		after func(t *testing.T, optID int64)
	}{
		{
			name:  "отработка выключена",
			input: models.PunishmentOptionInput{Name: "Без мультиков", RelatedProjectLevel1ID: &pid},
		},
		{
			name:  "нет проекта",
			input: models.PunishmentOptionInput{Name: "Без сладкого", GenerateRelatedTask: true},
		},
		{
			name:  "проект удалён",
			input: models.PunishmentOptionInput{Name: "Без прогулки", GenerateRelatedTask: true},
			after: func(t *testing.T, optID int64) {
				gone := mustSeedProject(t, dbx, uid, "Сад", nil)
				if _, err := dbx.ExecContext(ctx,
					`UPDATE punishment_options SET related_project_level1_id = $1 WHERE id = $2`, gone, optID); err != nil {
					t.Fatal(err)
				}
				if err := db.DeleteProject(ctx, dbx, gone, uid); err != nil {
					t.Fatal(err)
				}
				o, err := db.GetPunishmentOption(ctx, dbx, optID, uid)
				if err != nil {
					t.Fatal(err)
				}
				if o.RelatedProjectLevel1ID != nil {
					t.Fatalf("ожидали NULL после удаления проекта, получили %d", *o.RelatedProjectLevel1ID)
				}
			},
		},
		{
			name:  "опция удалена",
			input: models.PunishmentOptionInput{Name: "Без телефона", GenerateRelatedTask: true, RelatedProjectLevel1ID: &pid},
			after: func(t *testing.T, optID int64) {
				if _, err := dbx.ExecContext(ctx, `DELETE FROM punishment_options WHERE id = $1`, optID); err != nil {
					t.Fatal(err)
				}
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opt, err := db.CreatePunishmentOption(ctx, dbx, uid, tc.input)
			if err != nil {
				t.Fatal(err)
			}
			task, _, err := db.CreateTask(ctx, dbx, models.Task{
				StudentID:          sid,
				ProjectLevel1ID:    pid,
				Status:             models.TaskInProgress,
				RewardType:         models.RewardPunish,
				PunishmentOptionID: &opt.ID,
			})
			if err != nil {
				t.Fatal(err)
			}
			if tc.after != nil {
				tc.after(t, opt.ID)
			}

			before, err := db.ListTasks(ctx, dbx, sid, models.TaskFilter{IncludeAllStatus: true})
			if err != nil {
				t.Fatal(err)
			}
			_, eff, err := db.UpdateTask(ctx, dbx, task.ID, sid, models.TaskPatch{
				Status: ptrStatus(models.TaskCompleted),
				Rating: ptrRating(models.RatingC),
			}, nil)
			if err != nil {
				t.Fatal(err)
			}
			if eff.FollowUpTaskID != nil {
				t.Fatalf("отработка не ожидалась, создана задача %d", *eff.FollowUpTaskID)
			}
			after, err := db.ListTasks(ctx, dbx, sid, models.TaskFilter{IncludeAllStatus: true})
			if err != nil {
				t.Fatal(err)
			}
			if len(after) != len(before) {
				t.Fatalf("число задач изменилось: %d → %d", len(before), len(after))
			}
		})
	}
}

func TestListTasks_Filters(t *testing.T) {
	ctx := context.Background()
	dbx := startDB(t)
	uid := mustSeedUser(t, dbx)
	sid := mustSeedStudent(t, dbx, uid, "Петя")
	pid := mustSeedProject(t, dbx, uid, "Дом", nil)

	for _, st := range []models.TaskStatus{models.TaskNotStarted, models.TaskInProgress, models.TaskCanceled} {
		if _, _, err := db.CreateTask(ctx, dbx, models.Task{
			StudentID: sid, ProjectLevel1ID: pid, Status: st, RewardType: models.RewardNone,
		}); err != nil {
			t.Fatal(err)
		}
	}
	mustAward(t, dbx, sid, pid, 1)

	cases := []struct {
		name string
		f    models.TaskFilter
		want int
	}{
		{"по умолчанию", models.TaskFilter{}, 2},
		{"все статусы", models.TaskFilter{IncludeAllStatus: true}, 4},
		{"список статусов", models.TaskFilter{Statuses: []models.TaskStatus{models.TaskCanceled, models.TaskCompleted}}, 2},
		{"статус важнее include_all_status", models.TaskFilter{IncludeAllStatus: true, Statuses: []models.TaskStatus{models.TaskCanceled}}, 1},
		{"выполненные после", models.TaskFilter{CompletedAfter: ptrTime(time.Now().Add(-time.Hour))}, 1},
		{"выполненные в будущем", models.TaskFilter{CompletedAfter: ptrTime(time.Now().Add(time.Hour))}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := db.ListTasks(ctx, dbx, sid, tc.f)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tc.want {
				t.Fatalf("ожидали %d задач, получили %d", tc.want, len(got))
			}
			for _, task := range got {
				if task.ProjectLevel1Name == nil || *task.ProjectLevel1Name != "Дом" {
					t.Fatalf("нет названия проекта у задачи %d", task.ID)
				}
			}
		})
	}
}

func ptrTime(v time.Time) *time.Time { return &v }
