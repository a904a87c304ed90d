package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/Spok95/family-score/internal/ctxutil"
	"github.com/Spok95/family-score/internal/models"
)

const taskColumns = `t.id, t.student_id, t.project_level1_id, t.project_level2_id, t.status, t.rating,
	t.reward_type, t.reward_points, t.punishment_option_id, t.is_deleted, t.deleted_at, t.created_at, t.updated_at`

func scanTask(row interface{ Scan(...any) error }, withNames bool) (*models.Task, error) {
	var t models.Task
	dest := []any{&t.ID, &t.StudentID, &t.ProjectLevel1ID, &t.ProjectLevel2ID, &t.Status, &t.Rating,
		&t.RewardType, &t.RewardPoints, &t.PunishmentOptionID, &t.IsDeleted, &t.DeletedAt, &t.CreatedAt, &t.UpdatedAt}
	if withNames {
		dest = append(dest, &t.ProjectLevel1Name, &t.ProjectLevel2Name)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &t, nil
}

// CompletionEffects: что породило завершение задачи.
type CompletionEffects struct {
	ScoreIncreaseID *int64
	FollowUpTaskID  *int64
}

// ListTasks: живые задачи ученика, свежие сверху, с названиями проектов.
// Без фильтров по статусу отдаются только not_started и in_progress;
// CompletedAfter перекрывает фильтр по статусу.
func ListTasks(ctx context.Context, database *sql.DB, studentID int64, f models.TaskFilter) ([]models.Task, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var sb strings.Builder
	sb.WriteString(`SELECT ` + taskColumns + `, p1.name, p2.name
		FROM tasks t
		LEFT JOIN projects p1 ON p1.id = t.project_level1_id
		LEFT JOIN projects p2 ON p2.id = t.project_level2_id
		WHERE t.student_id = $1 AND ` + alive("t"))
	args := []any{studentID}
	add := func(cond string, v any) {
		args = append(args, v)
		fmt.Fprintf(&sb, " AND "+cond, len(args))
	}

	if f.ProjectLevel1ID != nil {
		add("t.project_level1_id = $%d", *f.ProjectLevel1ID)
	}
	if f.ProjectLevel2ID != nil {
		add("t.project_level2_id = $%d", *f.ProjectLevel2ID)
	}
	switch {
	case f.CompletedAfter != nil:
		add("t.status = 'completed' AND t.updated_at >= $%d", *f.CompletedAfter)
	case len(f.Statuses) > 0:
		ss := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			ss[i] = string(s)
		}
		add("t.status = ANY($%d)", pq.Array(ss))
	case f.IncludeAllStatus:
	default:
		add("t.status = ANY($%d)", pq.Array([]string{string(models.TaskNotStarted), string(models.TaskInProgress)}))
	}
	sb.WriteString(` ORDER BY t.created_at DESC, t.id DESC`)

	rows, err := database.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Task
	for rows.Next() {
		t, err := scanTask(rows, true)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func GetTask(ctx context.Context, database *sql.DB, id, studentID int64) (*models.Task, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return getTask(ctx, database, id, studentID, false)
}

func getTask(ctx context.Context, q DBTX, id, studentID int64, forUpdate bool) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.id = $1 AND t.student_id = $2 AND ` + alive("t")
	if forUpdate {
		query += ` FOR UPDATE`
	}
	t, err := scanTask(q.QueryRowContext(ctx, query, id, studentID), false)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(EntityTask)
	}
	return t, err
}

func insertTask(ctx context.Context, q DBTX, t models.Task) (*models.Task, error) {
	return scanTask(q.QueryRowContext(ctx, `
		INSERT INTO tasks AS t (student_id, project_level1_id, project_level2_id, status, rating,
			reward_type, reward_points, punishment_option_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+taskColumns,
		t.StudentID, t.ProjectLevel1ID, t.ProjectLevel2ID, t.Status, t.Rating,
		t.RewardType, t.RewardPoints, t.PunishmentOptionID), false)
}

// CreateTask сохраняет задачу; если она сразу выполнена, в той же транзакции
// применяются последствия завершения.
func CreateTask(ctx context.Context, database *sql.DB, in models.Task) (*models.Task, CompletionEffects, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var (
		task *models.Task
		eff  CompletionEffects
	)
	err := inTx(ctx, database, func(tx *sql.Tx) error {
		var err error
		if task, err = insertTask(ctx, tx, in); err != nil {
			return err
		}
		if task.Status == models.TaskCompleted {
			eff, err = applyCompletion(ctx, tx, *task)
		}
		return err
	})
	if err != nil {
		return nil, CompletionEffects{}, err
	}
	return task, eff, nil
}

// UpdateTask блокирует задачу, накладывает patch и вызывает check для итоговых значений.
// Задачу в конечном статусе менять нельзя: ErrTaskLocked.
func UpdateTask(ctx context.Context, database *sql.DB, id, studentID int64, patch models.TaskPatch,
	check func(models.Task) error) (*models.Task, CompletionEffects, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var (
		task *models.Task
		eff  CompletionEffects
	)
	err := inTx(ctx, database, func(tx *sql.Tx) error {
		old, err := getTask(ctx, tx, id, studentID, true)
		if err != nil {
			return err
		}
		if !old.Status.Mutable() {
			return ErrTaskLocked
		}
		next := patch.Apply(*old)
		if check != nil {
			if err := check(next); err != nil {
				return err
			}
		}
		task, err = scanTask(tx.QueryRowContext(ctx, `
			UPDATE tasks AS t
			SET project_level1_id = $2, project_level2_id = $3, status = $4, rating = $5,
				reward_type = $6, reward_points = $7, punishment_option_id = $8, updated_at = now()
			WHERE t.id = $1
			RETURNING `+taskColumns,
			id, next.ProjectLevel1ID, next.ProjectLevel2ID, next.Status, next.Rating,
			next.RewardType, next.RewardPoints, next.PunishmentOptionID), false)
		if err != nil {
			return err
		}
		if old.Status != models.TaskCompleted && task.Status == models.TaskCompleted {
			eff, err = applyCompletion(ctx, tx, *task)
		}
		return err
	})
	if err != nil {
		return nil, CompletionEffects{}, err
	}
	return task, eff, nil
}
