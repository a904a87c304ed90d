package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Spok95/family-score/internal/ctxutil"
	"github.com/Spok95/family-score/internal/models"
)

const projectColumns = `id, user_id, level, name, description, parent_id, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (*models.Project, error) {
	var p models.Project
	if err := row.Scan(&p.ID, &p.UserID, &p.Level, &p.Name, &p.Description, &p.ParentID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjects: проекты пользователя, опционально по уровню и родителю.
func ListProjects(ctx context.Context, database *sql.DB, userID int64, level *models.ProjectLevel, parentID *int64) ([]models.Project, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	q := `SELECT ` + projectColumns + ` FROM projects WHERE user_id = $1`
	args := []any{userID}
	if level != nil {
		args = append(args, int(*level))
		q += fmt.Sprintf(" AND level = $%d", len(args))
	}
	if parentID != nil {
		args = append(args, *parentID)
		q += fmt.Sprintf(" AND parent_id = $%d", len(args))
	}
	q += ` ORDER BY id`

	rows, err := database.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func GetProject(ctx context.Context, database *sql.DB, id, userID int64) (*models.Project, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return getProject(ctx, database, id, userID)
}

func getProject(ctx context.Context, q DBTX, id, userID int64) (*models.Project, error) {
	p, err := scanProject(q.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(EntityProject)
	}
	return p, err
}

// CreateProject не проверяет родителя: это делает сервис до вызова.
func CreateProject(ctx context.Context, database *sql.DB, userID int64, in models.ProjectInput) (*models.Project, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var parent *int64
	if in.Level == models.Level2 {
		parent = in.ParentID
	}
	return scanProject(database.QueryRowContext(ctx, `
		INSERT INTO projects (user_id, level, name, description, parent_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+projectColumns,
		userID, int(in.Level), in.Name, in.Description, parent))
}

func UpdateProject(ctx context.Context, database *sql.DB, id, userID int64, patch models.ProjectPatch) (*models.Project, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	p, err := scanProject(database.QueryRowContext(ctx, `
		UPDATE projects
		SET name = COALESCE($3, name), description = COALESCE($4, description), updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+projectColumns,
		id, userID, patch.Name, patch.Description))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(EntityProject)
	}
	return p, err
}

// DeleteProject удаляет проект, если на него никто не ссылается.
// Учитываются и помеченные удалёнными строки: внешние ключи у них остаются.
func DeleteProject(ctx context.Context, database *sql.DB, id, userID int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	return inTx(ctx, database, func(tx *sql.Tx) error {
		if _, err := scanProject(tx.QueryRowContext(ctx,
			`SELECT `+projectColumns+` FROM projects WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID)); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return notFound(EntityProject)
			}
			return err
		}

		var records int
		err := tx.QueryRowContext(ctx, `
			SELECT
				(SELECT COUNT(*) FROM tasks WHERE project_level1_id = $1 OR project_level2_id = $1) +
				(SELECT COUNT(*) FROM score_increases WHERE project_level1_id = $1 OR project_level2_id = $1)`,
			id).Scan(&records)
		if err != nil {
			return err
		}
		if records > 0 {
			return &InUseError{Entity: EntityProject, Reason: RefRecords, Count: records}
		}

		var children int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE parent_id = $1`, id).Scan(&children); err != nil {
			return err
		}
		if children > 0 {
			return &InUseError{Entity: EntityProject, Reason: RefChildren, Count: children}
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
		return err
	})
}
