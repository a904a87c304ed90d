package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Spok95/family-score/internal/ctxutil"
	"github.com/Spok95/family-score/internal/models"
)

const studentColumns = `id, user_id, name, gender, birthday, stage, school, enroll_date, is_deleted, deleted_at, created_at, updated_at`

func scanStudent(row interface{ Scan(...any) error }) (*models.Student, error) {
	var s models.Student
	err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.Gender, &s.Birthday, &s.Stage, &s.School, &s.EnrollDate,
		&s.IsDeleted, &s.DeletedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListStudents: живые ученики пользователя в порядке добавления.
func ListStudents(ctx context.Context, database *sql.DB, userID int64) ([]models.Student, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
		SELECT `+studentColumns+` FROM students
		WHERE user_id = $1 AND `+alive("")+`
		ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func GetStudent(ctx context.Context, database *sql.DB, id, userID int64) (*models.Student, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return getStudent(ctx, database, id, userID, false)
}

func getStudent(ctx context.Context, q DBTX, id, userID int64, forUpdate bool) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1 AND user_id = $2 AND ` + alive("")
	if forUpdate {
		query += ` FOR UPDATE`
	}
	s, err := scanStudent(q.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(EntityStudent)
	}
	return s, err
}

// StudentDuplicateExists ищет живого ученика с тем же именем; день рождения и пол
// сравниваются, только если заданы.
func StudentDuplicateExists(ctx context.Context, database *sql.DB, userID int64, in models.StudentInput, excludeID *int64) (bool, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	q := `SELECT EXISTS (SELECT 1 FROM students WHERE user_id = $1 AND name = $2 AND ` + alive("")
	args := []any{userID, in.Name}
	idx := 3
	if in.Birthday != nil {
		q += fmt.Sprintf(" AND birthday = $%d", idx)
		args = append(args, *in.Birthday)
		idx++
	}
	if in.Gender != nil {
		q += fmt.Sprintf(" AND gender = $%d", idx)
		args = append(args, string(*in.Gender))
		idx++
	}
	if excludeID != nil {
		q += fmt.Sprintf(" AND id <> $%d", idx)
		args = append(args, *excludeID)
	}
	q += `)`

	var exists bool
	err := database.QueryRowContext(ctx, q, args...).Scan(&exists)
	return exists, err
}

func CreateStudent(ctx context.Context, database *sql.DB, userID int64, in models.StudentInput) (*models.Student, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	return scanStudent(database.QueryRowContext(ctx, `
		INSERT INTO students (user_id, name, gender, birthday, stage, school, enroll_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+studentColumns,
		userID, in.Name, in.Gender, in.Birthday, in.Stage, in.School, in.EnrollDate))
}

// UpdateStudent перезаписывает все поля ученика.
func UpdateStudent(ctx context.Context, database *sql.DB, id, userID int64, in models.StudentInput) (*models.Student, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	s, err := scanStudent(database.QueryRowContext(ctx, `
		UPDATE students
		SET name = $3, gender = $4, birthday = $5, stage = $6, school = $7, enroll_date = $8, updated_at = now()
		WHERE id = $1 AND user_id = $2 AND `+alive("")+`
		RETURNING `+studentColumns,
		id, userID, in.Name, in.Gender, in.Birthday, in.Stage, in.School, in.EnrollDate))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(EntityStudent)
	}
	return s, err
}

// DeleteStudent: мягкое удаление ученика вместе с задачами и журналом баллов,
// у всех строк одинаковая отметка deleted_at.
func DeleteStudent(ctx context.Context, database *sql.DB, id, userID int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	return inTx(ctx, database, func(tx *sql.Tx) error {
		if _, err := getStudent(ctx, tx, id, userID, true); err != nil {
			return err
		}
		now := time.Now().UTC()
		for _, t := range []softTable{tasksTable, increasesTable, exchangesTable} {
			if _, err := tombstone(ctx, tx, t, now, "student_id = $1", id); err != nil {
				return err
			}
		}
		_, err := tombstone(ctx, tx, studentsTable, now, "id = $1", id)
		return err
	})
}
