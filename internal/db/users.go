package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Spok95/family-score/internal/ctxutil"
	"github.com/Spok95/family-score/internal/models"
)

const userColumns = `id, email, hashed_password, is_active, is_admin, created_at, last_login_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.HashedPassword, &u.IsActive, &u.IsAdmin, &u.CreatedAt, &u.LastLoginAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser заводит пользователя и его почтовый аккаунт одной транзакцией.
func CreateUser(ctx context.Context, database *sql.DB, email, hashedPassword string, isAdmin bool) (*models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	email = strings.ToLower(strings.TrimSpace(email))
	var u *models.User
	err := inTx(ctx, database, func(tx *sql.Tx) error {
		var err error
		u, err = insertUser(ctx, tx, email, hashedPassword, isAdmin)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO user_accounts (user_id, account_type, account_id, account_name)
			VALUES ($1, $2, $3, $3)`, u.ID, models.AccountEmail, email)
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func insertUser(ctx context.Context, q DBTX, email, hashedPassword string, isAdmin bool) (*models.User, error) {
	row := q.QueryRowContext(ctx, `
		INSERT INTO users (email, hashed_password, is_admin)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns, email, hashedPassword, isAdmin)
	u, err := scanUser(row)
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	return u, err
}

func GetUserByID(ctx context.Context, database *sql.DB, id int64) (*models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	u, err := scanUser(database.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(EntityUser)
	}
	return u, err
}

func GetUserByEmail(ctx context.Context, database *sql.DB, email string) (*models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	u, err := scanUser(database.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(strings.TrimSpace(email))))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(EntityUser)
	}
	return u, err
}

// ListUsers: для админки, новые сверху.
func ListUsers(ctx context.Context, database *sql.DB) ([]models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func TouchLastLogin(ctx context.Context, database *sql.DB, userID int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := database.ExecContext(ctx, `UPDATE users SET last_login_at = now() WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(EntityUser)
	}
	return nil
}
