package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Spok95/family-score/internal/ctxutil"
	"github.com/Spok95/family-score/internal/models"
)

const accountColumns = `id, user_id, account_type, account_id, account_name, avatar_url, extra_data, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*models.UserAccount, error) {
	var a models.UserAccount
	err := row.Scan(&a.ID, &a.UserID, &a.AccountType, &a.AccountID, &a.AccountName, &a.AvatarURL, &a.ExtraData, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ExternalProfile: то, что вернул сторонний провайдер после обмена кода.
type ExternalProfile struct {
	Type      models.AccountType
	AccountID string
	Name      string
	AvatarURL string
	ExtraData string
}

func GetAccount(ctx context.Context, database *sql.DB, typ models.AccountType, accountID string) (*models.UserAccount, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	a, err := scanAccount(database.QueryRowContext(ctx, `
		SELECT `+accountColumns+` FROM user_accounts
		WHERE account_type = $1 AND account_id = $2`, typ, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func ListAccounts(ctx context.Context, database *sql.DB, userID int64) ([]models.UserAccount, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
		SELECT `+accountColumns+` FROM user_accounts WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.UserAccount
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// RefreshAccount обновляет имя, аватар и доп. данные аккаунта после очередного входа.
func RefreshAccount(ctx context.Context, database *sql.DB, id int64, p ExternalProfile) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	_, err := database.ExecContext(ctx, `
		UPDATE user_accounts
		SET account_name = COALESCE(NULLIF($2, ''), account_name),
		    avatar_url   = COALESCE(NULLIF($3, ''), avatar_url),
		    extra_data   = COALESCE(NULLIF($4, ''), extra_data),
		    updated_at   = now()
		WHERE id = $1`, id, p.Name, p.AvatarURL, p.ExtraData)
	return err
}

// CreateExternalUser заводит пользователя без пароля для входа и привязывает к нему внешний аккаунт.
func CreateExternalUser(ctx context.Context, database *sql.DB, email, hashedPassword string, p ExternalProfile) (*models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var u *models.User
	err := inTx(ctx, database, func(tx *sql.Tx) error {
		var err error
		u, err = insertUser(ctx, tx, email, hashedPassword, false)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO user_accounts (user_id, account_type, account_id, account_name, avatar_url, extra_data)
			VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''))`,
			u.ID, p.Type, p.AccountID, p.Name, p.AvatarURL, p.ExtraData)
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
