package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lib/pq"

	"github.com/Spok95/family-score/internal/ctxutil"
)

// PromoteAdmins выдаёт права администратора пользователям из списка email.
// Возвращает число пользователей, у которых права появились.
func PromoteAdmins(ctx context.Context, database *sql.DB, emails []string) (int64, error) {
	norm := make([]string, 0, len(emails))
	for _, e := range emails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			norm = append(norm, e)
		}
	}
	if len(norm) == 0 {
		return 0, nil
	}

	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := database.ExecContext(ctx, `
		UPDATE users SET is_admin = TRUE
		WHERE lower(email) = ANY($1) AND NOT is_admin`, pq.Array(norm))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
