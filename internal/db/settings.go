package db

import (
	"context"
	"database/sql"

	"github.com/Spok95/family-score/internal/ctxutil"
	"github.com/Spok95/family-score/internal/models"
)

// GetSettings читает единственную строку настроек, создавая её при отсутствии.
func GetSettings(ctx context.Context, database *sql.DB) (models.SystemSettings, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var s models.SystemSettings
	err := database.QueryRowContext(ctx, `
		INSERT INTO system_settings (id) VALUES (1)
		ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
		RETURNING id, allow_registration, updated_at`).Scan(&s.ID, &s.AllowRegistration, &s.UpdatedAt)
	return s, err
}

func UpdateSettings(ctx context.Context, database *sql.DB, allowRegistration bool) (models.SystemSettings, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var s models.SystemSettings
	err := database.QueryRowContext(ctx, `
		INSERT INTO system_settings (id, allow_registration, updated_at) VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET allow_registration = EXCLUDED.allow_registration, updated_at = now()
		RETURNING id, allow_registration, updated_at`, allowRegistration).Scan(&s.ID, &s.AllowRegistration, &s.UpdatedAt)
	return s, err
}
