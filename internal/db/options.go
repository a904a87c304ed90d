package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Spok95/family-score/internal/ctxutil"
	"github.com/Spok95/family-score/internal/models"
)

const (
	rewardOptionColumns     = `id, user_id, name, description, cost_points, created_at`
	punishmentOptionColumns = `id, user_id, name, description, generate_related_task,
		related_project_level1_id, related_project_level2_id, created_at`
)

func scanRewardOption(row interface{ Scan(...any) error }) (*models.RewardOption, error) {
	var o models.RewardOption
	if err := row.Scan(&o.ID, &o.UserID, &o.Name, &o.Description, &o.CostPoints, &o.CreatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

func scanPunishmentOption(row interface{ Scan(...any) error }) (*models.PunishmentOption, error) {
	var o models.PunishmentOption
	err := row.Scan(&o.ID, &o.UserID, &o.Name, &o.Description, &o.GenerateRelatedTask,
		&o.RelatedProjectLevel1ID, &o.RelatedProjectLevel2ID, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListRewardOptions: от дешёвых к дорогим.
func ListRewardOptions(ctx context.Context, database *sql.DB, userID int64) ([]models.RewardOption, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
		SELECT `+rewardOptionColumns+` FROM reward_exchange_options
		WHERE user_id = $1 ORDER BY cost_points, id`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.RewardOption
	for rows.Next() {
		o, err := scanRewardOption(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func CreateRewardOption(ctx context.Context, database *sql.DB, userID int64, in models.RewardOptionInput) (*models.RewardOption, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	return scanRewardOption(database.QueryRowContext(ctx, `
		INSERT INTO reward_exchange_options (user_id, name, description, cost_points)
		VALUES ($1, $2, $3, $4)
		RETURNING `+rewardOptionColumns, userID, in.Name, in.Description, in.CostPoints))
}

func UpdateRewardOption(ctx context.Context, database *sql.DB, id, userID int64, patch models.RewardOptionPatch) (*models.RewardOption, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	o, err := scanRewardOption(database.QueryRowContext(ctx, `
		UPDATE reward_exchange_options
		SET name = COALESCE($3, name), description = COALESCE($4, description), cost_points = COALESCE($5, cost_points)
		WHERE id = $1 AND user_id = $2
		RETURNING `+rewardOptionColumns, id, userID, patch.Name, patch.Description, patch.CostPoints))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(EntityRewardOption)
	}
	return o, err
}

// DeleteRewardOption отказывает, пока на опцию ссылаются обмены.
func DeleteRewardOption(ctx context.Context, database *sql.DB, id, userID int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	return deleteReferenced(ctx, database, EntityRewardOption,
		`SELECT id FROM reward_exchange_options WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		`SELECT COUNT(*) FROM score_exchanges WHERE reward_option_id = $1`, RefExchanges,
		`DELETE FROM reward_exchange_options WHERE id = $1`, id, userID)
}

// ListPunishmentOptions: новые сверху.
func ListPunishmentOptions(ctx context.Context, database *sql.DB, userID int64) ([]models.PunishmentOption, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := database.QueryContext(ctx, `
		SELECT `+punishmentOptionColumns+` FROM punishment_options
		WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.PunishmentOption
	for rows.Next() {
		o, err := scanPunishmentOption(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func GetPunishmentOption(ctx context.Context, database *sql.DB, id, userID int64) (*models.PunishmentOption, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	o, err := scanPunishmentOption(database.QueryRowContext(ctx, `
		SELECT `+punishmentOptionColumns+` FROM punishment_options WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(EntityPunishmentOption)
	}
	return o, err
}

func CreatePunishmentOption(ctx context.Context, database *sql.DB, userID int64, in models.PunishmentOptionInput) (*models.PunishmentOption, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	return scanPunishmentOption(database.QueryRowContext(ctx, `
		INSERT INTO punishment_options (user_id, name, description, generate_related_task,
			related_project_level1_id, related_project_level2_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+punishmentOptionColumns,
		userID, in.Name, in.Description, in.GenerateRelatedTask, in.RelatedProjectLevel1ID, in.RelatedProjectLevel2ID))
}

// SavePunishmentOption перезаписывает опцию целиком: патч уже наложен сервисом.
func SavePunishmentOption(ctx context.Context, database *sql.DB, o models.PunishmentOption) (*models.PunishmentOption, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	saved, err := scanPunishmentOption(database.QueryRowContext(ctx, `
		UPDATE punishment_options
		SET name = $3, description = $4, generate_related_task = $5,
			related_project_level1_id = $6, related_project_level2_id = $7
		WHERE id = $1 AND user_id = $2
		RETURNING `+punishmentOptionColumns,
		o.ID, o.UserID, o.Name, o.Description, o.GenerateRelatedTask, o.RelatedProjectLevel1ID, o.RelatedProjectLevel2ID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(EntityPunishmentOption)
	}
	return saved, err
}

// DeletePunishmentOption отказывает, пока опция указана в задачах.
func DeletePunishmentOption(ctx context.Context, database *sql.DB, id, userID int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	return deleteReferenced(ctx, database, EntityPunishmentOption,
		`SELECT id FROM punishment_options WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		`SELECT COUNT(*) FROM tasks WHERE punishment_option_id = $1`, RefTasks,
		`DELETE FROM punishment_options WHERE id = $1`, id, userID)
}

// deleteReferenced: lock → count → delete, в одной транзакции.
func deleteReferenced(ctx context.Context, database *sql.DB, entity, lockSQL, countSQL, reason, deleteSQL string, id, userID int64) error {
	return inTx(ctx, database, func(tx *sql.Tx) error {
		var got int64
		if err := tx.QueryRowContext(ctx, lockSQL, id, userID).Scan(&got); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return notFound(entity)
			}
			return err
		}
		var n int
		if err := tx.QueryRowContext(ctx, countSQL, id).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return &InUseError{Entity: entity, Reason: reason, Count: n}
		}
		_, err := tx.ExecContext(ctx, deleteSQL, id)
		return err
	})
}
