package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Spok95/family-score/internal/ctxutil"
	"github.com/Spok95/family-score/internal/models"
)

// balanceSQL: доступный баланс ученика $1 по живым строкам журнала.
const balanceSQL = `
	(SELECT COALESCE(SUM(points), 0) FROM score_increases WHERE student_id = $1 AND NOT is_deleted) -
	(SELECT COALESCE(SUM(cost_points), 0) FROM score_exchanges WHERE student_id = $1 AND NOT is_deleted)`

// ScoreSummary: баланс и сумма обменов; при пустом журнале нули.
func ScoreSummary(ctx context.Context, database *sql.DB, studentID int64) (models.ScoreSummary, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()
	return scoreSummary(ctx, database, studentID)
}

func scoreSummary(ctx context.Context, q DBTX, studentID int64) (models.ScoreSummary, error) {
	var s models.ScoreSummary
	err := q.QueryRowContext(ctx, `
		SELECT `+balanceSQL+`,
			(SELECT COALESCE(SUM(cost_points), 0) FROM score_exchanges WHERE student_id = $1 AND NOT is_deleted)`,
		studentID).Scan(&s.AvailablePoints, &s.ExchangedPoints)
	return s, err
}

// ListIncreases: начисления ученика, свежие сверху; при limit <= 0 без ограничения.
func ListIncreases(ctx context.Context, database *sql.DB, studentID int64, limit int) ([]models.ScoreIncrease, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	q := `
		SELECT i.id, i.student_id, i.task_id, i.project_level1_id, i.project_level2_id, i.points, i.created_at, p.name
		FROM score_increases i
		LEFT JOIN projects p ON p.id = i.project_level1_id
		WHERE i.student_id = $1 AND ` + alive("i") + `
		ORDER BY i.created_at DESC, i.id DESC`
	args := []any{studentID}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := database.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.ScoreIncrease
	for rows.Next() {
		var r models.ScoreIncrease
		if err := rows.Scan(&r.ID, &r.StudentID, &r.TaskID, &r.ProjectLevel1ID, &r.ProjectLevel2ID,
			&r.Points, &r.CreatedAt, &r.ProjectLevel1Name); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListExchanges: обмены ученика с названием награды, свежие сверху.
func ListExchanges(ctx context.Context, database *sql.DB, studentID int64, limit int) ([]models.ScoreExchange, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	q := `
		SELECT e.id, e.student_id, e.reward_option_id, e.cost_points, e.created_at, o.name
		FROM score_exchanges e
		LEFT JOIN reward_exchange_options o ON o.id = e.reward_option_id
		WHERE e.student_id = $1 AND ` + alive("e") + `
		ORDER BY e.created_at DESC, e.id DESC`
	args := []any{studentID}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := database.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.ScoreExchange
	for rows.Next() {
		var r models.ScoreExchange
		if err := rows.Scan(&r.ID, &r.StudentID, &r.RewardOptionID, &r.CostPoints, &r.CreatedAt, &r.RewardOptionName); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CreateExchange списывает стоимость награды. Строка ученика блокируется,
// поэтому параллельные обмены одного ученика идут по очереди; вставка
// условная и не проходит, если баланса не хватает.
func CreateExchange(ctx context.Context, database *sql.DB, userID, studentID, optionID int64) (*models.ScoreExchange, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var ex *models.ScoreExchange
	err := inTx(ctx, database, func(tx *sql.Tx) error {
		if _, err := getStudent(ctx, tx, studentID, userID, true); err != nil {
			return err
		}

		var (
			cost int
			name string
		)
		err := tx.QueryRowContext(ctx, `
			SELECT cost_points, name FROM reward_exchange_options WHERE id = $1 AND user_id = $2`,
			optionID, userID).Scan(&cost, &name)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(EntityRewardOption)
		}
		if err != nil {
			return err
		}

		var r models.ScoreExchange
		err = tx.QueryRowContext(ctx, `
			INSERT INTO score_exchanges (student_id, reward_option_id, cost_points)
			SELECT $1::bigint, $2::bigint, $3::integer
			WHERE (`+balanceSQL+`) >= $3::integer
			RETURNING id, student_id, reward_option_id, cost_points, created_at`,
			studentID, optionID, cost).Scan(&r.ID, &r.StudentID, &r.RewardOptionID, &r.CostPoints, &r.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInsufficientPoints
		}
		if err != nil {
			return err
		}
		r.RewardOptionName = &name
		ex = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ex, nil
}

// LedgerTotals: суммы по всем живым строкам журнала, для метрик.
type LedgerTotals struct {
	Students        int
	PointsAwarded   int64
	PointsExchanged int64
}

func GetLedgerTotals(ctx context.Context, database *sql.DB) (LedgerTotals, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	var t LedgerTotals
	err := database.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM students WHERE NOT is_deleted),
			(SELECT COALESCE(SUM(points), 0) FROM score_increases WHERE NOT is_deleted),
			(SELECT COALESCE(SUM(cost_points), 0) FROM score_exchanges WHERE NOT is_deleted)`,
	).Scan(&t.Students, &t.PointsAwarded, &t.PointsExchanged)
	return t, err
}
