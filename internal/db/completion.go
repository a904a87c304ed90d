package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Spok95/family-score/internal/models"
)

// applyCompletion: последствия перехода задачи в completed.
// reward: одно начисление баллов; punish: задача-отработка, если опция её предусматривает.
// Вызывается только внутри транзакции, ошибка откатывает и саму задачу.
func applyCompletion(ctx context.Context, tx *sql.Tx, t models.Task) (CompletionEffects, error) {
	var eff CompletionEffects

	switch t.RewardType {
	case models.RewardPoints:
		if t.RewardPoints == nil || *t.RewardPoints <= 0 {
			return eff, nil
		}
		var id int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO score_increases (student_id, task_id, project_level1_id, project_level2_id, points)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			t.StudentID, t.ID, t.ProjectLevel1ID, t.ProjectLevel2ID, *t.RewardPoints).Scan(&id)
		if err != nil {
			return eff, fmt.Errorf("insert score increase: %w", err)
		}
		eff.ScoreIncreaseID = &id

	case models.RewardPunish:
		if t.PunishmentOptionID == nil {
			return eff, nil
		}
		var (
			generate bool
			p1, p2   *int64
		)
		err := tx.QueryRowContext(ctx, `
			SELECT generate_related_task, related_project_level1_id, related_project_level2_id
			FROM punishment_options WHERE id = $1`, *t.PunishmentOptionID).Scan(&generate, &p1, &p2)
		if errors.Is(err, sql.ErrNoRows) {
			return eff, nil
		}
		if err != nil {
			return eff, err
		}
		if !generate || p1 == nil {
			return eff, nil
		}
		follow, err := insertTask(ctx, tx, models.Task{
			StudentID:       t.StudentID,
			ProjectLevel1ID: *p1,
			ProjectLevel2ID: p2,
			Status:          models.TaskNotStarted,
			RewardType:      models.RewardNone,
		})
		if err != nil {
			return eff, fmt.Errorf("insert follow-up task: %w", err)
		}
		eff.FollowUpTaskID = &follow.ID
	}
	return eff, nil
}
