package service

import (
	"context"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Spok95/family-score/internal/apperr"
	"github.com/Spok95/family-score/internal/db"
	"github.com/Spok95/family-score/internal/metrics"
	"github.com/Spok95/family-score/internal/models"
)

// checkTaskPayload: согласованность вида награды, баллов, наказания и оценки.
func checkTaskPayload(t models.Task) error {
	switch t.RewardType {
	case models.RewardPoints:
		if t.RewardPoints == nil || *t.RewardPoints <= 0 {
			return apperr.Field("reward_points", "reward_points must be greater than 0 for reward tasks")
		}
		if t.PunishmentOptionID != nil {
			return apperr.Field("punishment_option_id", "reward task cannot have a punishment option")
		}
	case models.RewardPunish:
		if t.PunishmentOptionID == nil {
			return apperr.Field("punishment_option_id", "punishment_option_id is required for punish tasks")
		}
		if t.RewardPoints != nil {
			return apperr.Field("reward_points", "punish task cannot have reward points")
		}
	case models.RewardNone:
		if t.RewardPoints != nil || t.PunishmentOptionID != nil {
			return apperr.Field("reward_type", "reward_type none forbids reward points and punishment option")
		}
	default:
		return apperr.Field("reward_type", "unknown reward_type")
	}
	if !t.Status.Valid() {
		return apperr.Field("status", "unknown status")
	}
	if t.Rating != nil && !t.Rating.Valid() {
		return apperr.Field("rating", "unknown rating")
	}
	if t.Status == models.TaskCompleted && t.Rating == nil {
		return apperr.Field("rating", "rating is required for completed tasks")
	}
	return nil
}

func (s *Service) ListTasks(ctx context.Context, userID, studentID int64, f models.TaskFilter) ([]models.Task, error) {
	if _, err := s.student(ctx, userID, studentID); err != nil {
		return nil, err
	}
	out, err := db.ListTasks(ctx, s.db, studentID, f)
	if out == nil {
		out = []models.Task{}
	}
	return out, pkgerrors.Wrap(err, "list tasks")
}

func (s *Service) checkPunishmentOption(ctx context.Context, userID int64, id *int64) error {
	if id == nil {
		return nil
	}
	_, err := db.GetPunishmentOption(ctx, s.db, *id, userID)
	return mapErr(err)
}

func (s *Service) CreateTask(ctx context.Context, userID int64, in models.TaskInput) (*models.Task, error) {
	if _, err := s.student(ctx, userID, in.StudentID); err != nil {
		return nil, err
	}
	if err := s.projectPair(ctx, userID, in.ProjectLevel1ID, in.ProjectLevel2ID); err != nil {
		return nil, err
	}
	t := models.Task{
		StudentID:          in.StudentID,
		ProjectLevel1ID:    in.ProjectLevel1ID,
		ProjectLevel2ID:    in.ProjectLevel2ID,
		Status:             in.Status,
		Rating:             in.Rating,
		RewardType:         in.RewardType,
		RewardPoints:       in.RewardPoints,
		PunishmentOptionID: in.PunishmentOptionID,
	}
	if t.Status == "" {
		t.Status = models.TaskNotStarted
	}
	if t.RewardType == "" {
		t.RewardType = models.RewardNone
	}
	if err := checkTaskPayload(t); err != nil {
		return nil, err
	}
	if err := s.checkPunishmentOption(ctx, userID, t.PunishmentOptionID); err != nil {
		return nil, err
	}

	task, eff, err := db.CreateTask(ctx, s.db, t)
	if err != nil {
		return nil, pkgerrors.Wrap(mapErr(err), "create task")
	}
	s.observeCompletion(ctx, task, eff, task.Status == models.TaskCompleted)
	return task, nil
}

// UpdateTask: частичное обновление; итоговые значения проверяются под блокировкой задачи.
func (s *Service) UpdateTask(ctx context.Context, userID, studentID, taskID int64, patch models.TaskPatch) (*models.Task, error) {
	if _, err := s.student(ctx, userID, studentID); err != nil {
		return nil, err
	}
	if patch.ProjectLevel1ID != nil {
		if _, err := s.project(ctx, userID, *patch.ProjectLevel1ID); err != nil {
			return nil, err
		}
	}
	if patch.ProjectLevel2ID != nil {
		if _, err := s.project(ctx, userID, *patch.ProjectLevel2ID); err != nil {
			return nil, err
		}
	}
	if err := s.checkPunishmentOption(ctx, userID, patch.PunishmentOptionID); err != nil {
		return nil, err
	}

	check := func(next models.Task) error {
		if patch.ProjectLevel1ID != nil || patch.ProjectLevel2ID != nil || patch.ClearProjectLevel2ID {
			if err := s.projectPair(ctx, userID, next.ProjectLevel1ID, next.ProjectLevel2ID); err != nil {
				return err
			}
		}
		return checkTaskPayload(next)
	}
	task, eff, err := db.UpdateTask(ctx, s.db, taskID, studentID, patch, check)
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return nil, err
		}
		return nil, pkgerrors.Wrap(mapErr(err), "update task")
	}
	s.observeCompletion(ctx, task, eff, patch.Status != nil && *patch.Status == models.TaskCompleted)
	return task, nil
}

// observeCompletion: метрики и лог после коммита.
func (s *Service) observeCompletion(ctx context.Context, t *models.Task, eff db.CompletionEffects, completed bool) {
	if !completed {
		return
	}
	metrics.TasksCompleted.Inc()
	fields := []zap.Field{zap.Int64("task_id", t.ID), zap.Int64("student_id", t.StudentID)}
	if eff.ScoreIncreaseID != nil {
		metrics.ScoreIncreases.Inc()
		fields = append(fields, zap.Int64("score_increase_id", *eff.ScoreIncreaseID))
	}
	if eff.FollowUpTaskID != nil {
		metrics.FollowUpTasks.Inc()
		fields = append(fields, zap.Int64("followup_task_id", *eff.FollowUpTaskID))
	}
	s.log.For(ctx).Info("task completed", fields...)
}
