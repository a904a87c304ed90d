package service

import (
	"context"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/Spok95/family-score/internal/apperr"
	"github.com/Spok95/family-score/internal/db"
	"github.com/Spok95/family-score/internal/models"
)

func (s *Service) ListRewardOptions(ctx context.Context, userID int64) ([]models.RewardOption, error) {
	out, err := db.ListRewardOptions(ctx, s.db, userID)
	if out == nil {
		out = []models.RewardOption{}
	}
	return out, pkgerrors.Wrap(err, "list reward options")
}

func (s *Service) CreateRewardOption(ctx context.Context, userID int64, in models.RewardOptionInput) (*models.RewardOption, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, apperr.Field("name", "name is required")
	}
	if in.CostPoints <= 0 {
		return nil, apperr.Field("cost_points", "cost_points must be greater than 0")
	}
	o, err := db.CreateRewardOption(ctx, s.db, userID, in)
	return o, pkgerrors.Wrap(err, "create reward option")
}

func (s *Service) UpdateRewardOption(ctx context.Context, userID, id int64, patch models.RewardOptionPatch) (*models.RewardOption, error) {
	if patch.CostPoints != nil && *patch.CostPoints <= 0 {
		return nil, apperr.Field("cost_points", "cost_points must be greater than 0")
	}
	o, err := db.UpdateRewardOption(ctx, s.db, id, userID, patch)
	return o, mapErr(err)
}

func (s *Service) DeleteRewardOption(ctx context.Context, userID, id int64) error {
	return mapErr(db.DeleteRewardOption(ctx, s.db, id, userID))
}

func (s *Service) ListPunishmentOptions(ctx context.Context, userID int64) ([]models.PunishmentOption, error) {
	out, err := db.ListPunishmentOptions(ctx, s.db, userID)
	if out == nil {
		out = []models.PunishmentOption{}
	}
	return out, pkgerrors.Wrap(err, "list punishment options")
}

// checkRelatedProjects: задача-отработка требует свой проект 1-го уровня,
// проект 2-го уровня, если задан, должен быть его ребёнком.
func (s *Service) checkRelatedProjects(ctx context.Context, userID int64, o models.PunishmentOption) error {
	if o.GenerateRelatedTask && o.RelatedProjectLevel1ID == nil {
		return apperr.Field("related_project_level1_id", "related_project_level1_id is required when generate_related_task is set")
	}
	if o.RelatedProjectLevel1ID == nil {
		if o.RelatedProjectLevel2ID != nil {
			return apperr.Field("related_project_level2_id", "related_project_level2_id requires related_project_level1_id")
		}
		return nil
	}
	err := s.projectPair(ctx, userID, *o.RelatedProjectLevel1ID, o.RelatedProjectLevel2ID)
	if e, ok := apperr.As(err); ok && e.Kind == apperr.KindValidation && len(e.Fields) > 0 {
		e.Fields[0].Field = "related_" + e.Fields[0].Field
	}
	return err
}

func (s *Service) CreatePunishmentOption(ctx context.Context, userID int64, in models.PunishmentOptionInput) (*models.PunishmentOption, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, apperr.Field("name", "name is required")
	}
	err := s.checkRelatedProjects(ctx, userID, models.PunishmentOption{
		GenerateRelatedTask:    in.GenerateRelatedTask,
		RelatedProjectLevel1ID: in.RelatedProjectLevel1ID,
		RelatedProjectLevel2ID: in.RelatedProjectLevel2ID,
	})
	if err != nil {
		return nil, err
	}
	o, err := db.CreatePunishmentOption(ctx, s.db, userID, in)
	return o, pkgerrors.Wrap(err, "create punishment option")
}

func (s *Service) UpdatePunishmentOption(ctx context.Context, userID, id int64, patch models.PunishmentOptionPatch) (*models.PunishmentOption, error) {
	cur, err := db.GetPunishmentOption(ctx, s.db, id, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	next := patch.Apply(*cur)
	next.Name = strings.TrimSpace(next.Name)
	if next.Name == "" {
		return nil, apperr.Field("name", "name cannot be blank")
	}
	if err := s.checkRelatedProjects(ctx, userID, next); err != nil {
		return nil, err
	}
	o, err := db.SavePunishmentOption(ctx, s.db, next)
	return o, mapErr(err)
}

func (s *Service) DeletePunishmentOption(ctx context.Context, userID, id int64) error {
	return mapErr(db.DeletePunishmentOption(ctx, s.db, id, userID))
}
