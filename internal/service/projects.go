package service

import (
	"context"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/Spok95/family-score/internal/apperr"
	"github.com/Spok95/family-score/internal/db"
	"github.com/Spok95/family-score/internal/models"
)

func (s *Service) ListProjects(ctx context.Context, userID int64, level *models.ProjectLevel, parentID *int64) ([]models.Project, error) {
	out, err := db.ListProjects(ctx, s.db, userID, level, parentID)
	if out == nil {
		out = []models.Project{}
	}
	return out, pkgerrors.Wrap(err, "list projects")
}

func (s *Service) project(ctx context.Context, userID, projectID int64) (*models.Project, error) {
	p, err := db.GetProject(ctx, s.db, projectID, userID)
	return p, mapErr(err)
}

// projectPair проверяет пару проектов задачи: оба свои, второй уровень: ребёнок первого.
func (s *Service) projectPair(ctx context.Context, userID, level1ID int64, level2ID *int64) error {
	p1, err := s.project(ctx, userID, level1ID)
	if err != nil {
		return err
	}
	if p1.Level != models.Level1 {
		return apperr.Field("project_level1_id", "project is not a level-1 project")
	}
	if level2ID == nil {
		return nil
	}
	p2, err := s.project(ctx, userID, *level2ID)
	if err != nil {
		return err
	}
	if p2.Level != models.Level2 || p2.ParentID == nil || *p2.ParentID != level1ID {
		return apperr.Field("project_level2_id", "level-2 project does not belong to the level-1 project")
	}
	return nil
}

func (s *Service) CreateProject(ctx context.Context, userID int64, in models.ProjectInput) (*models.Project, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, apperr.Field("name", "name is required")
	}
	switch in.Level {
	case models.Level1:
		if in.ParentID != nil {
			return nil, apperr.Field("parent_id", "level-1 project cannot have a parent")
		}
	case models.Level2:
		if in.ParentID == nil {
			return nil, apperr.Field("parent_id", "level-2 project requires a parent")
		}
		parent, err := s.project(ctx, userID, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.Level != models.Level1 {
			return nil, apperr.Field("parent_id", "parent must be a level-1 project")
		}
	default:
		return nil, apperr.Field("level", "level must be 1 or 2")
	}
	p, err := db.CreateProject(ctx, s.db, userID, in)
	return p, pkgerrors.Wrap(err, "create project")
}

func (s *Service) UpdateProject(ctx context.Context, userID, projectID int64, patch models.ProjectPatch) (*models.Project, error) {
	if patch.Name != nil {
		v := strings.TrimSpace(*patch.Name)
		if v == "" {
			return nil, apperr.Field("name", "name cannot be blank")
		}
		patch.Name = &v
	}
	p, err := db.UpdateProject(ctx, s.db, projectID, userID, patch)
	return p, mapErr(err)
}

func (s *Service) DeleteProject(ctx context.Context, userID, projectID int64) error {
	return mapErr(db.DeleteProject(ctx, s.db, projectID, userID))
}
