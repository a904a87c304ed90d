package service

import (
	"context"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/Spok95/family-score/internal/apperr"
	"github.com/Spok95/family-score/internal/db"
	"github.com/Spok95/family-score/internal/models"
)

func (s *Service) ListStudents(ctx context.Context, userID int64) ([]models.Student, error) {
	out, err := db.ListStudents(ctx, s.db, userID)
	if out == nil {
		out = []models.Student{}
	}
	return out, pkgerrors.Wrap(err, "list students")
}

// student: живой ученик пользователя или 404.
func (s *Service) student(ctx context.Context, userID, studentID int64) (*models.Student, error) {
	st, err := db.GetStudent(ctx, s.db, studentID, userID)
	return st, mapErr(err)
}

func (s *Service) checkStudentDuplicate(ctx context.Context, userID int64, in models.StudentInput, self *int64) error {
	dup, err := db.StudentDuplicateExists(ctx, s.db, userID, in, self)
	if err != nil {
		return pkgerrors.Wrap(err, "check duplicate student")
	}
	if dup {
		return apperr.Conflict("student %q already exists", in.Name)
	}
	return nil
}

func normalizeStudent(in *models.StudentInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return apperr.Field("name", "name is required")
	}
	if in.School != nil {
		v := strings.TrimSpace(*in.School)
		in.School = &v
	}
	return nil
}

func (s *Service) CreateStudent(ctx context.Context, userID int64, in models.StudentInput) (*models.Student, error) {
	if err := normalizeStudent(&in); err != nil {
		return nil, err
	}
	if err := s.checkStudentDuplicate(ctx, userID, in, nil); err != nil {
		return nil, err
	}
	st, err := db.CreateStudent(ctx, s.db, userID, in)
	return st, pkgerrors.Wrap(err, "create student")
}

func (s *Service) UpdateStudent(ctx context.Context, userID, studentID int64, in models.StudentInput) (*models.Student, error) {
	if err := normalizeStudent(&in); err != nil {
		return nil, err
	}
	if _, err := s.student(ctx, userID, studentID); err != nil {
		return nil, err
	}
	if err := s.checkStudentDuplicate(ctx, userID, in, &studentID); err != nil {
		return nil, err
	}
	st, err := db.UpdateStudent(ctx, s.db, studentID, userID, in)
	return st, mapErr(err)
}

func (s *Service) DeleteStudent(ctx context.Context, userID, studentID int64) error {
	return mapErr(db.DeleteStudent(ctx, s.db, studentID, userID))
}
