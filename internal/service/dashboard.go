package service

import (
	"context"

	pkgerrors "github.com/pkg/errors"

	"github.com/Spok95/family-score/internal/db"
	"github.com/Spok95/family-score/internal/models"
	"github.com/Spok95/family-score/internal/voice"
)

const dashboardDays = 30

// Dashboard: по каждому живому ученику баланс и оценки за последние 30 дней.
func (s *Service) Dashboard(ctx context.Context, userID int64) ([]models.StudentDashboard, error) {
	students, err := db.ListStudents(ctx, s.db, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list students")
	}
	since := s.now().AddDate(0, 0, -dashboardDays)

	out := make([]models.StudentDashboard, 0, len(students))
	for _, st := range students {
		sum, err := db.ScoreSummary(ctx, s.db, st.ID)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "score summary for student %d", st.ID)
		}
		hist, err := db.RatingHistogram(ctx, s.db, st.ID, since)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "ratings for student %d", st.ID)
		}
		if hist == nil {
			hist = []models.RatingSummary{}
		}
		out = append(out, models.StudentDashboard{Student: st, ScoreSummary: sum, TaskRatingSummary: hist})
	}
	return out, nil
}

// Catalog: справочники пользователя для разбора голосовых команд.
func (s *Service) Catalog(ctx context.Context, userID int64) (*voice.Catalog, error) {
	var (
		c   voice.Catalog
		err error
	)
	if c.Projects, err = db.ListProjects(ctx, s.db, userID, nil, nil); err != nil {
		return nil, pkgerrors.Wrap(err, "list projects")
	}
	if c.RewardOptions, err = db.ListRewardOptions(ctx, s.db, userID); err != nil {
		return nil, pkgerrors.Wrap(err, "list reward options")
	}
	if c.PunishmentOptions, err = db.ListPunishmentOptions(ctx, s.db, userID); err != nil {
		return nil, pkgerrors.Wrap(err, "list punishment options")
	}
	return &c, nil
}
