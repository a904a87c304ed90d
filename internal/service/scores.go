package service

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Spok95/family-score/internal/db"
	"github.com/Spok95/family-score/internal/export"
	"github.com/Spok95/family-score/internal/metrics"
	"github.com/Spok95/family-score/internal/models"
)

const (
	DefaultLedgerLimit = 100
	MaxLedgerLimit     = 100
)

// ClampLimit приводит limit к 1..MaxLedgerLimit; 0 даёт значение по умолчанию.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLedgerLimit
	case limit > MaxLedgerLimit:
		return MaxLedgerLimit
	}
	return limit
}

func (s *Service) ScoreSummary(ctx context.Context, userID, studentID int64) (models.ScoreSummary, error) {
	if _, err := s.student(ctx, userID, studentID); err != nil {
		return models.ScoreSummary{}, err
	}
	sum, err := db.ScoreSummary(ctx, s.db, studentID)
	return sum, pkgerrors.Wrap(err, "score summary")
}

func (s *Service) ListIncreases(ctx context.Context, userID, studentID int64, limit int) ([]models.ScoreIncrease, error) {
	if _, err := s.student(ctx, userID, studentID); err != nil {
		return nil, err
	}
	out, err := db.ListIncreases(ctx, s.db, studentID, ClampLimit(limit))
	if out == nil {
		out = []models.ScoreIncrease{}
	}
	return out, pkgerrors.Wrap(err, "list increases")
}

func (s *Service) ListExchanges(ctx context.Context, userID, studentID int64, limit int) ([]models.ScoreExchange, error) {
	if _, err := s.student(ctx, userID, studentID); err != nil {
		return nil, err
	}
	out, err := db.ListExchanges(ctx, s.db, studentID, ClampLimit(limit))
	if out == nil {
		out = []models.ScoreExchange{}
	}
	return out, pkgerrors.Wrap(err, "list exchanges")
}

// CreateExchange списывает баллы за награду; при нехватке баллов строка не создаётся.
func (s *Service) CreateExchange(ctx context.Context, userID, studentID, optionID int64) (*models.ScoreExchange, error) {
	ex, err := db.CreateExchange(ctx, s.db, userID, studentID, optionID)
	if errors.Is(err, db.ErrInsufficientPoints) {
		metrics.ExchangesRejected.Inc()
	}
	if err != nil {
		return nil, mapErr(err)
	}
	metrics.ScoreExchanges.Inc()
	s.log.For(ctx).Info("score exchanged",
		zap.Int64("student_id", studentID), zap.Int64("reward_option_id", optionID), zap.Int("cost", ex.CostPoints))
	return ex, nil
}

// ExportLedger: xlsx с начислениями и обменами ученика и имя файла.
func (s *Service) ExportLedger(ctx context.Context, userID, studentID int64) ([]byte, string, error) {
	st, err := s.student(ctx, userID, studentID)
	if err != nil {
		return nil, "", err
	}
	incs, err := db.ListIncreases(ctx, s.db, studentID, 0)
	if err != nil {
		return nil, "", pkgerrors.Wrap(err, "list increases")
	}
	exs, err := db.ListExchanges(ctx, s.db, studentID, 0)
	if err != nil {
		return nil, "", pkgerrors.Wrap(err, "list exchanges")
	}
	data, err := export.LedgerWorkbook(incs, exs, s.loc)
	if err != nil {
		return nil, "", pkgerrors.Wrap(err, "build workbook")
	}
	return data, export.BuildLedgerFilename(st.Name, s.now().In(s.loc)), nil
}
