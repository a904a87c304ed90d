// Package service: бизнес-правила поверх репозиториев db: владение, проверки, перевод ошибок.
package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Spok95/family-score/internal/apperr"
	"github.com/Spok95/family-score/internal/auth"
	"github.com/Spok95/family-score/internal/db"
	"github.com/Spok95/family-score/internal/logging"
	"github.com/Spok95/family-score/internal/models"
	"github.com/Spok95/family-score/internal/oauth"
)

// OAuthProvider меняет одноразовый код на профиль внешнего аккаунта.
type OAuthProvider interface {
	Exchange(ctx context.Context, code string) (*oauth.UserInfo, error)
}

type Service struct {
	db     *sql.DB
	log    *logging.Log
	tokens *auth.Tokens
	oauth  map[models.AccountType]OAuthProvider
	loc    *time.Location
	now    func() time.Time
}

type Options struct {
	DB       *sql.DB
	Log      *logging.Log
	Tokens   *auth.Tokens
	OAuth    map[models.AccountType]OAuthProvider
	Location *time.Location
}

func New(o Options) *Service {
	loc := o.Location
	if loc == nil {
		loc = time.UTC
	}
	lg := o.Log
	if lg == nil {
		lg = logging.Nop()
	}
	return &Service{db: o.DB, log: lg, tokens: o.Tokens, oauth: o.OAuth, loc: loc, now: time.Now}
}

func (s *Service) DB() *sql.DB { return s.db }

func (s *Service) Location() *time.Location { return s.loc }

var entityNames = map[string]string{
	db.EntityUser:             "user",
	db.EntityStudent:          "student",
	db.EntityProject:          "project",
	db.EntityTask:             "task",
	db.EntityRewardOption:     "reward option",
	db.EntityPunishmentOption: "punishment option",
}

// mapErr переводит ошибки репозитория в apperr; остальное возвращает как есть.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var nf *db.NotFoundError
	if errors.As(err, &nf) {
		return apperr.NotFound(entityNames[nf.Entity])
	}
	var inUse *db.InUseError
	if errors.As(err, &inUse) {
		return inUseConflict(inUse)
	}
	switch {
	case errors.Is(err, db.ErrInsufficientPoints):
		return &apperr.Error{Kind: apperr.KindInsufficientPoints, Message: "insufficient points", Err: err}
	case errors.Is(err, db.ErrTaskLocked):
		return apperr.Conflict("task cannot be modified")
	case errors.Is(err, db.ErrNotFound):
		return apperr.NotFound("record")
	}
	return err
}

func inUseConflict(e *db.InUseError) error {
	name := entityNames[e.Entity]
	switch e.Reason {
	case db.RefChildren:
		return apperr.Conflict("%s has %d child projects", name, e.Count)
	case db.RefExchanges:
		return apperr.Conflict("%s is referenced by %d exchanges", name, e.Count)
	case db.RefTasks:
		return apperr.Conflict("%s is referenced by %d tasks", name, e.Count)
	default:
		return apperr.Conflict("%s is referenced by %d records", name, e.Count)
	}
}
