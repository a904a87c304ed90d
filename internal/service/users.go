package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Spok95/family-score/internal/apperr"
	"github.com/Spok95/family-score/internal/auth"
	"github.com/Spok95/family-score/internal/db"
	"github.com/Spok95/family-score/internal/models"
)

var errBadCredentials = apperr.New(apperr.KindValidation, "incorrect email or password")

func (s *Service) registrationOpen(ctx context.Context) error {
	st, err := db.GetSettings(ctx, s.db)
	if err != nil {
		return pkgerrors.Wrap(err, "get settings")
	}
	if !st.AllowRegistration {
		return apperr.Forbidden("registration is disabled")
	}
	return nil
}

func (s *Service) Register(ctx context.Context, in models.RegisterInput) (*models.User, error) {
	if err := s.registrationOpen(ctx); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u, err := db.CreateUser(ctx, s.db, in.Email, hash, false)
	if errors.Is(err, db.ErrDuplicate) {
		return nil, apperr.Field("email", "email already registered")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "create user")
	}
	s.log.For(ctx).Info("user registered", zap.Int64("user_id", u.ID))
	return u, nil
}

func (s *Service) issue(ctx context.Context, u *models.User) (*models.Token, error) {
	if err := db.TouchLastLogin(ctx, s.db, u.ID); err != nil {
		return nil, pkgerrors.Wrap(err, "touch last login")
	}
	raw, err := s.tokens.Issue(*u)
	if err != nil {
		return nil, err
	}
	return &models.Token{
		AccessToken: raw,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
		User:        *u,
	}, nil
}

func (s *Service) Login(ctx context.Context, in models.LoginInput) (*models.Token, error) {
	u, err := db.GetUserByEmail(ctx, s.db, in.Email)
	if errors.Is(err, db.ErrNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "get user")
	}
	if !auth.CheckPassword(u.HashedPassword, in.Password) {
		return nil, errBadCredentials
	}
	if !u.IsActive {
		return nil, apperr.New(apperr.KindValidation, "inactive user")
	}
	return s.issue(ctx, u)
}

// CurrentUser: пользователь из токена; неактивный считается неавторизованным.
func (s *Service) CurrentUser(ctx context.Context, userID int64) (*models.User, error) {
	u, err := db.GetUserByID(ctx, s.db, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperr.Unauthorized("could not validate credentials")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "get user")
	}
	if !u.IsActive {
		return nil, apperr.Unauthorized("inactive user")
	}
	return u, nil
}

// OAuthLogin находит или заводит пользователя по внешнему аккаунту и выдаёт токен.
func (s *Service) OAuthLogin(ctx context.Context, provider models.AccountType, code string) (*models.Token, error) {
	p, ok := s.oauth[provider]
	if !ok || p == nil {
		if provider == models.AccountWeChat || provider == models.AccountDingTalk {
			return nil, apperr.Unavailable(string(provider) + " login is not configured")
		}
		return nil, apperr.NotFound("provider")
	}
	if strings.TrimSpace(code) == "" {
		return nil, apperr.Field("code", "code is required")
	}

	info, err := p.Exchange(ctx, code)
	if err != nil {
		s.log.For(ctx).Warn("oauth exchange failed", zap.String("provider", string(provider)), zap.Error(err))
		return nil, apperr.Upstream(string(provider)+" authorization failed", err)
	}
	if info.OpenID == "" {
		return nil, apperr.Upstream(string(provider)+" returned no openid", nil)
	}
	profile := db.ExternalProfile{
		Type:      provider,
		AccountID: info.OpenID,
		Name:      info.Nickname,
		AvatarURL: info.AvatarURL,
		ExtraData: info.ExtraJSON(),
	}

	acc, err := db.GetAccount(ctx, s.db, provider, info.OpenID)
	switch {
	case err == nil:
		if err := db.RefreshAccount(ctx, s.db, acc.ID, profile); err != nil {
			return nil, pkgerrors.Wrap(err, "refresh account")
		}
		u, err := s.CurrentUser(ctx, acc.UserID)
		if err != nil {
			return nil, err
		}
		return s.issue(ctx, u)
	case !errors.Is(err, db.ErrNotFound):
		return nil, pkgerrors.Wrap(err, "get account")
	}

	if err := s.registrationOpen(ctx); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(auth.RandomPassword())
	if err != nil {
		return nil, err
	}
	email := fmt.Sprintf("%s_%s@oauth.local", provider, info.OpenID)
	u, err := db.CreateExternalUser(ctx, s.db, email, hash, profile)
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, apperr.Conflict("account already linked")
		}
		return nil, pkgerrors.Wrap(err, "create oauth user")
	}
	s.log.For(ctx).Info("oauth user created", zap.Int64("user_id", u.ID), zap.String("provider", string(provider)))
	return s.issue(ctx, u)
}

func (s *Service) Accounts(ctx context.Context, userID int64) ([]models.UserAccount, error) {
	out, err := db.ListAccounts(ctx, s.db, userID)
	return out, pkgerrors.Wrap(err, "list accounts")
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	out, err := db.ListUsers(ctx, s.db)
	return out, pkgerrors.Wrap(err, "list users")
}

func (s *Service) Settings(ctx context.Context) (models.SystemSettings, error) {
	st, err := db.GetSettings(ctx, s.db)
	return st, pkgerrors.Wrap(err, "get settings")
}

func (s *Service) UpdateSettings(ctx context.Context, allowRegistration bool) (models.SystemSettings, error) {
	st, err := db.UpdateSettings(ctx, s.db, allowRegistration)
	if err != nil {
		return st, pkgerrors.Wrap(err, "update settings")
	}
	s.log.For(ctx).Info("settings updated", zap.Bool("allow_registration", allowRegistration))
	return st, nil
}

// PromoteAdmins выдаёт права администратора адресам из ADMIN_EMAILS.
func (s *Service) PromoteAdmins(ctx context.Context, emails []string) error {
	n, err := db.PromoteAdmins(ctx, s.db, emails)
	if err != nil {
		return pkgerrors.Wrap(err, "promote admins")
	}
	if n > 0 {
		s.log.For(ctx).Info("admins promoted", zap.Int64("count", n))
	}
	return nil
}
