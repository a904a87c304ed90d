package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Spok95/family-score/internal/apperr"
	"github.com/Spok95/family-score/internal/models"
)

type oauthRequest struct {
	Code string `json:"code" validate:"required"`
}

func (s *Server) registerAuth(g *echo.Group, authed []echo.MiddlewareFunc) {
	ag := g.Group("/auth")
	ag.POST("/register", s.register)
	ag.POST("/login", s.login)
	ag.POST("/oauth/:provider", s.oauthLogin)

	me := ag.Group("", authed...)
	me.GET("/me", s.me)
	me.GET("/accounts", s.accounts)
	me.GET("/wechat/jssdk", s.wechatJSSDK)

	g.GET("/users", s.listUsers, append(authed, adminMiddleware())...)
}

func (s *Server) register(c echo.Context) error {
	var in models.RegisterInput
	if err := bind(c, &in); err != nil {
		return err
	}
	u, err := s.opts.Service.Register(c.Request().Context(), in)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	return c.JSON(http.StatusOK, u)
}

func (s *Server) login(c echo.Context) error {
	var in models.LoginInput
	if err := bind(c, &in); err != nil {
		return err
	}
	tok, err := s.opts.Service.Login(c.Request().Context(), in)
	if err != nil {
		return errors.Wrap(err, "login")
	}
	return c.JSON(http.StatusOK, tok)
}

func (s *Server) oauthLogin(c echo.Context) error {
	provider := models.AccountType(c.Param("provider"))
	if provider != models.AccountWeChat && provider != models.AccountDingTalk {
		return apperr.NotFound("oauth provider")
	}
	var in oauthRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	tok, err := s.opts.Service.OAuthLogin(c.Request().Context(), provider, in.Code)
	if err != nil {
		return errors.Wrapf(err, "oauth login via %s", provider)
	}
	return c.JSON(http.StatusOK, tok)
}

func (s *Server) me(c echo.Context) error {
	u, err := contextUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (s *Server) accounts(c echo.Context) error {
	u, err := contextUser(c)
	if err != nil {
		return err
	}
	out, err := s.opts.Service.Accounts(c.Request().Context(), u.ID)
	if err != nil {
		return errors.Wrap(err, "listing accounts")
	}
	return c.JSON(http.StatusOK, nonNil(out))
}

func (s *Server) wechatJSSDK(c echo.Context) error {
	if s.opts.WeChat == nil {
		return apperr.Unavailable("wechat is not configured")
	}
	pageURL := c.QueryParam("url")
	if pageURL == "" {
		return apperr.Field("url", "url is required")
	}
	cfg, err := s.opts.WeChat.JSSDK(c.Request().Context(), pageURL)
	if err != nil {
		return apperr.Upstream("wechat js-sdk signature failed", err)
	}
	return c.JSON(http.StatusOK, cfg)
}

func (s *Server) listUsers(c echo.Context) error {
	out, err := s.opts.Service.ListUsers(c.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing users")
	}
	return c.JSON(http.StatusOK, nonNil(out))
}

// nonNil: пустой список сериализуется как [], а не null.
func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
