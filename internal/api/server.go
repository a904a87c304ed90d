// Package api: HTTP-интерфейс на echo: маршруты /api/v1, ошибки, авторизация.
package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Spok95/family-score/internal/auth"
	"github.com/Spok95/family-score/internal/logging"
	"github.com/Spok95/family-score/internal/metrics"
	"github.com/Spok95/family-score/internal/oauth"
	"github.com/Spok95/family-score/internal/service"
	"github.com/Spok95/family-score/internal/voice"
)

const defaultServiceName = "family-score"

type userLimiter interface {
	Allow(userID int64) bool
}

// JSSDKSigner подписывает конфиг WeChat JS-SDK для страницы.
type JSSDKSigner interface {
	JSSDK(ctx context.Context, pageURL string) (*oauth.JSSDKConfig, error)
}

type Options struct {
	Service     *service.Service
	Log         *logging.Log
	Tokens      *auth.Tokens
	WeChat      JSSDKSigner
	Voice       *voice.Parser
	AILimiter   userLimiter
	CORSOrigins []string
	ServiceName string
	Debug       bool
}

type Server struct {
	opts Options
	app  *echo.Echo
	rv   *requestValidator
}

func NewServer(opts Options) *Server {
	if opts.Log == nil {
		opts.Log = logging.Nop()
	}
	if opts.ServiceName == "" {
		opts.ServiceName = defaultServiceName
	}
	s := &Server{opts: opts, app: echo.New(), rv: newValidator()}
	s.setup()
	return s
}

func (s *Server) setup() {
	e := s.app
	e.HideBanner = true
	e.HidePort = true
	e.Debug = s.opts.Debug
	e.Validator = s.rv
	e.HTTPErrorHandler = newHTTPErrorHandler(s.opts.Log, s.rv)

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(requestID())
	e.Use(requestLogger(s.opts.Log))
	e.Use(middleware.Recover())
	if len(s.opts.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     s.opts.CORSOrigins,
			AllowCredentials: true,
		}))
	}

	e.GET("/health", s.health)
	e.GET("/health/db", s.healthDB)
	e.GET("/health/ready", s.healthReady)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	v1 := e.Group("/api/v1")
	authed := []echo.MiddlewareFunc{jwtMiddleware(s.opts.Tokens), loadUser(s.opts.Service)}

	s.registerAuth(v1, authed)
	s.registerStudents(v1.Group("/students", authed...))
	s.registerProjects(v1.Group("/projects", authed...))
	s.registerTasks(v1.Group("/tasks", authed...))
	s.registerScores(v1.Group("/scores", authed...))
	s.registerMisc(v1, authed)
	s.registerAI(v1.Group("/ai", authed...))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}
