package api

import (
	"time"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Spok95/family-score/internal/apperr"
	"github.com/Spok95/family-score/internal/auth"
	"github.com/Spok95/family-score/internal/ctxutil"
	"github.com/Spok95/family-score/internal/logging"
	"github.com/Spok95/family-score/internal/metrics"
	"github.com/Spok95/family-score/internal/models"
	"github.com/Spok95/family-score/internal/service"
)

const (
	contextClaimsKey = "claims"
	contextUserKey   = "user"
)

var (
	errNotAuthenticated = apperr.Unauthorized("not authenticated")
	errForbidden        = apperr.Forbidden("permission denied")
)

// requestID берёт X-Request-ID клиента или выдаёт новый и кладёт его в контекст запроса.
func requestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			c.SetRequest(c.Request().WithContext(ctxutil.WithRequestID(c.Request().Context(), id)))
			return next(c)
		}
	}
}

// requestLogger пишет строку на запрос и обновляет HTTP-метрики.
func requestLogger(log *logging.Log) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			req := c.Request()
			c.SetRequest(req.WithContext(ctxutil.WithOp(req.Context(), req.Method+" "+route)))

			err := next(c)
			if err != nil {
				c.Error(err)
			}
			d := time.Since(start)
			status := c.Response().Status
			metrics.ObserveHTTP(c.Request().Method, route, status, d)
			log.For(c.Request().Context()).Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", status),
				zap.Duration("duration", d),
			)
			return nil
		}
	}
}

// jwtMiddleware проверяет bearer-токен и кладёт claims в echo.Context.
func jwtMiddleware(tokens *auth.Tokens) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: contextClaimsKey,
		ParseTokenFunc: func(_ echo.Context, raw string) (interface{}, error) {
			return tokens.Parse(raw)
		},
		ErrorHandler: func(_ echo.Context, _ error) error {
			return errNotAuthenticated
		},
	})
}

// loadUser подгружает пользователя из токена; неактивный получает 401.
func loadUser(svc *service.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(contextClaimsKey).(*auth.Claims)
			if !ok {
				return errNotAuthenticated
			}
			id, err := claims.UserID()
			if err != nil {
				return errNotAuthenticated
			}
			ctx := ctxutil.WithUserID(c.Request().Context(), id)
			u, err := svc.CurrentUser(ctx, id)
			if err != nil {
				return err
			}
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set(contextUserKey, u)
			return next(c)
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, err := contextUser(c)
			if err != nil {
				return err
			}
			if !u.IsAdmin {
				return errForbidden
			}
			return next(c)
		}
	}
}

// aiRateLimit: не больше заданного числа обращений к модели в минуту на пользователя.
func aiRateLimit(l userLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, err := contextUser(c)
			if err != nil {
				return err
			}
			if l != nil && !l.Allow(u.ID) {
				return apperr.New(apperr.KindTooManyRequests, "too many AI requests, try again later")
			}
			return next(c)
		}
	}
}

func contextUser(c echo.Context) (*models.User, error) {
	if u, ok := c.Get(contextUserKey).(*models.User); ok {
		return u, nil
	}
	return nil, errors.WithStack(errNotAuthenticated)
}
