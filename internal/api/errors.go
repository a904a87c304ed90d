package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Spok95/family-score/internal/apperr"
	"github.com/Spok95/family-score/internal/logging"
	"github.com/Spok95/family-score/internal/metrics"
	"github.com/Spok95/family-score/internal/observability"
)

const msgValidationFailed = "validation failed"

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// newHTTPErrorHandler превращает ошибки хендлеров в JSON; 5xx пишутся в лог и Sentry.
func newHTTPErrorHandler(log *logging.Log, rv *requestValidator) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code, body := classify(err, rv)

		if code >= http.StatusInternalServerError {
			ctx := c.Request().Context()
			metrics.HandlerErrors.Inc()
			log.For(ctx).Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", code),
				zap.Error(err),
			)
			if code == http.StatusInternalServerError {
				observability.CaptureErrCtx(ctx, err)
			}
		}

		if c.Response().Committed {
			return
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			log.For(c.Request().Context()).Warn("write error response", zap.Error(err))
		}
	}
}

func classify(err error, rv *requestValidator) (int, errorBody) {
	var (
		ae   *apperr.Error
		verr validator.ValidationErrors
		he   *echo.HTTPError
	)
	switch {
	case errors.As(err, &ae):
		body := errorBody{Error: ae.Message}
		if len(ae.Fields) > 0 {
			body.Error = msgValidationFailed
			body.Fields = make(map[string]string, len(ae.Fields))
			for _, f := range ae.Fields {
				body.Fields[f.Field] = f.Error
			}
		}
		if ae.Kind == apperr.KindInternal {
			body.Error = http.StatusText(http.StatusInternalServerError)
		}
		return ae.Kind.Status(), body
	case errors.As(err, &verr):
		return http.StatusBadRequest, errorBody{Error: msgValidationFailed, Fields: rv.fields(verr)}
	case errors.As(err, &he):
		if inner, ok := he.Internal.(*echo.HTTPError); ok {
			he = inner
		}
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		return he.Code, errorBody{Error: msg}
	default:
		return http.StatusInternalServerError, errorBody{Error: http.StatusText(http.StatusInternalServerError)}
	}
}
