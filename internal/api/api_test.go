package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Spok95/family-score/internal/apperr"
	"github.com/Spok95/family-score/internal/auth"
	"github.com/Spok95/family-score/internal/logging"
	"github.com/Spok95/family-score/internal/models"
	"github.com/Spok95/family-score/internal/service"
)

type httpErr struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// newOfflineServer собирает сервер без базы. Годится для публичных ручек и отказов до похода в БД.
func newOfflineServer() *Server {
	tokens := auth.NewTokens("test-secret", time.Hour)
	return NewServer(Options{
		Service: service.New(service.Options{Tokens: tokens}),
		Tokens:  tokens,
	})
}

func decodeErr(t *testing.T, rec *httptest.ResponseRecorder) httpErr {
	t.Helper()
	var out httpErr
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	srv := newOfflineServer()
	req, rec := newRequest(http.MethodGet, "/health")
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"family-score"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestRequestLogCarriesRoute(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)
	tokens := auth.NewTokens("test-secret", time.Hour)
	srv := NewServer(Options{
		Service: service.New(service.Options{Tokens: tokens}),
		Tokens:  tokens,
		Log:     &logging.Log{Base: base, Sugar: base.Sugar(), Level: zap.NewAtomicLevel(), Closer: func() {}},
	})

	req, rec := newRequest(http.MethodGet, "/health")
	req.Header.Set(echo.HeaderXRequestID, "req-7")
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET /health", fields["op"])
	assert.Equal(t, "req-7", fields["request_id"])
}

func TestRequestIDPassthrough(t *testing.T) {
	srv := newOfflineServer()
	req, rec := newRequest(http.MethodGet, "/health")
	req.Header.Set(echo.HeaderXRequestID, "req-42")
	srv.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(echo.HeaderXRequestID))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newOfflineServer()
	req, rec := newRequest(http.MethodGet, "/metrics")
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEnumsPublic(t *testing.T) {
	srv := newOfflineServer()
	req, rec := newRequest(http.MethodGet, "/api/v1/enums/enums")
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out enumsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out.TaskStatus, len(models.TaskStatuses))
	assert.Len(t, out.TaskRating, len(models.Ratings))
	assert.Len(t, out.RewardPoints, len(models.RewardPointPresets))
	assert.Equal(t, float64(1), out.RewardPoints[0].Value)
	assert.Equal(t, "Выполнена", out.TaskStatus[2].Label)
	require.Len(t, out.ProjectLevel, 2)
	assert.Equal(t, float64(2), out.ProjectLevel[1].Value)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newOfflineServer()
	paths := []string{
		"/api/v1/auth/me",
		"/api/v1/students",
		"/api/v1/projects",
		"/api/v1/tasks?student_id=1",
		"/api/v1/scores/summary?student_id=1",
		"/api/v1/dashboard",
		"/api/v1/admin/settings",
		"/api/v1/users",
		"/api/v1/ai/available-options",
	}
	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, p)
			srv.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "not authenticated", decodeErr(t, rec).Error)
		})
	}
}

func TestForgedTokenRejected(t *testing.T) {
	srv := newOfflineServer()
	other := auth.NewTokens("other-secret", time.Hour)
	token, err := other.Issue(models.User{ID: 1})
	require.NoError(t, err)

	req, rec := newAuthRequest(http.MethodGet, "/api/v1/students", token)
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	srv := newOfflineServer()
	req, rec := newRequest(http.MethodPost, "/api/v1/auth/register", []byte(`{"email":"nope","password":"123"}`))
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErr(t, rec)
	assert.Equal(t, msgValidationFailed, body.Error)
	assert.Contains(t, body.Fields, "email")
	assert.Contains(t, body.Fields, "password")
}

func TestMalformedBody(t *testing.T) {
	srv := newOfflineServer()
	req, rec := newRequest(http.MethodPost, "/api/v1/auth/login", []byte(`{"email":`))
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", decodeErr(t, rec).Error)
}

func TestUnknownOAuthProvider(t *testing.T) {
	srv := newOfflineServer()
	req, rec := newRequest(http.MethodPost, "/api/v1/auth/oauth/github", []byte(`{"code":"x"}`))
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	srv := newOfflineServer()
	req, rec := newRequest(http.MethodGet, "/api/v1/nope")
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, decodeErr(t, rec).Error)
}

func TestClassify(t *testing.T) {
	rv := newValidator()

	code, body := classify(pkgerrors.Wrap(apperr.NotFound("student"), "updating"), rv)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "student not found", body.Error)

	code, body = classify(apperr.Field("project_level2_id", "project is not a child of the level-1 project"), rv)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, msgValidationFailed, body.Error)
	assert.Equal(t, "project is not a child of the level-1 project", body.Fields["project_level2_id"])

	code, body = classify(apperr.Conflict("task cannot be modified"), rv)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "task cannot be modified", body.Error)

	code, body = classify(errors.New("pq: connection refused"), rv)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), body.Error)

	code, _ = classify(echo.NewHTTPError(http.StatusMethodNotAllowed, "method not allowed"), rv)
	assert.Equal(t, http.StatusMethodNotAllowed, code)
}

func TestClassifyValidator(t *testing.T) {
	rv := newValidator()
	err := rv.Validate(&models.TaskInput{})
	var verr validator.ValidationErrors
	require.ErrorAs(t, err, &verr)

	code, body := classify(err, rv)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body.Fields, "student_id")
	assert.Contains(t, body.Fields, "project_level1_id")
	assert.Contains(t, body.Fields, "status")
}

func TestQueryTime(t *testing.T) {
	e := echo.New()
	loc := time.FixedZone("CST", 8*3600)

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?completed_after=2025-03-01", nil), httptest.NewRecorder())
	got, err := queryTime(c, "completed_after", loc)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, loc)))

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/?completed_after=2025-03-01T10:00:00Z", nil), httptest.NewRecorder())
	got, err = queryTime(c, "completed_after", loc)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)))

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/?completed_after=yesterday", nil), httptest.NewRecorder())
	_, err = queryTime(c, "completed_after", loc)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
