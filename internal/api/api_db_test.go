//go:build testutil

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/family-score/internal/app"
	"github.com/Spok95/family-score/internal/auth"
	"github.com/Spok95/family-score/internal/models"
	"github.com/Spok95/family-score/internal/service"
	"github.com/Spok95/family-score/internal/testutil/testdb"
	"github.com/Spok95/family-score/internal/voice"
)

type stubLLM struct{ content string }

func (s stubLLM) Complete(context.Context, string, string) (string, error) { return s.content, nil }

type apiEnv struct {
	t   *testing.T
	srv *Server
	svc *service.Service
}

func setup(t *testing.T) *apiEnv {
	t.Helper()
	h, err := testdb.Start(context.Background())
	require.NoError(t, err)
	t.Cleanup(h.Close)

	tokens := auth.NewTokens("test-secret", time.Hour)
	svc := service.New(service.Options{DB: h.DB, Tokens: tokens})
	parser := voice.NewParser(stubLLM{content: `{"action":"exchange_points","confidence":0.8,"data":{"reward_name":"Кино"}}`}, nil, nil)
	srv := NewServer(Options{
		Service:   svc,
		Tokens:    tokens,
		Voice:     parser,
		AILimiter: app.NewUserLimiter(1, 2),
	})
	return &apiEnv{t: t, srv: srv, svc: svc}
}

// do выполняет запрос и, если out != nil, разбирает JSON-ответ.
func (e *apiEnv) do(method, path, token string, body any, wantCode int, out any) *httptest.ResponseRecorder {
	e.t.Helper()
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		require.NoError(e.t, err)
	}
	req, rec := newAuthRequest(method, path, token, data)
	e.srv.ServeHTTP(rec, req)
	require.Equal(e.t, wantCode, rec.Code, rec.Body.String())
	if out != nil {
		require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func (e *apiEnv) login(email string) string {
	e.t.Helper()
	e.do(http.MethodPost, "/api/v1/auth/register", "", models.RegisterInput{Email: email, Password: "secret1"}, http.StatusOK, nil)
	var tok models.Token
	e.do(http.MethodPost, "/api/v1/auth/login", "", models.LoginInput{Email: email, Password: "secret1"}, http.StatusOK, &tok)
	require.NotEmpty(e.t, tok.AccessToken)
	return tok.AccessToken
}

func TestLedgerFlow(t *testing.T) {
	e := setup(t)
	token := e.login("mama@example.com")

	var me models.User
	e.do(http.MethodGet, "/api/v1/auth/me", token, nil, http.StatusOK, &me)
	assert.Equal(t, "mama@example.com", me.Email)

	var st models.Student
	e.do(http.MethodPost, "/api/v1/students", token, models.StudentInput{Name: "Маша"}, http.StatusCreated, &st)
	e.do(http.MethodPost, "/api/v1/students", token, models.StudentInput{Name: "Маша"}, http.StatusConflict, nil)

	var p1 models.Project
	e.do(http.MethodPost, "/api/v1/projects", token, models.ProjectInput{Level: models.Level1, Name: "Математика"}, http.StatusCreated, &p1)

	var task models.Task
	e.do(http.MethodPost, "/api/v1/tasks", token, map[string]any{
		"student_id":        st.ID,
		"project_level1_id": p1.ID,
		"status":            "completed",
		"rating":            "A",
		"reward_type":       "reward",
		"reward_points":     10,
	}, http.StatusCreated, &task)

	e.do(http.MethodPut, fmt.Sprintf("/api/v1/tasks/%d?student_id=%d", task.ID, st.ID), token,
		map[string]any{"status": "in_progress"}, http.StatusConflict, nil)

	var sum models.ScoreSummary
	e.do(http.MethodGet, fmt.Sprintf("/api/v1/scores/summary?student_id=%d", st.ID), token, nil, http.StatusOK, &sum)
	assert.Equal(t, 10, sum.AvailablePoints)

	var cheap, pricey models.RewardOption
	e.do(http.MethodPost, "/api/v1/scores/reward-options", token, models.RewardOptionInput{Name: "Кино", CostPoints: 7}, http.StatusCreated, &cheap)
	e.do(http.MethodPost, "/api/v1/scores/reward-options", token, models.RewardOptionInput{Name: "Велосипед", CostPoints: 100}, http.StatusCreated, &pricey)

	e.do(http.MethodPost, "/api/v1/scores/exchanges", token, exchangeRequest{StudentID: st.ID, RewardOptionID: pricey.ID}, http.StatusBadRequest, nil)
	var ex models.ScoreExchange
	e.do(http.MethodPost, "/api/v1/scores/exchanges", token, exchangeRequest{StudentID: st.ID, RewardOptionID: cheap.ID}, http.StatusCreated, &ex)
	assert.Equal(t, 7, ex.CostPoints)

	e.do(http.MethodGet, fmt.Sprintf("/api/v1/scores/summary?student_id=%d", st.ID), token, nil, http.StatusOK, &sum)
	assert.Equal(t, models.ScoreSummary{AvailablePoints: 3, ExchangedPoints: 7}, sum)

	var incs []models.ScoreIncrease
	e.do(http.MethodGet, fmt.Sprintf("/api/v1/scores/increases?student_id=%d", st.ID), token, nil, http.StatusOK, &incs)
	require.Len(t, incs, 1)
	assert.Equal(t, 10, incs[0].Points)

	rec := e.do(http.MethodGet, fmt.Sprintf("/api/v1/scores/export?student_id=%d", st.ID), token, nil, http.StatusOK, nil)
	assert.Equal(t, xlsxMIME, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.NotZero(t, rec.Body.Len())

	var conflict httpErr
	e.do(http.MethodDelete, fmt.Sprintf("/api/v1/projects/%d", p1.ID), token, nil, http.StatusConflict, &conflict)
	assert.Contains(t, conflict.Error, "referenced by 2 records")
	e.do(http.MethodDelete, fmt.Sprintf("/api/v1/scores/reward-options/%d", cheap.ID), token, nil, http.StatusConflict, nil)
	e.do(http.MethodDelete, fmt.Sprintf("/api/v1/scores/reward-options/%d", pricey.ID), token, nil, http.StatusNoContent, nil)

	var dash struct {
		Students []models.StudentDashboard `json:"students"`
	}
	e.do(http.MethodGet, "/api/v1/dashboard", token, nil, http.StatusOK, &dash)
	require.Len(t, dash.Students, 1)
	assert.Equal(t, 3, dash.Students[0].ScoreSummary.AvailablePoints)

	e.do(http.MethodDelete, fmt.Sprintf("/api/v1/students/%d", st.ID), token, nil, http.StatusNoContent, nil)
	var students []models.Student
	e.do(http.MethodGet, "/api/v1/students", token, nil, http.StatusOK, &students)
	assert.Empty(t, students)
}

func TestOwnershipAcrossParents(t *testing.T) {
	e := setup(t)
	mama := e.login("mama@example.com")
	papa := e.login("papa@example.com")

	var st models.Student
	e.do(http.MethodPost, "/api/v1/students", mama, models.StudentInput{Name: "Петя"}, http.StatusCreated, &st)

	e.do(http.MethodGet, fmt.Sprintf("/api/v1/scores/summary?student_id=%d", st.ID), papa, nil, http.StatusNotFound, nil)
	e.do(http.MethodPut, fmt.Sprintf("/api/v1/students/%d", st.ID), papa, models.StudentInput{Name: "Вася"}, http.StatusNotFound, nil)
	e.do(http.MethodDelete, fmt.Sprintf("/api/v1/students/%d", st.ID), papa, nil, http.StatusNotFound, nil)

	var list []models.Student
	e.do(http.MethodGet, "/api/v1/students", papa, nil, http.StatusOK, &list)
	assert.Empty(t, list)
}

func TestAdminRoutes(t *testing.T) {
	e := setup(t)
	token := e.login("admin@example.com")

	e.do(http.MethodGet, "/api/v1/admin/settings", token, nil, http.StatusForbidden, nil)

	require.NoError(t, e.svc.PromoteAdmins(context.Background(), []string{"admin@example.com"}))

	var st models.SystemSettings
	e.do(http.MethodGet, "/api/v1/admin/settings", token, nil, http.StatusOK, &st)
	assert.True(t, st.AllowRegistration)

	e.do(http.MethodPut, "/api/v1/admin/settings", token, map[string]any{"allow_registration": false}, http.StatusOK, &st)
	assert.False(t, st.AllowRegistration)

	e.do(http.MethodPost, "/api/v1/auth/register", "", models.RegisterInput{Email: "late@example.com", Password: "secret1"}, http.StatusForbidden, nil)

	var users []models.User
	e.do(http.MethodGet, "/api/v1/users", token, nil, http.StatusOK, &users)
	assert.Len(t, users, 1)
}

func TestVoiceEndpoints(t *testing.T) {
	e := setup(t)
	token := e.login("mama@example.com")

	var opt models.RewardOption
	e.do(http.MethodPost, "/api/v1/scores/reward-options", token, models.RewardOptionInput{Name: "Кино", CostPoints: 7}, http.StatusCreated, &opt)

	var res voice.Result
	e.do(http.MethodPost, "/api/v1/ai/parse-voice-command", token, voiceCommandRequest{Text: "обменять на кино"}, http.StatusOK, &res)
	require.True(t, res.Success)
	assert.Equal(t, voice.ActionExchange, res.Intent.Action)
	assert.Equal(t, float64(opt.ID), res.Intent.Data["reward_option_id"])

	var opts voice.Options
	e.do(http.MethodGet, "/api/v1/ai/available-options", token, nil, http.StatusOK, &opts)
	require.Len(t, opts.RewardOptions, 1)

	e.do(http.MethodPost, "/api/v1/ai/parse-voice-command", token, voiceCommandRequest{Text: "ещё раз"}, http.StatusOK, nil)
	e.do(http.MethodPost, "/api/v1/ai/parse-voice-command", token, voiceCommandRequest{Text: "и ещё"}, http.StatusTooManyRequests, nil)
}
