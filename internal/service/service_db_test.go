//go:build testutil

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/family-score/internal/apperr"
	"github.com/Spok95/family-score/internal/auth"
	"github.com/Spok95/family-score/internal/models"
	"github.com/Spok95/family-score/internal/oauth"
	"github.com/Spok95/family-score/internal/testutil/testdb"
)

type fakeProvider struct {
	info *oauth.UserInfo
	err  error
}

func (f fakeProvider) Exchange(context.Context, string) (*oauth.UserInfo, error) { return f.info, f.err }

func newTestService(t *testing.T) *Service {
	t.Helper()
	h, err := testdb.Start(context.Background())
	require.NoError(t, err)
	t.Cleanup(h.Close)
	return New(Options{
		DB:     h.DB,
		Tokens: auth.NewTokens("test", time.Hour),
		OAuth: map[models.AccountType]OAuthProvider{
			models.AccountWeChat: fakeProvider{info: &oauth.UserInfo{OpenID: "wx-1", Nickname: "Папа"}},
		},
	})
}

func mustRegister(t *testing.T, s *Service, email string) int64 {
	t.Helper()
	u, err := s.Register(context.Background(), models.RegisterInput{Email: email, Password: "secret1"})
	require.NoError(t, err)
	return u.ID
}

func kindOf(err error) apperr.Kind { return apperr.KindOf(err) }

func TestRegisterLogin(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	mustRegister(t, s, "Parent@Example.com")

	_, err := s.Register(ctx, models.RegisterInput{Email: "parent@example.com", Password: "secret1"})
	assert.Equal(t, apperr.KindValidation, kindOf(err))

	tok, err := s.Login(ctx, models.LoginInput{Email: "parent@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, tok.AccessToken)
	assert.Equal(t, "bearer", tok.TokenType)

	_, err = s.Login(ctx, models.LoginInput{Email: "parent@example.com", Password: "wrong"})
	assert.Equal(t, apperr.KindValidation, kindOf(err))

	_, err = s.UpdateSettings(ctx, false)
	require.NoError(t, err)
	_, err = s.Register(ctx, models.RegisterInput{Email: "late@example.com", Password: "secret1"})
	assert.Equal(t, apperr.KindForbidden, kindOf(err))
}

func TestOAuthLogin_CreatesThenReuses(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	first, err := s.OAuthLogin(ctx, models.AccountWeChat, "code")
	require.NoError(t, err)
	assert.Equal(t, "wechat_wx-1@oauth.local", first.User.Email)

	second, err := s.OAuthLogin(ctx, models.AccountWeChat, "code")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)

	accs, err := s.Accounts(ctx, first.User.ID)
	require.NoError(t, err)
	require.Len(t, accs, 1)
	assert.Equal(t, "Папа", *accs[0].AccountName)

	_, err = s.OAuthLogin(ctx, models.AccountDingTalk, "code")
	assert.Equal(t, apperr.KindUnavailable, kindOf(err))
}

func TestCreateTask_Ownership(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	owner := mustRegister(t, s, "a@example.com")
	other := mustRegister(t, s, "b@example.com")

	st, err := s.CreateStudent(ctx, owner, models.StudentInput{Name: "  Ваня  "})
	require.NoError(t, err)
	assert.Equal(t, "Ваня", st.Name)

	_, err = s.CreateStudent(ctx, owner, models.StudentInput{Name: "Ваня"})
	assert.Equal(t, apperr.KindConflict, kindOf(err))

	mine, err := s.CreateProject(ctx, owner, models.ProjectInput{Level: models.Level1, Name: "Дом"})
	require.NoError(t, err)
	foreign, err := s.CreateProject(ctx, other, models.ProjectInput{Level: models.Level1, Name: "Чужой"})
	require.NoError(t, err)
	foreignChild, err := s.CreateProject(ctx, other, models.ProjectInput{Level: models.Level2, Name: "Чужой-2", ParentID: &foreign.ID})
	require.NoError(t, err)
	otherMine, err := s.CreateProject(ctx, owner, models.ProjectInput{Level: models.Level1, Name: "Спорт"})
	require.NoError(t, err)
	child, err := s.CreateProject(ctx, owner, models.ProjectInput{Level: models.Level2, Name: "Бег", ParentID: &otherMine.ID})
	require.NoError(t, err)

	base := models.TaskInput{StudentID: st.ID, Status: models.TaskNotStarted, RewardType: models.RewardNone}

	in := base
	in.ProjectLevel1ID = foreign.ID
	_, err = s.CreateTask(ctx, owner, in)
	assert.Equal(t, apperr.KindNotFound, kindOf(err))

	in = base
	in.ProjectLevel1ID = mine.ID
	in.ProjectLevel2ID = &foreignChild.ID
	_, err = s.CreateTask(ctx, owner, in)
	assert.Equal(t, apperr.KindNotFound, kindOf(err))

	in.ProjectLevel2ID = &child.ID
	_, err = s.CreateTask(ctx, owner, in)
	assert.Equal(t, apperr.KindValidation, kindOf(err))

	in.ProjectLevel2ID = nil
	_, err = s.CreateTask(ctx, other, in)
	assert.Equal(t, apperr.KindNotFound, kindOf(err))

	task, err := s.CreateTask(ctx, owner, in)
	require.NoError(t, err)

	_, err = s.UpdateTask(ctx, owner, st.ID, task.ID, models.TaskPatch{Status: ptr(models.TaskCompleted)})
	assert.Equal(t, apperr.KindValidation, kindOf(err), "выполненная задача требует оценку")

	done, err := s.UpdateTask(ctx, owner, st.ID, task.ID, models.TaskPatch{
		Status: ptr(models.TaskCompleted), Rating: ptr(models.RatingA),
	})
	require.NoError(t, err)
	assert.Equal(t, models.TaskCompleted, done.Status)

	_, err = s.UpdateTask(ctx, owner, st.ID, task.ID, models.TaskPatch{Rating: ptr(models.RatingB)})
	assert.Equal(t, apperr.KindConflict, kindOf(err))
}

func TestUpdateTask_SwitchRewardType(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	uid := mustRegister(t, s, "switch@example.com")
	st, err := s.CreateStudent(ctx, uid, models.StudentInput{Name: "Оля"})
	require.NoError(t, err)
	home, err := s.CreateProject(ctx, uid, models.ProjectInput{Level: models.Level1, Name: "Дом"})
	require.NoError(t, err)
	room, err := s.CreateProject(ctx, uid, models.ProjectInput{Level: models.Level2, Name: "Комната", ParentID: &home.ID})
	require.NoError(t, err)
	opt, err := s.CreatePunishmentOption(ctx, uid, models.PunishmentOptionInput{Name: "Без планшета"})
	require.NoError(t, err)

	task, err := s.CreateTask(ctx, uid, models.TaskInput{
		StudentID: st.ID, ProjectLevel1ID: home.ID, ProjectLevel2ID: &room.ID,
		Status: models.TaskInProgress, RewardType: models.RewardPoints, RewardPoints: ptr(10),
	})
	require.NoError(t, err)

	// reward → none
	got, err := s.UpdateTask(ctx, uid, st.ID, task.ID, models.TaskPatch{
		RewardType: ptr(models.RewardNone), ClearRewardPoints: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RewardNone, got.RewardType)
	assert.Nil(t, got.RewardPoints)

	// none → punish, подпроект снят
	got, err = s.UpdateTask(ctx, uid, st.ID, task.ID, models.TaskPatch{
		RewardType: ptr(models.RewardPunish), PunishmentOptionID: &opt.ID, ClearProjectLevel2ID: true,
	})
	require.NoError(t, err)
	require.NotNil(t, got.PunishmentOptionID)
	assert.Nil(t, got.ProjectLevel2ID)

	// punish → reward
	got, err = s.UpdateTask(ctx, uid, st.ID, task.ID, models.TaskPatch{
		RewardType: ptr(models.RewardPoints), RewardPoints: ptr(3), ClearPunishmentOptionID: true,
	})
	require.NoError(t, err)
	assert.Nil(t, got.PunishmentOptionID)
	require.NotNil(t, got.RewardPoints)
	assert.Equal(t, 3, *got.RewardPoints)

	// без очистки переход отклоняется
	_, err = s.UpdateTask(ctx, uid, st.ID, task.ID, models.TaskPatch{RewardType: ptr(models.RewardNone)})
	assert.Equal(t, apperr.KindValidation, kindOf(err))
}

func TestExchange_Insufficient(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	uid := mustRegister(t, s, "a@example.com")
	st, err := s.CreateStudent(ctx, uid, models.StudentInput{Name: "Оля"})
	require.NoError(t, err)
	opt, err := s.CreateRewardOption(ctx, uid, models.RewardOptionInput{Name: "Кино", CostPoints: 5})
	require.NoError(t, err)

	_, err = s.CreateExchange(ctx, uid, st.ID, opt.ID)
	assert.Equal(t, apperr.KindInsufficientPoints, kindOf(err))

	data, name, err := s.ExportLedger(ctx, uid, st.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Contains(t, name, "Оля")
}
