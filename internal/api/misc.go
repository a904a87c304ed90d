package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Spok95/family-score/internal/models"
)

type settingsRequest struct {
	AllowRegistration *bool `json:"allow_registration" validate:"required"`
}

type enumOption struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

type enumsResponse struct {
	TaskStatus     []enumOption `json:"task_status"`
	TaskRating     []enumOption `json:"task_rating"`
	RewardType     []enumOption `json:"reward_type"`
	RewardPoints   []enumOption `json:"reward_points"`
	Gender         []enumOption `json:"gender"`
	EducationStage []enumOption `json:"education_stage"`
	ProjectLevel   []enumOption `json:"project_level"`
}

func (s *Server) registerMisc(g *echo.Group, authed []echo.MiddlewareFunc) {
	g.GET("/dashboard", s.dashboard, authed...)
	g.GET("/enums/enums", s.enums)

	admin := g.Group("/admin", append(authed, adminMiddleware())...)
	admin.GET("/settings", s.getSettings)
	admin.PUT("/settings", s.updateSettings)
}

func (s *Server) dashboard(c echo.Context) error {
	u, err := contextUser(c)
	if err != nil {
		return err
	}
	out, err := s.opts.Service.Dashboard(c.Request().Context(), u.ID)
	if err != nil {
		return errors.Wrap(err, "building dashboard")
	}
	return c.JSON(http.StatusOK, echo.Map{"students": nonNil(out)})
}

func (s *Server) getSettings(c echo.Context) error {
	st, err := s.opts.Service.Settings(c.Request().Context())
	if err != nil {
		return errors.Wrap(err, "reading settings")
	}
	return c.JSON(http.StatusOK, st)
}

func (s *Server) updateSettings(c echo.Context) error {
	var in settingsRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	st, err := s.opts.Service.UpdateSettings(c.Request().Context(), *in.AllowRegistration)
	if err != nil {
		return errors.Wrap(err, "updating settings")
	}
	return c.JSON(http.StatusOK, st)
}

func options[T ~string](kind string, values []T) []enumOption {
	out := make([]enumOption, 0, len(values))
	for _, v := range values {
		out = append(out, enumOption{Label: models.Label(kind, string(v)), Value: string(v)})
	}
	return out
}

func (s *Server) enums(c echo.Context) error {
	points := make([]enumOption, 0, len(models.RewardPointPresets))
	for _, p := range models.RewardPointPresets {
		points = append(points, enumOption{Label: strconv.Itoa(p) + " балл.", Value: p})
	}
	levels := []enumOption{
		{Label: models.Label("project_level", "1"), Value: int(models.Level1)},
		{Label: models.Label("project_level", "2"), Value: int(models.Level2)},
	}
	return c.JSON(http.StatusOK, enumsResponse{
		TaskStatus:     options("task_status", models.TaskStatuses),
		TaskRating:     options("task_rating", models.Ratings),
		RewardType:     options("reward_type", models.RewardTypes),
		RewardPoints:   points,
		Gender:         options("gender", models.Genders),
		EducationStage: options("education_stage", models.Stages),
		ProjectLevel:   levels,
	})
}
