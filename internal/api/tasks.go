package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Spok95/family-score/internal/apperr"
	"github.com/Spok95/family-score/internal/models"
)

func (s *Server) registerTasks(g *echo.Group) {
	g.GET("", s.listTasks)
	g.POST("", s.createTask)
	g.PUT("/:id", s.updateTask)
}

// taskFilter собирает фильтр из строки запроса; completed_after отменяет фильтр по статусу.
func (s *Server) taskFilter(c echo.Context) (models.TaskFilter, error) {
	var (
		f   models.TaskFilter
		err error
	)
	if f.ProjectLevel1ID, err = optionalID(c, "project_level1_id"); err != nil {
		return f, err
	}
	if f.ProjectLevel2ID, err = optionalID(c, "project_level2_id"); err != nil {
		return f, err
	}
	if f.IncludeAllStatus, err = queryBool(c, "include_all_status"); err != nil {
		return f, err
	}
	if f.CompletedAfter, err = queryTime(c, "completed_after", s.opts.Service.Location()); err != nil {
		return f, err
	}
	for _, raw := range splitList(c.QueryParam("status")) {
		st := models.TaskStatus(raw)
		if !st.Valid() {
			return f, apperr.Field("status", "unknown task status "+raw)
		}
		f.Statuses = append(f.Statuses, st)
	}
	return f, nil
}

func (s *Server) listTasks(c echo.Context) error {
	u, err := contextUser(c)
	if err != nil {
		return err
	}
	studentID, err := queryID(c, "student_id")
	if err != nil {
		return err
	}
	f, err := s.taskFilter(c)
	if err != nil {
		return err
	}
	out, err := s.opts.Service.ListTasks(c.Request().Context(), u.ID, studentID, f)
	if err != nil {
		return errors.Wrap(err, "listing tasks")
	}
	return c.JSON(http.StatusOK, nonNil(out))
}

func (s *Server) createTask(c echo.Context) error {
	u, err := contextUser(c)
	if err != nil {
		return err
	}
	var in models.TaskInput
	if err := bind(c, &in); err != nil {
		return err
	}
	t, err := s.opts.Service.CreateTask(c.Request().Context(), u.ID, in)
	if err != nil {
		return errors.Wrap(err, "creating task")
	}
	return c.JSON(http.StatusCreated, t)
}

func (s *Server) updateTask(c echo.Context) error {
	u, err := contextUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	studentID, err := queryID(c, "student_id")
	if err != nil {
		return err
	}
	var patch models.TaskPatch
	if err := bind(c, &patch); err != nil {
		return err
	}
	t, err := s.opts.Service.UpdateTask(c.Request().Context(), u.ID, studentID, id, patch)
	if err != nil {
		return errors.Wrap(err, "updating task")
	}
	return c.JSON(http.StatusOK, t)
}
