package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Spok95/family-score/internal/apperr"
	"github.com/Spok95/family-score/internal/models"
)

func (s *Server) registerProjects(g *echo.Group) {
	g.GET("", s.listProjects)
	g.POST("", s.createProject)
	g.PUT("/:id", s.updateProject)
	g.DELETE("/:id", s.deleteProject)
}

func (s *Server) listProjects(c echo.Context) error {
	u, err := contextUser(c)
	if err != nil {
		return err
	}
	var level *models.ProjectLevel
	if raw := c.QueryParam("level"); raw != "" {
		n, err := queryInt(c, "level", 0)
		if err != nil {
			return err
		}
		l := models.ProjectLevel(n)
		if l != models.Level1 && l != models.Level2 {
			return apperr.Field("level", "level must be 1 or 2")
		}
		level = &l
	}
	parentID, err := optionalID(c, "parent_id")
	if err != nil {
		return err
	}
	out, err := s.opts.Service.ListProjects(c.Request().Context(), u.ID, level, parentID)
	if err != nil {
		return errors.Wrap(err, "listing projects")
	}
	return c.JSON(http.StatusOK, nonNil(out))
}

func (s *Server) createProject(c echo.Context) error {
	u, err := contextUser(c)
	if err != nil {
		return err
	}
	var in models.ProjectInput
	if err := bind(c, &in); err != nil {
		return err
	}
	p, err := s.opts.Service.CreateProject(c.Request().Context(), u.ID, in)
	if err != nil {
		return errors.Wrap(err, "creating project")
	}
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) updateProject(c echo.Context) error {
	u, err := contextUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var patch models.ProjectPatch
	if err := bind(c, &patch); err != nil {
		return err
	}
	p, err := s.opts.Service.UpdateProject(c.Request().Context(), u.ID, id, patch)
	if err != nil {
		return errors.Wrap(err, "updating project")
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) deleteProject(c echo.Context) error {
	u, err := contextUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.opts.Service.DeleteProject(c.Request().Context(), u.ID, id); err != nil {
		return errors.Wrap(err, "deleting project")
	}
	return c.NoContent(http.StatusNoContent)
}
