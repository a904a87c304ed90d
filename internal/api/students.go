package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Spok95/family-score/internal/models"
)

func (s *Server) registerStudents(g *echo.Group) {
	g.GET("", s.listStudents)
	g.POST("", s.createStudent)
	g.PUT("/:id", s.updateStudent)
	g.DELETE("/:id", s.deleteStudent)
}

func (s *Server) listStudents(c echo.Context) error {
	u, err := contextUser(c)
	if err != nil {
		return err
	}
	out, err := s.opts.Service.ListStudents(c.Request().Context(), u.ID)
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	return c.JSON(http.StatusOK, nonNil(out))
}

func (s *Server) createStudent(c echo.Context) error {
	u, err := contextUser(c)
	if err != nil {
		return err
	}
	var in models.StudentInput
	if err := bind(c, &in); err != nil {
		return err
	}
	st, err := s.opts.Service.CreateStudent(c.Request().Context(), u.ID, in)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return c.JSON(http.StatusCreated, st)
}

func (s *Server) updateStudent(c echo.Context) error {
	u, err := contextUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var in models.StudentInput
	if err := bind(c, &in); err != nil {
		return err
	}
	st, err := s.opts.Service.UpdateStudent(c.Request().Context(), u.ID, id, in)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return c.JSON(http.StatusOK, st)
}

func (s *Server) deleteStudent(c echo.Context) error {
	u, err := contextUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.opts.Service.DeleteStudent(c.Request().Context(), u.ID, id); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return c.NoContent(http.StatusNoContent)
}
