package api

import (
	"bytes"
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Spok95/family-score/internal/models"
	"github.com/Spok95/family-score/internal/service"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type exchangeRequest struct {
	StudentID      int64 `json:"student_id" validate:"required,gt=0"`
	RewardOptionID int64 `json:"reward_option_id" validate:"required,gt=0"`
}

func (s *Server) registerScores(g *echo.Group) {
	g.GET("/summary", s.scoreSummary)
	g.GET("/increases", s.listIncreases)
	g.GET("/exchanges", s.listExchanges)
	g.POST("/exchanges", s.createExchange)
	g.GET("/export", s.exportLedger)

	g.GET("/reward-options", s.listRewardOptions)
	g.POST("/reward-options", s.createRewardOption)
	g.PUT("/reward-options/:id", s.updateRewardOption)
	g.DELETE("/reward-options/:id", s.deleteRewardOption)

	g.GET("/punishment-options", s.listPunishmentOptions)
	g.POST("/punishment-options", s.createPunishmentOption)
	g.PUT("/punishment-options/:id", s.updatePunishmentOption)
	g.DELETE("/punishment-options/:id", s.deletePunishmentOption)
}

func (s *Server) scoreSummary(c echo.Context) error {
	u, err := contextUser(c)
	if err != nil {
		return err
	}
	studentID, err := queryID(c, "student_id")
	if err != nil {
		return err
	}
	sum, err := s.opts.Service.ScoreSummary(c.Request().Context(), u.ID, studentID)
	if err != nil {
		return errors.Wrap(err, "score summary")
	}
	return c.JSON(http.StatusOK, sum)
}

// ledgerQuery: student_id и limit, общий для списков начислений и обменов.
func ledgerQuery(c echo.Context) (studentID int64, limit int, err error) {
	if studentID, err = queryID(c, "student_id"); err != nil {
		return 0, 0, err
	}
	if limit, err = queryInt(c, "limit", service.DefaultLedgerLimit); err != nil {
		return 0, 0, err
	}
	return studentID, limit, nil
}

func (s *Server) listIncreases(c echo.Context) error {
	u, err := contextUser(c)
	if err != nil {
		return err
	}
	studentID, limit, err := ledgerQuery(c)
	if err != nil {
		return err
	}
	out, err := s.opts.Service.ListIncreases(c.Request().Context(), u.ID, studentID, limit)
	if err != nil {
		return errors.Wrap(err, "listing increases")
	}
	return c.JSON(http.StatusOK, nonNil(out))
}

func (s *Server) listExchanges(c echo.Context) error {
	u, err := contextUser(c)
	if err != nil {
		return err
	}
	studentID, limit, err := ledgerQuery(c)
	if err != nil {
		return err
	}
	out, err := s.opts.Service.ListExchanges(c.Request().Context(), u.ID, studentID, limit)
	if err != nil {
		return errors.Wrap(err, "listing exchanges")
	}
	return c.JSON(http.StatusOK, nonNil(out))
}

func (s *Server) createExchange(c echo.Context) error {
	u, err := contextUser(c)
	if err != nil {
		return err
	}
	var in exchangeRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	ex, err := s.opts.Service.CreateExchange(c.Request().Context(), u.ID, in.StudentID, in.RewardOptionID)
	if err != nil {
		return errors.Wrap(err, "creating exchange")
	}
	return c.JSON(http.StatusCreated, ex)
}

func (s *Server) exportLedger(c echo.Context) error {
	u, err := contextUser(c)
	if err != nil {
		return err
	}
	studentID, err := queryID(c, "student_id")
	if err != nil {
		return err
	}
	data, filename, err := s.opts.Service.ExportLedger(c.Request().Context(), u.ID, studentID)
	if err != nil {
		return errors.Wrap(err, "exporting ledger")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	return c.Stream(http.StatusOK, xlsxMIME, bytes.NewReader(data))
}

func (s *Server) listRewardOptions(c echo.Context) error {
	u, err := contextUser(c)
	if err != nil {
		return err
	}
	out, err := s.opts.Service.ListRewardOptions(c.Request().Context(), u.ID)
	if err != nil {
		return errors.Wrap(err, "listing reward options")
	}
	return c.JSON(http.StatusOK, nonNil(out))
}

func (s *Server) createRewardOption(c echo.Context) error {
	u, err := contextUser(c)
	if err != nil {
		return err
	}
	var in models.RewardOptionInput
	if err := bind(c, &in); err != nil {
		return err
	}
	o, err := s.opts.Service.CreateRewardOption(c.Request().Context(), u.ID, in)
	if err != nil {
		return errors.Wrap(err, "creating reward option")
	}
	return c.JSON(http.StatusCreated, o)
}

func (s *Server) updateRewardOption(c echo.Context) error {
	u, err := contextUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var patch models.RewardOptionPatch
	if err := bind(c, &patch); err != nil {
		return err
	}
	o, err := s.opts.Service.UpdateRewardOption(c.Request().Context(), u.ID, id, patch)
	if err != nil {
		return errors.Wrap(err, "updating reward option")
	}
	return c.JSON(http.StatusOK, o)
}

func (s *Server) deleteRewardOption(c echo.Context) error {
	u, err := contextUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.opts.Service.DeleteRewardOption(c.Request().Context(), u.ID, id); err != nil {
		return errors.Wrap(err, "deleting reward option")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listPunishmentOptions(c echo.Context) error {
	u, err := contextUser(c)
	if err != nil {
		return err
	}
	out, err := s.opts.Service.ListPunishmentOptions(c.Request().Context(), u.ID)
	if err != nil {
		return errors.Wrap(err, "listing punishment options")
	}
	return c.JSON(http.StatusOK, nonNil(out))
}

func (s *Server) createPunishmentOption(c echo.Context) error {
	u, err := contextUser(c)
	if err != nil {
		return err
	}
	var in models.PunishmentOptionInput
	if err := bind(c, &in); err != nil {
		return err
	}
	o, err := s.opts.Service.CreatePunishmentOption(c.Request().Context(), u.ID, in)
	if err != nil {
		return errors.Wrap(err, "creating punishment option")
	}
	return c.JSON(http.StatusCreated, o)
}

func (s *Server) updatePunishmentOption(c echo.Context) error {
	u, err := contextUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var patch models.PunishmentOptionPatch
	if err := bind(c, &patch); err != nil {
		return err
	}
	o, err := s.opts.Service.UpdatePunishmentOption(c.Request().Context(), u.ID, id, patch)
	if err != nil {
		return errors.Wrap(err, "updating punishment option")
	}
	return c.JSON(http.StatusOK, o)
}

func (s *Server) deletePunishmentOption(c echo.Context) error {
	u, err := contextUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.opts.Service.DeletePunishmentOption(c.Request().Context(), u.ID, id); err != nil {
		return errors.Wrap(err, "deleting punishment option")
	}
	return c.NoContent(http.StatusNoContent)
}
