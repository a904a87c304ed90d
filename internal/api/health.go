package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Spok95/family-score/internal/ctxutil"
	"github.com/Spok95/family-score/internal/metrics"
)

const pingTimeout = 800 * time.Millisecond

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "healthy", "service": s.opts.ServiceName})
}

func (s *Server) ping(c echo.Context) error {
	ctx, cancel := ctxutil.WithTimeout(c.Request().Context(), pingTimeout)
	defer cancel()
	t0 := time.Now()
	err := s.opts.Service.DB().PingContext(ctx)
	if err == nil {
		metrics.ObserveDBPing(time.Since(t0))
	}
	return err
}

// healthDB отвечает 200 даже при недоступной базе: статус в теле.
func (s *Server) healthDB(c echo.Context) error {
	if err := s.ping(c); err != nil {
		return c.JSON(http.StatusOK, echo.Map{"status": "unhealthy", "database": "disconnected", "error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "healthy", "database": "connected"})
}

func (s *Server) healthReady(c echo.Context) error {
	if err := s.ping(c); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
}
