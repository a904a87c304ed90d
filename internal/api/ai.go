package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	pkgerrors "github.com/pkg/errors"

	"github.com/Spok95/family-score/internal/apperr"
	"github.com/Spok95/family-score/internal/voice"
)

const maxAudioBytes = 10 << 20

type voiceCommandRequest struct {
	Text string `json:"text" validate:"required,max=1000"`
}

var errAIDisabled = apperr.Unavailable("AI service is not configured")

func (s *Server) registerAI(g *echo.Group) {
	g.GET("/available-options", s.availableOptions)

	limited := g.Group("", aiRateLimit(s.opts.AILimiter))
	limited.POST("/parse-voice-command", s.parseVoiceCommand)
	limited.POST("/recognize-audio", s.recognizeAudio)
}

func (s *Server) catalog(c echo.Context) (voice.Catalog, error) {
	u, err := contextUser(c)
	if err != nil {
		return voice.Catalog{}, err
	}
	cat, err := s.opts.Service.Catalog(c.Request().Context(), u.ID)
	if err != nil {
		return voice.Catalog{}, pkgerrors.Wrap(err, "loading catalog")
	}
	return *cat, nil
}

func (s *Server) parseVoiceCommand(c echo.Context) error {
	if s.opts.Voice == nil {
		return errAIDisabled
	}
	var in voiceCommandRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	cat, err := s.catalog(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.opts.Voice.Parse(c.Request().Context(), in.Text, cat))
}

func (s *Server) recognizeAudio(c echo.Context) error {
	if s.opts.Voice == nil {
		return errAIDisabled
	}
	fh, err := c.FormFile("audio")
	if err != nil {
		return apperr.Field("audio", "audio file is required")
	}
	if fh.Size > maxAudioBytes {
		return apperr.Field("audio", "audio file is too large")
	}
	f, err := fh.Open()
	if err != nil {
		return pkgerrors.Wrap(err, "opening audio")
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(io.LimitReader(f, maxAudioBytes))
	if err != nil {
		return pkgerrors.Wrap(err, "reading audio")
	}

	cat, err := s.catalog(c)
	if err != nil {
		return err
	}
	res, err := s.opts.Voice.Recognize(c.Request().Context(), fh.Filename, data, cat)
	if errors.Is(err, voice.ErrTranscriptionUnsupported) {
		return apperr.New(apperr.KindNotImplemented, "speech recognition is not supported by the configured AI provider")
	}
	if err != nil {
		return pkgerrors.Wrap(err, "recognizing audio")
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) availableOptions(c echo.Context) error {
	cat, err := s.catalog(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, voice.AvailableOptions(cat))
}
