package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Spok95/family-score/internal/apperr"
)

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Field(name, "must be a positive integer")
	}
	return id, nil
}

// queryID: обязательный целый параметр строки запроса.
func queryID(c echo.Context, name string) (int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, apperr.Field(name, name+" is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Field(name, "must be a positive integer")
	}
	return id, nil
}

// optionalID: пустой параметр даёт nil.
func optionalID(c echo.Context, name string) (*int64, error) {
	if c.QueryParam(name) == "" {
		return nil, nil
	}
	id, err := queryID(c, name)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func queryInt(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Field(name, "must be an integer")
	}
	return n, nil
}

func queryBool(c echo.Context, name string) (bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperr.Field(name, "must be a boolean")
	}
	return b, nil
}

// queryTime принимает RFC3339 или дату YYYY-MM-DD в зоне сервиса.
func queryTime(c echo.Context, name string, loc *time.Location) (*time.Time, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, raw, loc); err == nil {
		return &t, nil
	}
	return nil, apperr.Field(name, "must be RFC3339 time or YYYY-MM-DD date")
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
