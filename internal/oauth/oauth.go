// Package oauth: вход через WeChat и DingTalk по одноразовому коду.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// UserInfo: профиль внешнего аккаунта после обмена кода.
type UserInfo struct {
	OpenID    string
	UnionID   string
	Nickname  string
	AvatarURL string
	Extra     map[string]any
}

// ExtraJSON: доп. поля профиля для колонки extra_data.
func (u UserInfo) ExtraJSON() string {
	if len(u.Extra) == 0 {
		return ""
	}
	b, err := json.Marshal(u.Extra)
	if err != nil {
		return ""
	}
	return string(b)
}

// ProviderError: провайдер ответил errcode != 0.
type ProviderError struct {
	Provider string
	Code     int
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: errcode %d: %s", e.Provider, e.Code, e.Message)
}

const defaultTimeout = 10 * time.Second

func newHTTPClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: defaultTimeout}
}

// doJSON выполняет запрос и разбирает JSON-ответ в out.
func doJSON(ctx context.Context, hc *http.Client, req *http.Request, out any) error {
	resp, err := hc.Do(req.WithContext(ctx))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s: http %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}
