package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

const dingtalkBaseURL = "https://oapi.dingtalk.com"

type DingTalk struct {
	appKey  string
	secret  string
	baseURL string
	hc      *http.Client
}

func NewDingTalk(appKey, secret string, hc *http.Client) *DingTalk {
	return &DingTalk{appKey: appKey, secret: secret, baseURL: dingtalkBaseURL, hc: newHTTPClient(hc)}
}

// WithBaseURL подменяет адрес API в тестах.
func (d *DingTalk) WithBaseURL(u string) *DingTalk {
	d.baseURL = u
	return d
}

type dingtalkStatus struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

func (s dingtalkStatus) err() error {
	if s.ErrCode != 0 {
		return &ProviderError{Provider: "dingtalk", Code: s.ErrCode, Message: s.ErrMsg}
	}
	return nil
}

// Exchange меняет временный код авторизации на профиль пользователя.
func (d *DingTalk) Exchange(ctx context.Context, code string) (*UserInfo, error) {
	q := url.Values{"appid": {d.appKey}, "appsecret": {d.secret}}
	req, err := http.NewRequest(http.MethodGet, d.baseURL+"/sns/gettoken?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var tok struct {
		dingtalkStatus
		AccessToken string `json:"access_token"`
	}
	if err := doJSON(ctx, d.hc, req, &tok); err != nil {
		return nil, err
	}
	if err := tok.err(); err != nil {
		return nil, err
	}

	body, _ := json.Marshal(map[string]string{"tmp_auth_code": code})
	req, err = http.NewRequest(http.MethodPost, d.baseURL+"/sns/getuserinfo_bycode", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-acs-dingtalk-access-token", tok.AccessToken)

	var info struct {
		dingtalkStatus
		UserInfo struct {
			OpenID      string `json:"openid"`
			UnionID     string `json:"unionid"`
			Nick        string `json:"nick"`
			AvatarURL   string `json:"avatar_url"`
			MainOrgName string `json:"main_org_name"`
		} `json:"user_info"`
	}
	if err := doJSON(ctx, d.hc, req, &info); err != nil {
		return nil, err
	}
	if err := info.err(); err != nil {
		return nil, err
	}

	u := info.UserInfo
	out := &UserInfo{
		OpenID:    u.OpenID,
		UnionID:   u.UnionID,
		Nickname:  u.Nick,
		AvatarURL: u.AvatarURL,
	}
	if u.MainOrgName != "" {
		out.Extra = map[string]any{"main_org_name": u.MainOrgName}
	}
	return out, nil
}
