package oauth

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

const wechatBaseURL = "https://api.weixin.qq.com"

type WeChat struct {
	appID   string
	secret  string
	baseURL string
	hc      *http.Client
	now     func() time.Time

	mu          sync.Mutex
	ticket      string
	ticketUntil time.Time
}

func NewWeChat(appID, secret string, hc *http.Client) *WeChat {
	return &WeChat{appID: appID, secret: secret, baseURL: wechatBaseURL, hc: newHTTPClient(hc), now: time.Now}
}

// WithBaseURL подменяет адрес API в тестах.
func (w *WeChat) WithBaseURL(u string) *WeChat {
	w.baseURL = u
	return w
}

type wechatStatus struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

func (s wechatStatus) err() error {
	if s.ErrCode != 0 {
		return &ProviderError{Provider: "wechat", Code: s.ErrCode, Message: s.ErrMsg}
	}
	return nil
}

func (w *WeChat) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequest(http.MethodGet, w.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	return doJSON(ctx, w.hc, req, out)
}

// Exchange меняет code из OAuth-редиректа на профиль пользователя.
func (w *WeChat) Exchange(ctx context.Context, code string) (*UserInfo, error) {
	var tok struct {
		wechatStatus
		AccessToken string `json:"access_token"`
		OpenID      string `json:"openid"`
		UnionID     string `json:"unionid"`
	}
	err := w.get(ctx, "/sns/oauth2/access_token", url.Values{
		"appid":      {w.appID},
		"secret":     {w.secret},
		"code":       {code},
		"grant_type": {"authorization_code"},
	}, &tok)
	if err != nil {
		return nil, err
	}
	if err := tok.err(); err != nil {
		return nil, err
	}

	var info struct {
		wechatStatus
		OpenID     string `json:"openid"`
		UnionID    string `json:"unionid"`
		Nickname   string `json:"nickname"`
		HeadImgURL string `json:"headimgurl"`
		Sex        int    `json:"sex"`
		Province   string `json:"province"`
		City       string `json:"city"`
		Country    string `json:"country"`
	}
	err = w.get(ctx, "/sns/userinfo", url.Values{
		"access_token": {tok.AccessToken},
		"openid":       {tok.OpenID},
		"lang":         {"zh_CN"},
	}, &info)
	if err != nil {
		return nil, err
	}
	if err := info.err(); err != nil {
		return nil, err
	}

	u := &UserInfo{
		OpenID:    info.OpenID,
		UnionID:   info.UnionID,
		Nickname:  info.Nickname,
		AvatarURL: info.HeadImgURL,
		Extra: map[string]any{
			"sex": info.Sex, "province": info.Province, "city": info.City, "country": info.Country,
		},
	}
	if u.OpenID == "" {
		u.OpenID = tok.OpenID
	}
	if u.UnionID == "" {
		u.UnionID = tok.UnionID
	}
	return u, nil
}

// JSSDKConfig: параметры wx.config для страницы url.
type JSSDKConfig struct {
	AppID     string `json:"appId"`
	Timestamp int64  `json:"timestamp"`
	NonceStr  string `json:"nonceStr"`
	Signature string `json:"signature"`
}

func (w *WeChat) JSSDK(ctx context.Context, pageURL string) (*JSSDKConfig, error) {
	ticket, err := w.jsapiTicket(ctx)
	if err != nil {
		return nil, err
	}
	cfg := &JSSDKConfig{
		AppID:     w.appID,
		Timestamp: w.now().Unix(),
		NonceStr:  uuid.NewString()[:16],
	}
	cfg.Signature = SignJSSDK(ticket, cfg.NonceStr, cfg.Timestamp, pageURL)
	return cfg, nil
}

// SignJSSDK: sha1 от строки с параметрами в алфавитном порядке.
func SignJSSDK(ticket, nonce string, ts int64, pageURL string) string {
	raw := fmt.Sprintf("jsapi_ticket=%s&noncestr=%s&timestamp=%s&url=%s", ticket, nonce, strconv.FormatInt(ts, 10), pageURL)
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// jsapiTicket кэширует тикет до истечения срока (с запасом в 5 минут).
func (w *WeChat) jsapiTicket(ctx context.Context) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ticket != "" && w.now().Before(w.ticketUntil) {
		return w.ticket, nil
	}

	var tok struct {
		wechatStatus
		AccessToken string `json:"access_token"`
	}
	err := w.get(ctx, "/cgi-bin/token", url.Values{
		"grant_type": {"client_credential"},
		"appid":      {w.appID},
		"secret":     {w.secret},
	}, &tok)
	if err != nil {
		return "", err
	}
	if err := tok.err(); err != nil {
		return "", err
	}

	var t struct {
		wechatStatus
		Ticket    string `json:"ticket"`
		ExpiresIn int    `json:"expires_in"`
	}
	err = w.get(ctx, "/cgi-bin/ticket/getticket", url.Values{
		"access_token": {tok.AccessToken},
		"type":         {"jsapi"},
	}, &t)
	if err != nil {
		return "", err
	}
	if err := t.err(); err != nil {
		return "", err
	}

	w.ticket = t.Ticket
	w.ticketUntil = w.now().Add(time.Duration(t.ExpiresIn)*time.Second - 5*time.Minute)
	return w.ticket, nil
}
