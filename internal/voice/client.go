package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout     = 60 * time.Second
	defaultMaxRetries  = 3
	defaultBaseBackoff = time.Second
	defaultBurst       = 5

	completionTemperature = 0.3
	completionMaxTokens   = 500

	transcriptionModel    = "whisper-1"
	transcriptionLanguage = "zh"
)

// ErrTranscriptionUnsupported: провайдер не умеет распознавать аудио.
var ErrTranscriptionUnsupported = errors.New("audio transcription is not supported by the AI provider")

type ClientConfig struct {
	APIKey        string
	BaseURL       string
	Model         string
	RatePerMinute int
	HTTPClient    *http.Client
}

// Client: OpenAI-совместимый API (DeepSeek, Qwen, OpenAI).
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("AI API key required")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	perMin := cfg.RatePerMinute
	if perMin <= 0 {
		perMin = 20
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		httpClient: hc,
		limiter:    rate.NewLimiter(rate.Limit(float64(perMin)/60), defaultBurst),
		maxRetries: defaultMaxRetries,
		backoff:    defaultBaseBackoff,
	}, nil
}

type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// withRetries: лимитер, затем до maxRetries повторов с экспоненциальной паузой.
func (c *Client) withRetries(ctx context.Context, do func() error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.backoff * time.Duration(1<<(attempt-1))):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		err := do()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(err) {
			return err
		}
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete отправляет один запрос chat completions с системным промптом и текстом пользователя.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "system", Content: system}, {Role: "user", Content: user}},
		Temperature: completionTemperature,
		MaxTokens:   completionMaxTokens,
	})
	if err != nil {
		return "", err
	}

	var out string
	err = c.withRetries(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		body, err := c.do(req)
		if err != nil {
			return err
		}
		var resp chatResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return fmt.Errorf("parse completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return errors.New("empty response from AI API")
		}
		out = resp.Choices[0].Message.Content
		return nil
	})
	return out, err
}

// Transcribe распознаёт речь через /v1/audio/transcriptions.
func (c *Client) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("model", transcriptionModel)
	_ = mw.WriteField("language", transcriptionLanguage)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(audio); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}
	payload := buf.Bytes()

	var text string
	err = c.withRetries(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/audio/transcriptions", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		body, err := c.do(req)
		var se *statusError
		if errors.As(err, &se) && (se.code == http.StatusNotFound || se.code == http.StatusBadRequest ||
			se.code == http.StatusNotImplemented || se.code == http.StatusMethodNotAllowed) {
			return fmt.Errorf("%w: %v", ErrTranscriptionUnsupported, err)
		}
		if err != nil {
			return err
		}
		var resp struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return fmt.Errorf("parse transcription: %w", err)
		}
		text = resp.Text
		return nil
	})
	return text, err
}

type statusError struct {
	code int
	msg  string
}

func (e *statusError) Error() string { return fmt.Sprintf("AI API error (%d): %s", e.code, e.msg) }

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("AI API request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read AI response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &retryableError{err: &statusError{code: resp.StatusCode, msg: "rate limited"}}
	case resp.StatusCode >= 500 && resp.StatusCode != http.StatusNotImplemented:
		return nil, &retryableError{err: &statusError{code: resp.StatusCode, msg: string(body)}}
	case resp.StatusCode != http.StatusOK:
		var e apiError
		msg := string(body)
		if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
			msg = e.Error.Message
		}
		return nil, &statusError{code: resp.StatusCode, msg: msg}
	}
	return body, nil
}
