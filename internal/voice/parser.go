// Package voice разбирает голосовые команды родителя через OpenAI-совместимую модель.
package voice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Spok95/family-score/internal/logging"
	"github.com/Spok95/family-score/internal/metrics"
	"github.com/Spok95/family-score/internal/models"
)

const (
	ActionAddTask  = "add_task"
	ActionExchange = "exchange_points"
	ActionUnknown  = "unknown"

	defaultConfidence = 0.5
)

type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
}

type Intent struct {
	Action     string         `json:"action"`
	Confidence float64        `json:"confidence"`
	Data       map[string]any `json:"data"`
	Message    *string        `json:"message"`
	Warnings   []string       `json:"warnings"`
}

// Result: ошибки модели отдаются с success=false, статус HTTP остаётся 200.
type Result struct {
	Success bool    `json:"success"`
	Text    string  `json:"text,omitempty"`
	Intent  *Intent `json:"intent"`
	Error   *string `json:"error"`
}

func failed(format string, err error) Result {
	msg := fmt.Sprintf(format, err)
	return Result{Success: false, Error: &msg}
}

type Parser struct {
	llm Completer
	stt Transcriber
	log *logging.Log
}

func NewParser(llm Completer, stt Transcriber, log *logging.Log) *Parser {
	if log == nil {
		log = logging.Nop()
	}
	return &Parser{llm: llm, stt: stt, log: log}
}

// Parse отправляет текст модели и сверяет ответ со справочниками.
func (p *Parser) Parse(ctx context.Context, text string, c Catalog) Result {
	text = strings.TrimSpace(text)
	if text == "" {
		return failed("failed to parse voice command: %v", errors.New("empty text"))
	}
	content, err := p.llm.Complete(ctx, buildSystemPrompt(c), text)
	if err != nil {
		metrics.AIRequests.WithLabelValues("parse", "error").Inc()
		p.log.For(ctx).Warn("llm completion failed", zap.Error(err))
		return failed("failed to parse voice command: %v", err)
	}
	parsed, err := extractJSON(content)
	if err != nil {
		metrics.AIRequests.WithLabelValues("parse", "bad_json").Inc()
		p.log.For(ctx).Warn("llm returned no json", zap.String("content", content))
		return failed("failed to parse voice command: %v", err)
	}
	metrics.AIRequests.WithLabelValues("parse", "ok").Inc()
	intent := buildIntent(parsed, c)
	return Result{Success: true, Intent: intent}
}

// Recognize распознаёт аудио и разбирает текст. ErrTranscriptionUnsupported возвращается ошибкой.
func (p *Parser) Recognize(ctx context.Context, filename string, audio []byte, c Catalog) (Result, error) {
	if p.stt == nil {
		return Result{}, ErrTranscriptionUnsupported
	}
	text, err := p.stt.Transcribe(ctx, filename, audio)
	if errors.Is(err, ErrTranscriptionUnsupported) {
		metrics.AIRequests.WithLabelValues("transcribe", "unsupported").Inc()
		return Result{}, err
	}
	if err != nil {
		metrics.AIRequests.WithLabelValues("transcribe", "error").Inc()
		p.log.For(ctx).Warn("transcription failed", zap.Error(err))
		return failed("speech recognition failed: %v", err), nil
	}
	metrics.AIRequests.WithLabelValues("transcribe", "ok").Inc()
	res := p.Parse(ctx, text, c)
	res.Text = text
	return res, nil
}

func buildIntent(parsed map[string]any, c Catalog) *Intent {
	data, _ := parsed["data"].(map[string]any)
	if data == nil {
		data = map[string]any{}
	}
	if ct := str(parsed["corrected_text"]); ct != "" {
		data["corrected_text"] = ct
	}

	in := &Intent{
		Action:     ActionUnknown,
		Confidence: defaultConfidence,
		Data:       data,
		Warnings:   []string{},
	}
	if a := str(parsed["action"]); a != "" {
		in.Action = a
	}
	if conf, ok := parsed["confidence"].(float64); ok {
		in.Confidence = conf
	}
	if m := str(parsed["message"]); m != "" {
		in.Message = &m
	}

	switch in.Action {
	case ActionAddTask:
		in.Warnings = append(in.Warnings, validateTask(data, c)...)
	case ActionExchange:
		w, hint := validateExchange(data, c)
		in.Warnings = append(in.Warnings, w...)
		if hint != "" {
			in.Message = &hint
		}
	}
	return in
}

type NamedID struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type ProjectChoice struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Level2Projects []NamedID `json:"level2_projects"`
}

type RewardChoice struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CostPoints int    `json:"cost_points"`
}

// Options: справочники для подсказок на экране голосового ввода.
type Options struct {
	Projects      []ProjectChoice `json:"projects"`
	RewardOptions []RewardChoice  `json:"reward_options"`
	Ratings       []models.Rating `json:"ratings"`
	RewardPoints  []int           `json:"reward_points"`
}

func AvailableOptions(c Catalog) Options {
	out := Options{
		Projects:      []ProjectChoice{},
		RewardOptions: make([]RewardChoice, 0, len(c.RewardOptions)),
		Ratings:       models.Ratings,
		RewardPoints:  models.RewardPointPresets,
	}
	for _, p := range c.level1() {
		kids := c.children(p.ID)
		pc := ProjectChoice{ID: p.ID, Name: p.Name, Level2Projects: make([]NamedID, 0, len(kids))}
		for _, k := range kids {
			pc.Level2Projects = append(pc.Level2Projects, NamedID{ID: k.ID, Name: k.Name})
		}
		out.Projects = append(out.Projects, pc)
	}
	for _, r := range c.RewardOptions {
		out.RewardOptions = append(out.RewardOptions, RewardChoice{ID: r.ID, Name: r.Name, CostPoints: r.CostPoints})
	}
	return out
}
