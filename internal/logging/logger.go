package logging

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Spok95/family-score/internal/ctxutil"
)

type Log struct {
	Base   *zap.Logger
	Sugar  *zap.SugaredLogger
	Level  zap.AtomicLevel
	Closer func()
}

func Init(level, env string) (*Log, error) {
	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	var cfg zap.Config
	if strings.ToLower(env) == "prod" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = lvl
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	base, err := cfg.Build(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		return nil, err
	}
	return &Log{
		Base:   base,
		Sugar:  base.Sugar(),
		Level:  lvl,
		Closer: func() { _ = base.Sync() },
	}, nil
}

// For: логгер с полями запроса из контекста.
func (l *Log) For(ctx context.Context) *zap.Logger {
	lg := l.Base
	if id, ok := ctxutil.RequestID(ctx); ok {
		lg = lg.With(zap.String("request_id", id))
	}
	if uid, ok := ctxutil.UserID(ctx); ok {
		lg = lg.With(zap.Int64("user_id", uid))
	}
	if op, ok := ctxutil.Op(ctx); ok {
		lg = lg.With(zap.String("op", op))
	}
	return lg
}

// Nop: для тестов.
func Nop() *Log {
	base := zap.NewNop()
	return &Log{Base: base, Sugar: base.Sugar(), Level: zap.NewAtomicLevel(), Closer: func() {}}
}
