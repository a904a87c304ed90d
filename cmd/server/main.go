package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Spok95/family-score/internal/api"
	"github.com/Spok95/family-score/internal/app"
	"github.com/Spok95/family-score/internal/auth"
	"github.com/Spok95/family-score/internal/config"
	"github.com/Spok95/family-score/internal/db"
	"github.com/Spok95/family-score/internal/jobs"
	"github.com/Spok95/family-score/internal/logging"
	"github.com/Spok95/family-score/internal/models"
	"github.com/Spok95/family-score/internal/oauth"
	"github.com/Spok95/family-score/internal/observability"
	"github.com/Spok95/family-score/internal/service"
	"github.com/Spok95/family-score/internal/voice"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Не удалось загрузить .env файл, используем переменные окружения")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Closer()

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, cfg.Release)
	if err != nil {
		lg.Base.Warn("sentry init failed", zap.Error(err))
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		lg.Base.Fatal("db connect", zap.Error(err))
	}
	defer func() { _ = database.Close() }()

	if err := db.Migrate(database); err != nil {
		lg.Base.Fatal("migrate", zap.Error(err))
	}

	providers := map[models.AccountType]service.OAuthProvider{}
	var wechat *oauth.WeChat
	if cfg.WeChat.Enabled() {
		wechat = oauth.NewWeChat(cfg.WeChat.AppID, cfg.WeChat.AppSecret, nil)
		providers[models.AccountWeChat] = wechat
	}
	if cfg.DingTalk.Enabled() {
		providers[models.AccountDingTalk] = oauth.NewDingTalk(cfg.DingTalk.AppID, cfg.DingTalk.AppSecret, nil)
	}

	tokens := auth.NewTokens(cfg.SecretKey, cfg.AccessTokenTTL)
	svc := service.New(service.Options{
		DB:       database,
		Log:      lg,
		Tokens:   tokens,
		OAuth:    providers,
		Location: cfg.Location,
	})
	if err := svc.PromoteAdmins(ctx, cfg.AdminEmails); err != nil {
		lg.Base.Error("promote admins", zap.Error(err))
	}

	opts := api.Options{
		Service:     svc,
		Log:         lg,
		Tokens:      tokens,
		AILimiter:   app.NewUserLimiter(cfg.AI.RatePerMinute, 3),
		CORSOrigins: cfg.CORSOrigins,
		Debug:       cfg.Env != "prod",
	}
	if wechat != nil {
		opts.WeChat = wechat
	}
	if cfg.AI.Enabled() {
		client, err := voice.NewClient(voice.ClientConfig{
			APIKey:        cfg.AI.APIKey,
			BaseURL:       cfg.AI.BaseURL,
			Model:         cfg.AI.Model,
			RatePerMinute: cfg.AI.RatePerMinute,
		})
		if err != nil {
			lg.Base.Fatal("ai client", zap.Error(err))
		}
		opts.Voice = voice.NewParser(client, client, lg)
	}

	runner := jobs.New(ctx, lg.Base)
	runner.Every(cfg.LedgerStatsInterval, "ledger_stats", jobs.LedgerStats(database))

	srv := app.StartHTTP(ctx, cfg.HTTPAddr, api.NewServer(opts), lg.Base)

	<-ctx.Done()
	lg.Base.Info("shutting down")
	srv.Wait()
}
