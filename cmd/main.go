package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"classbourse/config"
	"classbourse/data"
	"classbourse/data/cache"
	"classbourse/data/repository/sheetRepo"
	"classbourse/data/session"
	"classbourse/internal/externalApi/cloudStorageApi/googleDriveApi"
	"classbourse/internal/externalApi/sheetsApi"
	"classbourse/internal/externalApi/yahooApi"
	"classbourse/internal/pricing"
	"classbourse/internal/reportGenerator/xlsxGenerator"
	"classbourse/internal/scheduler"
	"classbourse/internal/service/ledgerService"
	"classbourse/internal/tgbot"
	"classbourse/internal/transport/telegram"
	"classbourse/utils"
)

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	slog.Debug("config", slog.Any("cfg", cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient := data.NewRedisClient(cfg)
	defer redisClient.Close()

	redisCache := cache.NewRedisCache(redisClient, cfg)
	redisSession := session.NewRedisSession(redisClient, cfg)

	yahooApiClient := yahooApi.New(cfg)
	pricer := pricing.New(cfg, yahooApiClient, redisCache)

	sheetsApiClient := sheetsApi.New(ctx, cfg)
	repo := sheetRepo.New(sheetsApiClient)

	reportGenerator := xlsxGenerator.New()

	googleCloudStorage := googleDriveApi.New(ctx, cfg)

	ledgerSrv := ledgerService.New(cfg, repo, pricer, reportGenerator)

	if err := ledgerSrv.LoadPortfolios(utils.CtxWithNewRqID(ctx)); err != nil {
		slog.Error("can't load portfolios from the store", slog.String("err", err.Error()))
		panic(err)
	}

	sched := scheduler.New()
	sched.NewIntervalJob("warm quote cache", ledgerSrv.WarmQuoteCache, cfg.Jobs.WarmQuoteCacheInterval, true)
	sched.NewIntervalJob("delete old drive reports", googleCloudStorage.DeleteOldFiles, cfg.Jobs.DriveCleanupInterval, false)
	sched.Start()
	defer sched.Stop()

	tgController := telegram.NewController(cfg, ledgerSrv, redisSession, googleCloudStorage)

	tgBot := tgbot.New(cfg, tgController, redisSession)
	tgBot.Start()
	defer tgBot.Stop()

	// Waiting interruption signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-interrupt
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}
