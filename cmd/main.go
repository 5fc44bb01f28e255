package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/investgame/investgame/config"
	"github.com/investgame/investgame/data"
	"github.com/investgame/investgame/data/cache"
	"github.com/investgame/investgame/data/repository/postgres"
	"github.com/investgame/investgame/data/session"
	"github.com/investgame/investgame/internal/auth"
	"github.com/investgame/investgame/internal/externalApi/asxApi"
	"github.com/investgame/investgame/internal/reportGenerator/xlsxGenerator"
	"github.com/investgame/investgame/internal/scheduler"
	"github.com/investgame/investgame/internal/service/investGameService"
	"github.com/investgame/investgame/internal/transport/httpapi"
)

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	slog.Debug("config", slog.Any("cfg", cfg))

	pgClient := data.NewPostgresClient(cfg)
	defer pgClient.Close()

	pgRepo := postgres.NewPostgres(cfg, pgClient)

	redisClient := data.NewRedisClient(cfg)
	defer redisClient.Close()

	redisCache := cache.NewRedisCache(redisClient, cfg)
	redisSession := session.NewRedisSession(redisClient, cfg)

	asxApiClient := asxApi.New(cfg)

	hasher := auth.NewHasher(cfg.Argon2)
	reportGenerator := xlsxGenerator.New()

	investGameSrv := investGameService.New(cfg, pgRepo, redisCache, redisSession, asxApiClient, hasher, reportGenerator)

	sched := scheduler.New()
	sched.NewIntervalJob("update shares", func(ctx context.Context) error {
		_, err := investGameSrv.UpdateShares(ctx)
		return err
	}, cfg.Jobs.UpdateSharesInterval, true)
	sched.NewCrontabJob("leaderboard snapshot", investGameSrv.UpdateLeaderboard, cfg.Jobs.LeaderboardCrontab)
	sched.Start()
	defer sched.Stop()

	controller := httpapi.NewController(cfg, investGameSrv)
	router := httpapi.NewRouter(cfg, controller)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		slog.Info("http server listening", slog.Int("port", cfg.HTTP.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
	}()

	// Waiting interruption signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-interrupt

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown failed", slog.String("err", err.Error()))
	}
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
