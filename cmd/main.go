package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ClanPulse/api"
	"ClanPulse/bot"
	"ClanPulse/cache"
	"ClanPulse/coc"
	"ClanPulse/config"
	"ClanPulse/db"
	"ClanPulse/gateway"
	"ClanPulse/scheduler"
	"ClanPulse/telegram"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	store, err := db.Open(cfg.BindingsDBPath)
	if err != nil {
		logger.Fatal("failed to open bindings database", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cacheStore cache.Store
	if cfg.RedisURL != "" {
		redisStore, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisStore.Close()
		cacheStore = redisStore
		logger.Info("redis cache connected")
	} else {
		cacheStore = cache.NewMemory()
		logger.Info("using in-memory cache")
	}

	client := coc.NewClient(cfg.CocAPIBase, cfg.CocToken, cfg.RequestTimeout(), logger)
	gw := gateway.New(client, cacheStore, cfg.CacheTTL(), cfg.WarCacheTTL(), logger)
	tg := telegram.NewClient(cfg.TelegramBotToken, cfg.RequestTimeout(), logger)

	if cfg.WarReminderEnabled {
		reminder := scheduler.New(gw, store, tg, cfg.CocClanTag,
			cfg.ReminderWindow(), cfg.ReminderCooldown(), cfg.ReminderInterval(), logger)
		if err := reminder.Start(ctx); err != nil {
			logger.Fatal("failed to start war reminder", zap.Error(err))
		}
		defer reminder.Stop()
	} else {
		logger.Info("war reminder disabled")
	}

	go bot.New(tg, gw, store, cfg.CocClanTag, logger).Run(ctx)

	handler := api.NewHandler(gw, cfg.CocClanTag, logger)
	server := &http.Server{Addr: ":" + cfg.Port, Handler: SetupRouter(handler)}

	go func() {
		logger.Info("server running", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown failed", zap.Error(err))
	}
}
