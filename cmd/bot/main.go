package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sergeyvolkov/vk-dating-bot/internal/app"
	"github.com/sergeyvolkov/vk-dating-bot/internal/bot"
	"github.com/sergeyvolkov/vk-dating-bot/internal/cache"
	"github.com/sergeyvolkov/vk-dating-bot/internal/config"
	"github.com/sergeyvolkov/vk-dating-bot/internal/db"
	"github.com/sergeyvolkov/vk-dating-bot/internal/logger"
	"github.com/sergeyvolkov/vk-dating-bot/internal/service/matchmaker"
	"github.com/sergeyvolkov/vk-dating-bot/internal/vk"
)

func main() {
	cfg := config.New()

	logger.InitFromConfig(cfg)
	log := logger.L()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	vkClient := vk.NewClient(cfg)

	appCtx := app.New(database, redisCache, log)
	svc := matchmaker.NewService(appCtx, vkClient)
	handler := bot.NewHandler(svc, redisCache, vkClient, log)

	b, err := bot.New(vkClient.BotAPI(), cfg.VK.GroupID, handler, log)
	if err != nil {
		log.Error("failed to init bot", "err", err)
		return
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info("shutting down")
		b.Shutdown()
	}()

	log.Info("starting vk dating bot", "group_id", cfg.VK.GroupID)
	if err := b.Run(); err != nil {
		log.Error("long poll stopped", "err", err)
	}
}
