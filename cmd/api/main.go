package main

import (
	"textdrop/config"
	"textdrop/internal/encoding"
	"textdrop/internal/handler"
	"textdrop/internal/redis"
	"textdrop/internal/server"
	"textdrop/internal/services"
	"textdrop/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	mode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		mode = logger.ProductionMode
	}
	l := logger.New(mode)
	logger.SetGlobalLogger(l)

	pipeline := encoding.NewPipeline(cfg.ChunkSizeBytes)
	sessionService := services.NewSessionService(pipeline, cfg.SessionTTL, l)

	sweeper := services.NewSweeper(sessionService, cfg.SweepInterval)
	sweeper.Start()
	defer sweeper.Stop()

	var limiter *redis.RateLimiter
	if cfg.RateLimitEnabled {
		client := redis.NewClient(redis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
		})
		limits := redis.DefaultRateLimitConfig()
		limits.CreateLimit = cfg.CreateLimit
		limits.PollLimit = cfg.PollLimit
		limiter = redis.NewRateLimiter(client, limits)
	}

	srv := server.New(cfg, l)
	srv.SetupRoutes(handler.NewSessionHandler(sessionService), sessionService, limiter)

	if err := srv.Start(); err != nil {
		l.Errorf("server exited with error: %s", err)
	}
}
