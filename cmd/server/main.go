package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"shareit/pkg/cache"
	"shareit/pkg/config"
	"shareit/pkg/database"
	"shareit/pkg/logging"
	"shareit/pkg/metrics"
	"shareit/pkg/server"
	"shareit/pkg/service"
	"shareit/pkg/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, closer, err := logging.New(cfg.Logging, cfg.App, "server")
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	gin.SetMode(gin.ReleaseMode)
	metrics.Register()

	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	var userCache cache.UserCache = cache.Noop{}
	if client := cache.NewRedisClient(cfg.Redis); client != nil {
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.Warn().Err(err).Str("address", cfg.Redis.Address).Msg("redis unavailable, user cache disabled")
		} else {
			userCache = cache.NewRedisUserCache(client, cfg.Redis.TTL)
			logger.Info().Str("address", cfg.Redis.Address).Msg("user cache enabled")
		}
		defer client.Close()
	}

	svc := service.New(storage.New(db), userCache, logger)
	router := server.NewRouter(server.NewHandler(svc, db, logger))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		logger.Info().Int("port", cfg.HTTP.Port).Msg("shareit server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
