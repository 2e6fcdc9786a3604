package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"shareit/pkg/config"
	"shareit/pkg/gateway"
	"shareit/pkg/logging"
	"shareit/pkg/metrics"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, closer, err := logging.New(cfg.Logging, cfg.App, "gateway")
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	gin.SetMode(gin.ReleaseMode)
	metrics.Register()

	client := gateway.NewClient(cfg.Gateway, logger)
	limiter := gateway.NewUserLimiter(cfg.Gateway.RateLimit)
	router := gateway.NewRouter(gateway.New(client, limiter, logger))

	srv := &http.Server{
		Addr:    cfg.Gateway.ListenAddr(),
		Handler: router,
	}

	go func() {
		logger.Info().
			Int("port", cfg.Gateway.Port).
			Str("server_url", cfg.Gateway.ServerURL).
			Msg("gateway service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("gateway failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down gateway")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
