package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campus-connect/relay/config"
	"github.com/campus-connect/relay/providers"
	"github.com/campus-connect/relay/src/bridge"
	"github.com/campus-connect/relay/src/logging"
	"github.com/joho/godotenv"
	"github.com/valyala/fasthttp"
)

func main() {
	// Load local .env (dev only)
	_ = godotenv.Load()

	srvCfg := config.ServerFromEnv()
	logger := logging.New(srvCfg.Env, srvCfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	relay := providers.NewServer(config.FromEnv(), logger)
	if err := relay.Activate(bridge.RedisConfigFromEnv()); err != nil {
		logger.Fatal().Err(err).Msg("activate relay")
	}

	srv := &fasthttp.Server{
		Handler:            relay.Handler(relay.App(srvCfg.ServerHeader)),
		Name:               srvCfg.ServerHeader,
		IdleTimeout:        60 * time.Second,
		MaxRequestBodySize: 1 << 20,
	}

	go func() {
		logger.Info().Str("addr", srvCfg.HTTPAddr).Msg("server listening")
		if err := srv.ListenAndServe(srvCfg.HTTPAddr); err != nil {
			logger.Error().Err(err).Msg("server crashed")
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown started")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	_ = relay.Deactivate()

	logger.Info().Msg("shutdown complete")
	_ = os.Stdout.Sync()
}
