package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/danv27/buzzroom/internal/buzzer"
	"github.com/danv27/buzzroom/internal/coordinator"
	"github.com/danv27/buzzroom/internal/gateway"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	config, err := loadConfig(getEnv("BUZZER_CONFIG", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Info().
		Str("port", config.Server.Port).
		Str("nats_url", config.NATS.URL).
		Msg("starting buzzroom")

	// Core state and the serialized command loop that owns it
	state := buzzer.NewState(clockwork.NewRealClock())
	coord := coordinator.New(state, nil, 256)

	connectionConfig := gateway.DefaultConnectionConfig()
	connectionConfig.WriteTimeout = config.writeTimeout()
	connectionConfig.ReadTimeout = config.readTimeout()
	connectionConfig.PingInterval = config.pingInterval()
	connectionConfig.MaxMessageSize = config.Gateway.MaxMessageSize

	journalConfig := gateway.DefaultJournalConfig()
	journalConfig.URL = config.NATS.URL
	if config.NATS.SubjectPrefix != "" {
		journalConfig.SubjectPrefix = config.NATS.SubjectPrefix
	}

	gatewayService, err := gateway.NewService(gateway.Config{
		ConnectionConfig: connectionConfig,
		JournalConfig:    journalConfig,
	}, coord)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create gateway service")
	}
	coord.SetSink(gatewayService.Sink())

	server := setupServer(config, gatewayService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := gatewayService.Start(ctx); err != nil {
			log.Error().Err(err).Msg("gateway service failed")
		}
	}()

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	cancel()
	time.Sleep(1 * time.Second)

	log.Info().Msg("buzzroom shutdown complete")
}
