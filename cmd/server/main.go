package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Tyrowin/miniapp-chat/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	config := server.NewConfigFromEnv()
	server.ConfigureLogging(config.LogLevel, config.LogFormat)

	if err := config.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().Msg("Starting mini-app chat server...")

	srv := server.New(config)
	httpServer := server.CreateServer(config.Port, srv.Handler())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.StartServer(httpServer)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server stopped")
		}
	case <-ctx.Done():
		if err := srv.Shutdown(httpServer, shutdownTimeout); err != nil {
			log.Error().Err(err).Msg("Shutdown incomplete")
			os.Exit(1)
		}
	}
}
