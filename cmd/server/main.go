package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/Chat/internal/adapters/http"
	"github.com/dkeye/Chat/internal/app"
	"github.com/dkeye/Chat/internal/app/orch"
	"github.com/dkeye/Chat/internal/config"
	"github.com/dkeye/Chat/internal/domain"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Mode == "release" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	policy, err := app.PolicyByName(cfg.Backpressure)
	if err != nil {
		log.Fatal().Err(err).Msg("backpressure policy")
	}
	defaultRoom := domain.RoomName(cfg.DefaultRoom)

	o := &orch.Orchestrator{
		Registry:    app.NewRegistry(),
		Rooms:       app.NewRoomManager(defaultRoom, cfg.HistoryLimit, nil),
		Policy:      policy,
		DefaultRoom: defaultRoom,
	}
	go o.RunJanitor(ctx, cfg.JanitorInterval, cfg.RoomIdleTTL)

	r := router.SetupRouter(ctx, cfg, o)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Chat server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
