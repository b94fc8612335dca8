package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"

	"league-referee/internal/config"
	"league-referee/internal/constants"
	fxmodules "league-referee/internal/fx"
	"league-referee/internal/host"
	"league-referee/internal/server"
	"league-referee/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runServer),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	statusServer *server.StatusServer,
	league *service.LeagueService,
	client *host.Client,
	cfg *config.Config,
	db *sql.DB,
	logger zerolog.Logger,
) {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: statusServer.Handler(),
	}

	hostCtx, stopHost := context.WithCancel(context.Background())
	hostDone := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := league.Start(ctx); err != nil {
				return err
			}

			go func() {
				defer close(hostDone)
				logger.Info().Str("room", cfg.RoomName).Msg("connecting to match host")
				client.ConnectWithRetry(hostCtx, league)
			}()

			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			stopHost()
			select {
			case <-hostDone:
			case <-shutdownCtx.Done():
				logger.Warn().Msg("host connection did not close in time")
			}

			if err := league.Wait(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("pending match results were not saved")
			}

			return closeServerThenDB(shutdownCtx, srv, db, logger)
		},
	})
}

// closeServerThenDB drains in-flight requests before closing the pool they
// read from.
func closeServerThenDB(ctx context.Context, srv interface{ Shutdown(context.Context) error }, db io.Closer, logger zerolog.Logger) error {
	serr := srv.Shutdown(ctx)
	if serr != nil {
		logger.Error().Err(serr).Msg("server shutdown failed")
	}

	if err := db.Close(); err != nil {
		logger.Warn().Err(err).Msg("error closing database connection")
	}

	if serr != nil {
		return serr
	}
	logger.Info().Msg("server stopped gracefully")
	return nil
}
