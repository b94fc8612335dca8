package fx

import (
	"database/sql"
	"time"

	"league-referee/internal/api"
	"league-referee/internal/config"
	"league-referee/internal/database"
	"league-referee/internal/db"
	"league-referee/internal/host"
	"league-referee/internal/logger"
	"league-referee/internal/match"
	"league-referee/internal/ports"
	"league-referee/internal/repository"
	"league-referee/internal/server"
	"league-referee/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideQueries(sqlDB *sql.DB) *db.Queries {
	return db.New(sqlDB)
}

func ProvideHostPort(c *host.Client) ports.Host {
	return c
}

func ProvideEngine(h ports.Host, cache *service.RatingCache, logger zerolog.Logger) *match.Engine {
	return match.NewEngine(h, ports.RealScheduler{}, cache, time.Now, logger)
}

func ProvideStatusServer(league *service.LeagueService, c *host.Client, cfg *config.Config, logger zerolog.Logger) *server.StatusServer {
	return server.NewStatusServer(league, c.Connected, cfg, logger)
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	fx.Provide(ProvideQueries),
	// repos
	fx.Provide(repository.NewRatingRepository),
	fx.Provide(repository.NewMatchRepository),
	// outbound
	fx.Provide(api.NewWebhookClient),
	fx.Provide(host.NewClient),
	fx.Provide(ProvideHostPort),
	// core + svc
	fx.Provide(service.NewRatingCache),
	fx.Provide(ProvideEngine),
	fx.Provide(service.NewLeagueService),
	// server
	fx.Provide(ProvideStatusServer),
)
