package service

import (
	"context"
	"fmt"
	"sync"

	"league-referee/internal/api"
	"league-referee/internal/config"
	"league-referee/internal/constants"
	"league-referee/internal/domain"
	"league-referee/internal/match"
	"league-referee/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// LeagueService feeds host events into the match engine and takes care of
// everything that happens around a match: restoring ratings, saving results
// and posting summaries. Storage and webhook work never runs on the event
// goroutine.
type LeagueService struct {
	engine     *match.Engine
	cache      *RatingCache
	ratingRepo *repository.RatingRepository
	matchRepo  *repository.MatchRepository
	webhook    *api.WebhookClient
	persist    bool
	logger     zerolog.Logger

	mu       sync.Mutex
	roomLink string
	matches  int
	lastErr  error

	wg sync.WaitGroup
}

func NewLeagueService(
	engine *match.Engine,
	cache *RatingCache,
	ratingRepo *repository.RatingRepository,
	matchRepo *repository.MatchRepository,
	webhook *api.WebhookClient,
	cfg *config.Config,
	logger zerolog.Logger,
) *LeagueService {
	return &LeagueService{
		engine:     engine,
		cache:      cache,
		ratingRepo: ratingRepo,
		matchRepo:  matchRepo,
		webhook:    webhook,
		persist:    cfg.Persist,
		logger:     logger.With().Str("component", "league").Logger(),
	}
}

// Start warms the rating cache from storage.
func (s *LeagueService) Start(ctx context.Context) error {
	if !s.persist {
		s.logger.Info().Msg("persistence disabled, ratings live for this process only")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	records, err := s.ratingRepo.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load ratings: %w", err)
	}
	s.cache.Load(records)
	s.logger.Info().Int("ratings", len(records)).Msg("ratings loaded")
	return nil
}

// Wait blocks until background work for finished matches is done or ctx
// expires.
func (s *LeagueService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *LeagueService) OnSessionStart(link string) {
	s.mu.Lock()
	s.roomLink = link
	s.mu.Unlock()

	s.engine.Reset()
	s.logger.Info().Str("room_link", link).Msg("room session started")
}

func (s *LeagueService) OnPlayerJoin(p domain.Player) { s.engine.OnPlayerJoin(p) }
func (s *LeagueService) OnPlayerLeave(id int)         { s.engine.OnPlayerLeave(id) }
func (s *LeagueService) OnPlayerTeamChange(id int, team domain.Team) {
	s.engine.OnPlayerTeamChange(id, team)
}
func (s *LeagueService) OnPlayerAdminChange(id int, admin bool) {
	s.engine.OnPlayerAdminChange(id, admin)
}
func (s *LeagueService) OnBallKick(id int, ball *domain.Vec) { s.engine.OnBallKick(id, ball) }
func (s *LeagueService) OnPositionTick(t match.Tick)         { s.engine.OnPositionTick(t) }
func (s *LeagueService) OnTeamGoal(team domain.Team)         { s.engine.OnTeamGoal(team) }

func (s *LeagueService) OnChatMessage(id int, text string) bool {
	return s.engine.OnChatMessage(id, text)
}

func (s *LeagueService) OnMatchEnd(scores domain.Scores) {
	res := s.engine.OnMatchEnd(scores)
	changed := s.cache.Apply(res.Lines, res.EndedAt)

	s.mu.Lock()
	s.matches++
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.afterMatch(res, changed)
	}()
}

func (s *LeagueService) afterMatch(res domain.MatchResult, changed []repository.StoredRating) {
	if s.persist {
		if err := s.save(res, changed); err != nil {
			s.setErr(err)
			s.logger.Error().Err(err).Msg("failed to persist match")
		}
	}

	if s.webhook.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.WebhookTimeout)
		defer cancel()
		if err := s.webhook.PostMatch(ctx, res); err != nil {
			s.logger.Warn().Err(err).Msg("failed to post match summary")
		}
	}
}

func (s *LeagueService) save(res domain.MatchResult, changed []repository.StoredRating) error {
	ctx, cancel := context.WithTimeout(context.Background(), constants.PersistTimeout)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.ratingRepo.UpsertBatch(gCtx, changed)
	})

	g.Go(func() error {
		id, err := s.matchRepo.Save(gCtx, res)
		if err != nil {
			return err
		}
		s.logger.Debug().Str("match_id", id).Msg("match persisted")
		return nil
	})

	return g.Wait()
}

func (s *LeagueService) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}

type Status struct {
	RoomLink        string `json:"room_link"`
	LeagueMode      bool   `json:"league_mode"`
	ActivePenalties int    `json:"active_penalties"`
	MatchesPlayed   int    `json:"matches_played"`
	KnownRatings    int    `json:"known_ratings"`
	LastError       string `json:"last_error,omitempty"`
}

func (s *LeagueService) Status() Status {
	st := Status{
		LeagueMode:      s.engine.LeagueMode(),
		ActivePenalties: s.engine.ActivePenalties(),
		KnownRatings:    s.cache.Len(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st.RoomLink = s.roomLink
	st.MatchesPlayed = s.matches
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

func (s *LeagueService) Standings() []domain.StatLine {
	return s.engine.Standings()
}

// Leaderboard reads from storage when it is enabled so entries written by
// earlier processes show up too.
func (s *LeagueService) Leaderboard(ctx context.Context, limit int) ([]repository.StoredRating, error) {
	if !s.persist {
		return s.cache.Top(limit), nil
	}
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	top, err := s.ratingRepo.Top(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return top, nil
}

func (s *LeagueService) RecentMatches(ctx context.Context, limit int) ([]repository.MatchRecord, error) {
	if !s.persist {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	recent, err := s.matchRepo.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent matches: %w", err)
	}
	return recent, nil
}
