package rating

import (
	"fmt"

	"league-referee/internal/constants"
	"league-referee/internal/domain"
	"league-referee/internal/ports"
	"league-referee/internal/rank"
	"league-referee/internal/registry"

	"github.com/rs/zerolog"
)

type Engine struct {
	reg    *registry.Registry
	host   ports.Host
	logger zerolog.Logger
}

func NewEngine(reg *registry.Registry, host ports.Host, logger zerolog.Logger) *Engine {
	return &Engine{reg: reg, host: host, logger: logger.With().Str("component", "rating").Logger()}
}

// Winner returns the team with the strictly higher score. A tie has no winner.
func Winner(s domain.Scores) (domain.Team, bool) {
	switch {
	case s.Red > s.Blue:
		return domain.TeamRed, true
	case s.Blue > s.Red:
		return domain.TeamBlue, true
	}
	return domain.TeamNone, false
}

// Apply adds delta to rating and clamps to the floor.
func Apply(rating, delta int) int {
	return max(constants.RatingFloor, rating+delta)
}

// Settle applies rating deltas (league mode only, never on a tie) and
// broadcasts the post-match stat lines. Calling it twice for the same
// match applies the deltas twice.
func (e *Engine) Settle(players []domain.Player, scores domain.Scores, leagueMode bool) domain.MatchResult {
	winner, decided := Winner(scores)
	result := domain.MatchResult{Scores: scores, Winner: winner, LeagueMode: leagueMode}

	if leagueMode && !decided {
		e.logger.Info().Int("red", scores.Red).Int("blue", scores.Blue).Msg("tied match, ratings unchanged")
	}

	if leagueMode && decided {
		for _, p := range players {
			r := e.reg.Rating(p.ID)
			if !p.Team.Playing() || !r.Ranked {
				continue
			}
			delta := constants.LossDelta
			if p.Team == winner {
				delta = constants.WinDelta
			}
			before := r.Rating
			r.Rating = Apply(r.Rating, delta)
			result.Changes = append(result.Changes, domain.RatingChange{
				PlayerID: p.ID,
				Auth:     p.Auth,
				Name:     p.Name,
				Before:   before,
				After:    r.Rating,
			})
			e.logger.Debug().Int("player_id", p.ID).Int("before", before).Int("after", r.Rating).Msg("rating updated")
		}
	}

	e.announce(domain.Announcement{Text: "--- MATCH STATS ---", To: domain.Everyone, Color: 0xFFFFFF, Style: domain.StyleBold})
	for _, p := range players {
		if !e.reg.HasStats(p.ID) {
			continue
		}
		line := e.Line(p)
		result.Lines = append(result.Lines, line)
		e.announce(domain.Announcement{Text: FormatStatLine(line), To: domain.Everyone})
	}
	return result
}

// Line snapshots the statistics and rating of p.
func (e *Engine) Line(p domain.Player) domain.StatLine {
	line := domain.StatLine{
		PlayerID: p.ID,
		Name:     p.Name,
		Auth:     p.Auth,
		Team:     p.Team,
		Stats:    *e.reg.Stats(p.ID),
		Rating:   *e.reg.Rating(p.ID),
	}
	if line.Rating.Ranked {
		line.TierName = rank.Lookup(line.Rating.Rating).Name
	}
	return line
}

func FormatStatLine(l domain.StatLine) string {
	s := l.Stats
	text := fmt.Sprintf("%s: %dG / %dA / %d SOT / %.2f xGOT", l.Name, s.Goals, s.Assists, s.ShotsOnTarget, s.ExpectedGoalsOnTarget)
	if l.Rating.Ranked {
		text += fmt.Sprintf(" / %d ELO %s", l.Rating.Rating, l.TierName)
	}
	return text
}

func (e *Engine) announce(a domain.Announcement) {
	if err := e.host.Announce(a); err != nil {
		e.logger.Warn().Err(err).Msg("failed to announce match stats")
	}
}
