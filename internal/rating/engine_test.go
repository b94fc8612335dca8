package rating

import (
	"testing"

	"league-referee/internal/domain"
	"league-referee/internal/ports/portstest"
	"league-referee/internal/registry"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*registry.Registry, *portstest.Host, *Engine, []domain.Player) {
	t.Helper()
	reg := registry.New()
	host := portstest.NewHost()
	players := []domain.Player{
		{ID: 1, Name: "winner", Team: domain.TeamRed},
		{ID: 2, Name: "loser", Team: domain.TeamBlue},
		{ID: 3, Name: "watcher", Team: domain.TeamNone},
		{ID: 4, Name: "casual", Team: domain.TeamBlue},
	}
	for _, p := range players {
		reg.Join(p)
	}
	reg.Rating(1).Ranked = true
	reg.Rating(2).Ranked = true
	reg.Rating(3).Ranked = true
	return reg, host, NewEngine(reg, host, zerolog.Nop()), players
}

func TestWinner(t *testing.T) {
	w, ok := Winner(domain.Scores{Red: 3, Blue: 1})
	assert.True(t, ok)
	assert.Equal(t, domain.TeamRed, w)

	w, ok = Winner(domain.Scores{Red: 0, Blue: 2})
	assert.True(t, ok)
	assert.Equal(t, domain.TeamBlue, w)

	_, ok = Winner(domain.Scores{Red: 2, Blue: 2})
	assert.False(t, ok)
}

func TestSettleAppliesDeltasWithFloor(t *testing.T) {
	reg, _, e, players := setup(t)
	reg.Rating(2).Rating = 1000

	res := e.Settle(players, domain.Scores{Red: 3, Blue: 1}, true)

	assert.Equal(t, 840, reg.Rating(1).Rating)
	assert.Equal(t, 970, reg.Rating(2).Rating)
	assert.Equal(t, 800, reg.Rating(3).Rating, "spectators are not rated")
	assert.Equal(t, 800, reg.Rating(4).Rating, "unranked players are not rated")
	assert.Len(t, res.Changes, 2)
	assert.Equal(t, domain.TeamRed, res.Winner)
}

func TestLoserAtFloorStaysAtFloor(t *testing.T) {
	reg, _, e, players := setup(t)
	e.Settle(players, domain.Scores{Red: 3, Blue: 1}, true)
	assert.Equal(t, 800, reg.Rating(2).Rating)
}

func TestTieLeavesRatings(t *testing.T) {
	reg, _, e, players := setup(t)
	res := e.Settle(players, domain.Scores{Red: 1, Blue: 1}, true)
	assert.Equal(t, 800, reg.Rating(1).Rating)
	assert.Empty(t, res.Changes)
	assert.Equal(t, domain.TeamNone, res.Winner)
}

func TestNoRatingChangeOutsideLeagueMode(t *testing.T) {
	reg, host, e, players := setup(t)
	e.Settle(players, domain.Scores{Red: 3, Blue: 1}, false)
	assert.Equal(t, 800, reg.Rating(1).Rating)
	assert.Len(t, host.Announcements, 5, "header plus one line per player")
}

func TestSettleIsNotIdempotent(t *testing.T) {
	reg, _, e, players := setup(t)
	e.Settle(players, domain.Scores{Red: 3, Blue: 1}, true)
	e.Settle(players, domain.Scores{Red: 3, Blue: 1}, true)
	assert.Equal(t, 880, reg.Rating(1).Rating)
}

func TestStatLines(t *testing.T) {
	reg, host, e, players := setup(t)
	s := reg.Stats(1)
	s.Goals, s.Assists, s.ShotsOnTarget, s.ExpectedGoalsOnTarget = 2, 1, 3, 0.5

	res := e.Settle(players, domain.Scores{Red: 2, Blue: 0}, true)
	require.Len(t, res.Lines, 4)

	texts := host.Texts()
	assert.Equal(t, "--- MATCH STATS ---", texts[0])
	assert.Equal(t, "winner: 2G / 1A / 3 SOT / 0.50 xGOT / 840 ELO [UNRANKED]", texts[1])
	assert.Equal(t, "casual: 0G / 0A / 0 SOT / 0.00 xGOT", texts[4])
}
