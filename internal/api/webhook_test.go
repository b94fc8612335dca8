package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"league-referee/internal/config"
	"league-referee/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() domain.MatchResult {
	return domain.MatchResult{
		EndedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Scores:  domain.Scores{Red: 2, Blue: 1},
		Winner:  domain.TeamRed,
		Lines: []domain.StatLine{
			{PlayerID: 1, Name: "x", Stats: domain.PlayerStatistics{Goals: 2}, Rating: domain.PlayerRating{Rating: 840, Ranked: true}, TierName: "[UNRANKED]"},
			{PlayerID: 2, Name: "y"},
		},
		Changes: []domain.RatingChange{{PlayerID: 1, Before: 800, After: 840}},
	}
}

func TestMatchSummary(t *testing.T) {
	p := MatchSummary("room", sampleResult())
	require.Len(t, p.Embeds, 1)
	e := p.Embeds[0]
	assert.Equal(t, "Red 2 - 1 Blue", e.Description)
	assert.Equal(t, colorRed, e.Color)
	assert.Equal(t, "2024-06-01T12:00:00Z", e.Timestamp)
	require.Len(t, e.Fields, 2)
	assert.Equal(t, "2G / 0A / 0 SOT / 0.00 xGOT / 840 ELO [UNRANKED] (+40)", e.Fields[0].Value)
	assert.Equal(t, "0G / 0A / 0 SOT / 0.00 xGOT", e.Fields[1].Value)
}

func TestMatchSummaryTieColor(t *testing.T) {
	res := sampleResult()
	res.Winner = domain.TeamNone
	assert.Equal(t, colorDraw, MatchSummary("room", res).Embeds[0].Color)
}

func TestPostMatch(t *testing.T) {
	got := make(chan WebhookPayload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		var p WebhookPayload
		assert.NoError(t, json.Unmarshal(body, &p))
		got <- p
		w.Header().Set("X-RateLimit-Remaining", "4")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewWebhookClient(&config.Config{WebhookURL: srv.URL, RoomName: "room"})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, c.PostMatch(ctx, sampleResult()))
	p := <-got
	assert.Equal(t, "Match Over: room", p.Embeds[0].Title)
	assert.Equal(t, 4, c.GetRateLimitInfo().Remaining)
}

func TestPostMatchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewWebhookClient(&config.Config{WebhookURL: srv.URL})
	assert.Error(t, c.PostMatch(context.Background(), sampleResult()))
}

func TestDisabledWebhookIsNoop(t *testing.T) {
	c := NewWebhookClient(&config.Config{})
	assert.False(t, c.Enabled())
	assert.NoError(t, c.PostMatch(context.Background(), sampleResult()))
}
