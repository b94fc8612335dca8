package service

import (
	"testing"
	"time"

	"league-referee/internal/domain"
	"league-referee/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheLoadSkipsMissingAuth(t *testing.T) {
	c := NewRatingCache()
	c.Load([]repository.StoredRating{
		{Auth: "a", Rating: domain.PlayerRating{Rating: 900, Ranked: true}},
		{Auth: "", Rating: domain.PlayerRating{Rating: 1200}},
	})
	assert.Equal(t, 1, c.Len())

	r, ok := c.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, 900, r.Rating)

	_, ok = c.Lookup("zzz")
	assert.False(t, ok)
}

func TestCacheApplyReturnsOnlyChanges(t *testing.T) {
	c := NewRatingCache()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	lines := []domain.StatLine{
		{Auth: "a", Name: "alpha", Rating: domain.PlayerRating{Rating: 840, Ranked: true}},
		{Auth: "", Name: "guest", Rating: domain.PlayerRating{Rating: 800}},
	}

	changed := c.Apply(lines, now)
	require.Len(t, changed, 1)
	assert.Equal(t, "a", changed[0].Auth)
	assert.Equal(t, now, changed[0].UpdatedAt)

	assert.Empty(t, c.Apply(lines, now))

	lines[0].Rating.Rating = 870
	assert.Len(t, c.Apply(lines, now), 1)
}

func TestCacheTopOrdersRanked(t *testing.T) {
	c := NewRatingCache()
	c.Load([]repository.StoredRating{
		{Auth: "a", Name: "a", Rating: domain.PlayerRating{Rating: 900, Ranked: true}},
		{Auth: "b", Name: "b", Rating: domain.PlayerRating{Rating: 1100, Ranked: true}},
		{Auth: "c", Name: "c", Rating: domain.PlayerRating{Rating: 2000}},
		{Auth: "d", Name: "d", Rating: domain.PlayerRating{Rating: 900, Ranked: true}},
	})

	top := c.Top(0)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"b", "a", "d"}, []string{top[0].Name, top[1].Name, top[2].Name})
	assert.Len(t, c.Top(2), 2)
}
