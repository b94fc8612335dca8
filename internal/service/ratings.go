package service

import (
	"sort"
	"sync"
	"time"

	"league-referee/internal/domain"
	"league-referee/internal/repository"
)

// RatingCache keeps every known rating in memory so joins never wait on
// storage.
type RatingCache struct {
	mu      sync.RWMutex
	entries map[string]repository.StoredRating
}

func NewRatingCache() *RatingCache {
	return &RatingCache{entries: make(map[string]repository.StoredRating)}
}

func (c *RatingCache) Lookup(auth string) (domain.PlayerRating, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[auth]
	return e.Rating, ok
}

func (c *RatingCache) Load(records []repository.StoredRating) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range records {
		if r.Auth == "" {
			continue
		}
		c.entries[r.Auth] = r
	}
}

func (c *RatingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Apply records the post-match rating of every line with an auth key and
// returns the records that changed.
func (c *RatingCache) Apply(lines []domain.StatLine, now time.Time) []repository.StoredRating {
	c.mu.Lock()
	defer c.mu.Unlock()

	var changed []repository.StoredRating
	for _, l := range lines {
		if l.Auth == "" {
			continue
		}
		prev, ok := c.entries[l.Auth]
		if ok && prev.Rating == l.Rating && prev.Name == l.Name {
			continue
		}
		rec := repository.StoredRating{Auth: l.Auth, Name: l.Name, Rating: l.Rating, UpdatedAt: now}
		c.entries[l.Auth] = rec
		changed = append(changed, rec)
	}
	return changed
}

// Top returns ranked entries by descending rating, ties broken by name.
func (c *RatingCache) Top(limit int) []repository.StoredRating {
	c.mu.RLock()
	out := make([]repository.StoredRating, 0, len(c.entries))
	for _, e := range c.entries {
		if e.Rating.Ranked {
			out = append(out, e)
		}
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating.Rating != out[j].Rating.Rating {
			return out[i].Rating.Rating > out[j].Rating.Rating
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
