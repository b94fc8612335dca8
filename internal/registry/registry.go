package registry

import (
	"sort"

	"league-referee/internal/constants"
	"league-referee/internal/domain"
)

// Registry tracks connected players and the per-player statistics and
// ratings that outlive a connection for the rest of the session.
// It is not safe for concurrent use; the match engine serializes access.
type Registry struct {
	players map[int]*domain.Player
	stats   map[int]*domain.PlayerStatistics
	ratings map[int]*domain.PlayerRating
}

func New() *Registry {
	return &Registry{
		players: make(map[int]*domain.Player),
		stats:   make(map[int]*domain.PlayerStatistics),
		ratings: make(map[int]*domain.PlayerRating),
	}
}

// Join registers the player and makes sure its statistics and rating exist.
func (r *Registry) Join(p domain.Player) *domain.Player {
	stored := p
	r.players[p.ID] = &stored
	r.Stats(p.ID)
	r.Rating(p.ID)
	return &stored
}

func (r *Registry) Leave(id int) (domain.Player, bool) {
	p, ok := r.players[id]
	if !ok {
		return domain.Player{}, false
	}
	delete(r.players, id)
	return *p, true
}

func (r *Registry) Get(id int) (*domain.Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

func (r *Registry) Count() int {
	return len(r.players)
}

// Players returns a copy of every connected player, ordered by id.
func (r *Registry) Players() []domain.Player {
	out := make([]domain.Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Stats returns the statistics for id, creating zeroed counters on first use.
func (r *Registry) Stats(id int) *domain.PlayerStatistics {
	s, ok := r.stats[id]
	if !ok {
		s = &domain.PlayerStatistics{}
		r.stats[id] = s
	}
	return s
}

// Rating returns the rating for id, creating an unranked default on first use.
func (r *Registry) Rating(id int) *domain.PlayerRating {
	e, ok := r.ratings[id]
	if !ok {
		e = &domain.PlayerRating{Rating: constants.InitialRating}
		r.ratings[id] = e
	}
	return e
}

func (r *Registry) HasStats(id int) bool {
	_, ok := r.stats[id]
	return ok
}

func (r *Registry) SetTeam(id int, team domain.Team) bool {
	p, ok := r.players[id]
	if ok {
		p.Team = team
	}
	return ok
}

func (r *Registry) SetAdmin(id int, admin bool) bool {
	p, ok := r.players[id]
	if ok {
		p.Admin = admin
	}
	return ok
}

func (r *Registry) SetPosition(id int, pos domain.Vec) bool {
	p, ok := r.players[id]
	if ok {
		p.Position = pos
	}
	return ok
}

// Reset drops every player, statistic and rating. Used on session restart.
func (r *Registry) Reset() {
	r.players = make(map[int]*domain.Player)
	r.stats = make(map[int]*domain.PlayerStatistics)
	r.ratings = make(map[int]*domain.PlayerRating)
}
