package match

import (
	"fmt"
	"sync"
	"time"

	"league-referee/internal/command"
	"league-referee/internal/domain"
	"league-referee/internal/penalty"
	"league-referee/internal/ports"
	"league-referee/internal/rating"
	"league-referee/internal/registry"
	"league-referee/internal/stats"

	"github.com/rs/zerolog"
)

// RatingLookup resolves a persisted rating by the player's auth key. It
// must answer from memory.
type RatingLookup interface {
	Lookup(auth string) (domain.PlayerRating, bool)
}

type PlayerPosition struct {
	ID       int
	Position domain.Vec
}

// Tick is one position sample of the ball and every player disc.
type Tick struct {
	Ball    *domain.Vec
	Players []PlayerPosition
}

// Engine owns all per-match state. Every handler takes the engine lock so
// no handler observes another's partial update, including deferred
// callbacks from the scheduler.
type Engine struct {
	mu sync.Mutex

	reg       *registry.Registry
	settings  domain.Settings
	tracker   *stats.Tracker
	penalties *penalty.Machine
	ratings   *rating.Engine
	commands  *command.Dispatcher

	// session counters at the previous match end, by player id
	baseline map[int]domain.PlayerStatistics

	host   ports.Host
	sched  ports.Scheduler
	lookup RatingLookup
	now    func() time.Time
	logger zerolog.Logger
}

func NewEngine(host ports.Host, sched ports.Scheduler, lookup RatingLookup, now func() time.Time, logger zerolog.Logger) *Engine {
	if now == nil {
		now = time.Now
	}
	e := &Engine{
		host:   host,
		lookup: lookup,
		now:    now,
		logger: logger.With().Str("component", "match").Logger(),
	}
	e.sched = serialScheduler{e: e, inner: sched}
	e.build()
	return e
}

func (e *Engine) build() {
	e.reg = registry.New()
	e.tracker = stats.NewTracker(e.reg)
	e.penalties = penalty.NewMachine(e.host, e.sched, e.now, e.logger)
	e.ratings = rating.NewEngine(e.reg, e.host, e.logger)
	e.commands = command.NewDispatcher(e.reg, &e.settings, e.host, e.logger)
	e.baseline = make(map[int]domain.PlayerStatistics)
}

// Reset starts a fresh session: players, statistics, ratings, penalties
// and league mode are all cleared.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings = domain.Settings{}
	e.build()
	e.logger.Info().Msg("session reset")
}

func (e *Engine) OnPlayerJoin(p domain.Player) {
	e.mu.Lock()
	defer e.mu.Unlock()

	first := e.reg.Count() == 0
	e.reg.Join(p)

	if p.Auth != "" && e.lookup != nil {
		if stored, ok := e.lookup.Lookup(p.Auth); ok {
			*e.reg.Rating(p.ID) = stored
			e.logger.Debug().Int("player_id", p.ID).Int("rating", stored.Rating).Msg("rating restored")
		}
	}

	if first && !p.Admin {
		e.reg.SetAdmin(p.ID, true)
		if err := e.host.SetAdmin(p.ID, true); err != nil {
			e.logger.Warn().Err(err).Int("player_id", p.ID).Msg("failed to grant admin")
		}
	}

	e.announce(domain.Announcement{Text: fmt.Sprintf("Welcome %s to ACE!", p.Name), To: domain.Everyone, Color: 0x00FF00, Style: domain.StyleBold})
	e.logger.Info().Int("player_id", p.ID).Str("player", p.Name).Msg("player joined")
}

func (e *Engine) OnPlayerLeave(id int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if p, ok := e.reg.Leave(id); ok {
		e.logger.Info().Int("player_id", id).Str("player", p.Name).Msg("player left")
	}
}

func (e *Engine) OnPlayerTeamChange(id int, team domain.Team) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reg.SetTeam(id, team)
}

func (e *Engine) OnPlayerAdminChange(id int, admin bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reg.SetAdmin(id, admin)
}

func (e *Engine) OnBallKick(id int, ball *domain.Vec) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tracker.Kick(e.player(id), ball)
}

func (e *Engine) OnPositionTick(t Tick) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, pp := range t.Players {
		e.reg.SetPosition(pp.ID, pp.Position)
	}
	e.tracker.Tick(t.Ball)
	e.penalties.Tick(e.reg.Players(), e.settings.LeagueMode)
}

func (e *Engine) OnTeamGoal(team domain.Team) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.penalties.ClearAll()

	g, ok := e.tracker.Goal(team)
	if !ok {
		e.logger.Debug().Str("team", team.String()).Msg("goal without credited scorer")
		return
	}
	msg := fmt.Sprintf("⚽ Goal: %s | Speed: %.2f mph", g.Scorer.Name, g.Speed)
	if g.Assistant != nil {
		msg += " | Assist: " + g.Assistant.Name
	}
	e.announce(domain.Announcement{Text: msg, To: domain.Everyone, Color: 0xFFFF00, Style: domain.StyleBold})
}

// OnMatchEnd settles ratings and broadcasts stat lines. The room sees
// session totals; the returned lines hold only what happened since the
// previous match end. The host must call it exactly once per match.
func (e *Engine) OnMatchEnd(scores domain.Scores) domain.MatchResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := e.ratings.Settle(e.reg.Players(), scores, e.settings.LeagueMode)
	res.EndedAt = e.now()
	for i := range res.Lines {
		l := &res.Lines[i]
		total := l.Stats
		l.Stats = total.Since(e.baseline[l.PlayerID])
		e.baseline[l.PlayerID] = total
	}
	e.logger.Info().
		Int("red", scores.Red).
		Int("blue", scores.Blue).
		Str("winner", res.Winner.String()).
		Int("rating_changes", len(res.Changes)).
		Msg("match ended")
	return res
}

// OnChatMessage reports whether the host should relay the raw text.
func (e *Engine) OnChatMessage(id int, text string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.commands.Dispatch(e.player(id), text)
}

func (e *Engine) LeagueMode() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings.LeagueMode
}

func (e *Engine) ActivePenalties() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.penalties.Count()
}

func (e *Engine) Kickers() stats.KickerChain {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.Chain()
}

// Standings returns a stat line for every connected player.
func (e *Engine) Standings() []domain.StatLine {
	e.mu.Lock()
	defer e.mu.Unlock()

	players := e.reg.Players()
	lines := make([]domain.StatLine, 0, len(players))
	for _, p := range players {
		lines = append(lines, e.ratings.Line(p))
	}
	return lines
}

// player resolves id, falling back to an unassigned placeholder for ids the
// registry has not seen.
func (e *Engine) player(id int) domain.Player {
	if p, ok := e.reg.Get(id); ok {
		return *p
	}
	e.logger.Debug().Int("player_id", id).Msg("event for unknown player")
	return domain.Player{ID: id}
}

func (e *Engine) announce(a domain.Announcement) {
	if err := e.host.Announce(a); err != nil {
		e.logger.Warn().Err(err).Int("to", a.To).Msg("failed to announce")
	}
}

type serialScheduler struct {
	e     *Engine
	inner ports.Scheduler
}

func (s serialScheduler) AfterFunc(d time.Duration, f func()) {
	s.inner.AfterFunc(d, func() {
		s.e.mu.Lock()
		defer s.e.mu.Unlock()
		f()
	})
}
