package penalty

import (
	"fmt"
	"sort"
	"time"

	"league-referee/internal/constants"
	"league-referee/internal/domain"
	"league-referee/internal/ports"

	"github.com/rs/zerolog"
)

var (
	Slowed = domain.MovementProperties{InvMass: constants.SlowedInvMass, Acceleration: constants.SlowedAcceleration}
	Normal = domain.MovementProperties{InvMass: constants.NormalInvMass, Acceleration: constants.NormalAcceleration}
)

type record struct {
	domain.PenaltyRecord
	name string
}

// Machine runs the per-player Normal/Penalized state machine. Expiry is
// observed lazily on the next tick after the deadline passes.
type Machine struct {
	host    ports.Host
	sched   ports.Scheduler
	now     func() time.Time
	logger  zerolog.Logger
	records map[int]record
}

func NewMachine(host ports.Host, sched ports.Scheduler, now func() time.Time, logger zerolog.Logger) *Machine {
	if now == nil {
		now = time.Now
	}
	return &Machine{
		host:    host,
		sched:   sched,
		now:     now,
		logger:  logger.With().Str("component", "penalty").Logger(),
		records: make(map[int]record),
	}
}

// Offside reports whether p is in the attacking half for its team.
func Offside(p domain.Player) bool {
	switch p.Team {
	case domain.TeamRed:
		return p.Position.X > constants.OffsideThresholdX
	case domain.TeamBlue:
		return p.Position.X < -constants.OffsideThresholdX
	}
	return false
}

// Tick evaluates new violations (league mode only) and then expires
// records whose deadline has passed.
func (m *Machine) Tick(players []domain.Player, leagueMode bool) {
	now := m.now()

	if leagueMode {
		for _, p := range players {
			if !p.Team.Playing() || !Offside(p) {
				continue
			}
			if _, active := m.records[p.ID]; active {
				continue
			}
			m.penalize(p, now)
		}
	}

	for _, id := range m.sortedIDs() {
		r := m.records[id]
		if !now.After(r.ExpiresAt) {
			continue
		}
		delete(m.records, id)
		m.restore(id)
		m.announce(domain.Announcement{
			Text:  fmt.Sprintf("✅ Penalty expired for %s", r.name),
			To:    id,
			Color: 0x00FF00,
		})
		m.logger.Debug().Int("player_id", id).Msg("penalty expired")
	}
}

func (m *Machine) penalize(p domain.Player, now time.Time) {
	m.records[p.ID] = record{
		PenaltyRecord: domain.PenaltyRecord{PlayerID: p.ID, ExpiresAt: now.Add(constants.PenaltyDuration)},
		name:          p.Name,
	}

	if err := m.host.PausePlay(true); err != nil {
		m.logger.Warn().Err(err).Msg("failed to pause play")
	}
	m.announce(domain.Announcement{
		Text:  fmt.Sprintf("🚨 PENALTY: %s Offside! (Slowed for %ds)", p.Name, int(constants.PenaltyDuration.Seconds())),
		To:    domain.Everyone,
		Color: 0xFF0000,
		Style: domain.StyleBold,
	})
	if err := m.host.SetMovement(p.ID, Slowed); err != nil {
		m.logger.Warn().Err(err).Int("player_id", p.ID).Msg("failed to slow player")
	}
	// resume always fires, even if league mode is switched off meanwhile
	m.sched.AfterFunc(constants.PenaltyPause, func() {
		if err := m.host.PausePlay(false); err != nil {
			m.logger.Warn().Err(err).Msg("failed to resume play")
		}
	})

	m.logger.Info().Int("player_id", p.ID).Str("player", p.Name).Float64("x", p.Position.X).Msg("offside penalty")
}

// ClearAll lifts every active penalty regardless of expiry. Called on goals.
func (m *Machine) ClearAll() {
	for _, id := range m.sortedIDs() {
		m.restore(id)
		delete(m.records, id)
	}
}

func (m *Machine) Active(id int) (domain.PenaltyRecord, bool) {
	r, ok := m.records[id]
	return r.PenaltyRecord, ok
}

func (m *Machine) Count() int { return len(m.records) }

func (m *Machine) restore(id int) {
	if err := m.host.SetMovement(id, Normal); err != nil {
		m.logger.Warn().Err(err).Int("player_id", id).Msg("failed to restore movement")
	}
}

func (m *Machine) announce(a domain.Announcement) {
	if err := m.host.Announce(a); err != nil {
		m.logger.Warn().Err(err).Int("to", a.To).Msg("failed to announce")
	}
}

func (m *Machine) sortedIDs() []int {
	ids := make([]int, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
