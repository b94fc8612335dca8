package stats

import (
	"math"

	"league-referee/internal/constants"
	"league-referee/internal/domain"
	"league-referee/internal/registry"
)

// Kicker is the player snapshot taken at kick time.
type Kicker struct {
	ID   int
	Name string
	Team domain.Team
}

// KickerChain remembers the last two distinct ball touchers.
type KickerChain struct {
	Last       *Kicker
	SecondLast *Kicker
}

func (c *KickerChain) Record(k Kicker) {
	if c.Last != nil && c.Last.ID != k.ID {
		prev := *c.Last
		c.SecondLast = &prev
	}
	c.Last = &k
}

// Goal describes who was credited for a goal.
type Goal struct {
	Scorer    Kicker
	Assistant *Kicker
	Speed     float64
}

// Tracker maintains per-player counters from kick, goal and tick events.
type Tracker struct {
	reg       *registry.Registry
	chain     KickerChain
	lastBall  domain.Vec
	shotSpeed float64
}

func NewTracker(reg *registry.Registry) *Tracker {
	return &Tracker{reg: reg}
}

func (t *Tracker) Chain() KickerChain { return t.chain }

// ShotSpeed is the most recent ball speed estimate in mph.
func (t *Tracker) ShotSpeed() float64 { return t.shotSpeed }

// Kick records a touch by p. ball is nil when the host could not report it.
func (t *Tracker) Kick(p domain.Player, ball *domain.Vec) {
	t.chain.Record(Kicker{ID: p.ID, Name: p.Name, Team: p.Team})

	s := t.reg.Stats(p.ID)
	s.Kicks++

	if ball == nil || !Aiming(p.Team, *ball) {
		return
	}
	s.ShotsOnTarget++
	s.ExpectedGoalsOnTarget += ExpectedGoalIncrement(p.Team, *ball)
}

// Tick updates the ball speed estimate from the displacement since the
// previous sample.
func (t *Tracker) Tick(ball *domain.Vec) {
	if ball == nil {
		return
	}
	t.shotSpeed = round2(ball.Dist(t.lastBall) * constants.TicksPerSecond * constants.SpeedUnitScale)
	t.lastBall = *ball
}

// Goal credits the last kicker when it plays for the scoring team. A goal
// whose last touch came from the other side credits nobody, and only red
// or blue can score.
func (t *Tracker) Goal(team domain.Team) (Goal, bool) {
	scorer := t.chain.Last
	if !team.Playing() || scorer == nil || scorer.Team != team {
		return Goal{}, false
	}
	t.reg.Stats(scorer.ID).Goals++

	g := Goal{Scorer: *scorer, Speed: t.shotSpeed}
	if a := t.chain.SecondLast; a != nil && a.Team == team && a.ID != scorer.ID {
		t.reg.Stats(a.ID).Assists++
		assistant := *a
		g.Assistant = &assistant
	}
	return g, true
}

func Aiming(team domain.Team, ball domain.Vec) bool {
	inWidth := math.Abs(ball.Y) < constants.GoalWidth
	switch team {
	case domain.TeamRed:
		return ball.X > constants.AttackingBoxX && inWidth
	case domain.TeamBlue:
		return ball.X < -constants.AttackingBoxX && inWidth
	}
	return false
}

// OpposingGoal is the center of the goal team attacks.
func OpposingGoal(team domain.Team) domain.Vec {
	if team == domain.TeamBlue {
		return domain.Vec{X: -constants.GoalCenterX}
	}
	return domain.Vec{X: constants.GoalCenterX}
}

func ExpectedGoalIncrement(team domain.Team, ball domain.Vec) float64 {
	dist := math.Max(ball.Dist(OpposingGoal(team)), constants.MinShotDistance)
	return round2(constants.GoalWidth / dist)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
