package domain

import (
	"math"
	"time"
)

type Team int

const (
	TeamNone Team = iota
	TeamRed
	TeamBlue
)

func (t Team) String() string {
	switch t {
	case TeamRed:
		return "red"
	case TeamBlue:
		return "blue"
	default:
		return "spectators"
	}
}

func (t Team) Playing() bool {
	return t == TeamRed || t == TeamBlue
}

type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec) Dist(o Vec) float64 {
	return math.Hypot(v.X-o.X, v.Y-o.Y)
}

type Player struct {
	ID       int
	Name     string
	Auth     string // stable public key from the host, empty for guests
	Team     Team
	Position Vec
	Admin    bool
}

type PlayerStatistics struct {
	Goals                 int
	Assists               int
	ShotsOnTarget         int
	Kicks                 int
	ExpectedGoalsOnTarget float64
}

// Since returns the counters accumulated after base was taken.
func (s PlayerStatistics) Since(base PlayerStatistics) PlayerStatistics {
	return PlayerStatistics{
		Goals:                 s.Goals - base.Goals,
		Assists:               s.Assists - base.Assists,
		ShotsOnTarget:         s.ShotsOnTarget - base.ShotsOnTarget,
		Kicks:                 s.Kicks - base.Kicks,
		ExpectedGoalsOnTarget: math.Round((s.ExpectedGoalsOnTarget-base.ExpectedGoalsOnTarget)*100) / 100,
	}
}

type PlayerRating struct {
	Rating int
	Ranked bool
}

type PenaltyRecord struct {
	PlayerID  int
	ExpiresAt time.Time
}

// Color is a 0xRRGGBB display color understood by the host.
type Color int

type Style string

const (
	StyleNormal Style = ""
	StyleBold   Style = "bold"
)

type RankTier struct {
	Name      string
	Threshold int
	Color     Color
}

type MovementProperties struct {
	InvMass      float64 `json:"invMass"`
	Acceleration float64 `json:"acceleration"`
}

// Everyone addresses an announcement to the whole room.
const Everyone = -1

type Announcement struct {
	Text  string
	To    int
	Color Color
	Style Style
}

type Scores struct {
	Red  int `json:"red"`
	Blue int `json:"blue"`
}

type StatLine struct {
	PlayerID int
	Name     string
	Auth     string
	Team     Team
	Stats    PlayerStatistics
	Rating   PlayerRating
	TierName string
}

type RatingChange struct {
	PlayerID int
	Auth     string
	Name     string
	Before   int
	After    int
}

type MatchResult struct {
	EndedAt    time.Time
	Scores     Scores
	Winner     Team // TeamNone on a tie
	LeagueMode bool
	// Lines carry the statistics of this match only, not session totals.
	Lines   []StatLine
	Changes []RatingChange
}

// Settings holds the per-match toggles owned by the match engine.
type Settings struct {
	LeagueMode bool
}
