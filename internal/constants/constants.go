package constants

import "time"

// Pitch geometry, in host units.
const (
	OffsideThresholdX = 15.0
	AttackingBoxX     = 200.0
	GoalWidth         = 120.0
	GoalCenterX       = 700.0

	// shots closer than this are treated as taken from this distance
	MinShotDistance = 1.0
)

// Ball speed estimate: ticks per second times host-unit scale.
const (
	TicksPerSecond = 60.0
	SpeedUnitScale = 0.05
)

const (
	PenaltyDuration = 30 * time.Second
	PenaltyPause    = 2 * time.Second

	SlowedInvMass      = 1.4
	SlowedAcceleration = 0.07
	NormalInvMass      = 1.0
	NormalAcceleration = 0.1
)

const (
	InitialRating = 800
	RatingFloor   = 800
	WinDelta      = 40
	LossDelta     = -30
)

const (
	DatabaseTimeout = 5 * time.Second
	WebhookTimeout  = 10 * time.Second
	PersistTimeout  = 15 * time.Second
)

const (
	DBMaxOpenConns    = 10
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBatchSize       = 100
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	LeaderboardLimit   = 25
	RecentMatchesLimit = 10
)
