package ports

import (
	"time"

	"league-referee/internal/domain"
)

// Host is the outbound side of the match host. Implementations must not
// block; failures are reported but never retried by callers.
type Host interface {
	Announce(a domain.Announcement) error
	SetMovement(playerID int, props domain.MovementProperties) error
	PausePlay(paused bool) error
	SetAdmin(playerID int, admin bool) error
}

// Scheduler runs f once after d. Callbacks are fire-and-forget.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

type RealScheduler struct{}

func (RealScheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}
