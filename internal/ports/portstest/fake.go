// Package portstest provides in-memory doubles for the outbound ports.
package portstest

import (
	"errors"
	"sync"
	"time"

	"league-referee/internal/domain"
)

var ErrDisconnected = errors.New("player disconnected")

type MovementCall struct {
	PlayerID int
	Props    domain.MovementProperties
}

// Host records every outbound call. Players listed in Gone make
// SetMovement and targeted Announce calls fail.
type Host struct {
	mu            sync.Mutex
	Announcements []domain.Announcement
	Movements     []MovementCall
	Pauses        []bool
	Admins        map[int]bool
	Gone          map[int]bool
}

func NewHost() *Host {
	return &Host{Admins: make(map[int]bool), Gone: make(map[int]bool)}
}

func (h *Host) Announce(a domain.Announcement) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if a.To != domain.Everyone && h.Gone[a.To] {
		return ErrDisconnected
	}
	h.Announcements = append(h.Announcements, a)
	return nil
}

func (h *Host) SetMovement(playerID int, props domain.MovementProperties) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.Gone[playerID] {
		return ErrDisconnected
	}
	h.Movements = append(h.Movements, MovementCall{PlayerID: playerID, Props: props})
	return nil
}

func (h *Host) PausePlay(paused bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Pauses = append(h.Pauses, paused)
	return nil
}

func (h *Host) SetAdmin(playerID int, admin bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Admins[playerID] = admin
	return nil
}

// Texts returns the announcement texts in order.
func (h *Host) Texts() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.Announcements))
	for i, a := range h.Announcements {
		out[i] = a.Text
	}
	return out
}

func (h *Host) Last() domain.Announcement {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.Announcements) == 0 {
		return domain.Announcement{}
	}
	return h.Announcements[len(h.Announcements)-1]
}

func (h *Host) PauseCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.Pauses)
}

func (h *Host) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Announcements = nil
	h.Movements = nil
	h.Pauses = nil
}

// Scheduler holds callbacks until Fire is called.
type Scheduler struct {
	mu      sync.Mutex
	Pending []Scheduled
}

type Scheduled struct {
	Delay time.Duration
	F     func()
}

func (s *Scheduler) AfterFunc(d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Pending = append(s.Pending, Scheduled{Delay: d, F: f})
}

// Fire runs and drops every pending callback.
func (s *Scheduler) Fire() {
	s.mu.Lock()
	pending := s.Pending
	s.Pending = nil
	s.mu.Unlock()
	for _, p := range pending {
		p.F()
	}
}

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
