package command

import (
	"fmt"

	"league-referee/internal/domain"
	"league-referee/internal/ports"
	"league-referee/internal/rank"
	"league-referee/internal/registry"

	"github.com/rs/zerolog"
)

const (
	JoinRanked   = "-ranked"
	ToggleLeague = "-league"
	QueryRating  = "-elo"
)

const (
	adminColor  domain.Color = 0xFF0000
	memberColor domain.Color = 0x32CD32
)

type Dispatcher struct {
	reg      *registry.Registry
	settings *domain.Settings
	host     ports.Host
	logger   zerolog.Logger
}

func NewDispatcher(reg *registry.Registry, settings *domain.Settings, host ports.Host, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{reg: reg, settings: settings, host: host, logger: logger.With().Str("component", "command").Logger()}
}

// Dispatch handles a chat line from p and reports whether the host should
// relay the raw text. Every path re-broadcasts on its own, so it never does.
// Commands match the whole line exactly; anything else is chat.
func (d *Dispatcher) Dispatch(p domain.Player, text string) bool {
	switch text {
	case JoinRanked:
		d.reg.Rating(p.ID).Ranked = true
		d.announce(domain.Announcement{Text: "✅ You are now signed up for Ranked Matches!", To: p.ID, Color: 0x00FF00})
		return false

	case ToggleLeague:
		if p.Admin {
			d.settings.LeagueMode = !d.settings.LeagueMode
			state := "DISABLED ❌"
			if d.settings.LeagueMode {
				state = "ENABLED ✅"
			}
			d.announce(domain.Announcement{Text: "⚠️ League Mode is now " + state, To: domain.Everyone, Color: 0x00FFFF, Style: domain.StyleBold})
			d.logger.Info().Int("admin_id", p.ID).Bool("league_mode", d.settings.LeagueMode).Msg("league mode toggled")
			return false
		}

	case QueryRating:
		r := d.reg.Rating(p.ID)
		if r.Ranked {
			d.announce(domain.Announcement{Text: fmt.Sprintf("📊 Your ELO: %d %s", r.Rating, rank.Lookup(r.Rating).Name), To: p.ID, Color: 0x00FFFF})
		} else {
			d.announce(domain.Announcement{Text: "❌ You are Unranked. Type -ranked to join.", To: p.ID, Color: 0xFF0000})
		}
		return false
	}

	d.announce(domain.Announcement{Text: d.FormatChat(p, text), To: domain.Everyone, Color: chatColor(p)})
	return false
}

// FormatChat tags the line with the sender's role and, when ranked, tier.
func (d *Dispatcher) FormatChat(p domain.Player, text string) string {
	tag := "[MEMBER]"
	if p.Admin {
		tag = "[ADMIN]"
	}
	if r := d.reg.Rating(p.ID); r.Ranked {
		tag += " " + rank.Lookup(r.Rating).Name
	}
	return fmt.Sprintf("%s %s: %s", tag, p.Name, text)
}

func chatColor(p domain.Player) domain.Color {
	if p.Admin {
		return adminColor
	}
	return memberColor
}

func (d *Dispatcher) announce(a domain.Announcement) {
	if err := d.host.Announce(a); err != nil {
		d.logger.Warn().Err(err).Int("to", a.To).Msg("failed to announce")
	}
}
