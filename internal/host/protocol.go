package host

import (
	"encoding/json"
	"fmt"

	"league-referee/internal/domain"
	"league-referee/internal/match"
)

// Inbound event types sent by the match host bridge.
const (
	TypeSessionStart = "session_start"
	TypePlayerJoin   = "player_join"
	TypePlayerLeave  = "player_leave"
	TypeTeamChange   = "team_change"
	TypeAdminChange  = "admin_change"
	TypeBallKick     = "ball_kick"
	TypeTick         = "tick"
	TypeTeamGoal     = "team_goal"
	TypeTeamVictory  = "team_victory"
	TypeChat         = "chat"
)

// Outbound command types.
const (
	TypeAnnounce   = "announce"
	TypeSetDisc    = "set_disc"
	TypePause      = "pause"
	TypeSetAdmin   = "set_admin"
	TypeChatResult = "chat_result"
)

// Handler receives decoded host events. Calls are made sequentially from a
// single goroutine in arrival order.
type Handler interface {
	OnSessionStart(link string)
	OnPlayerJoin(p domain.Player)
	OnPlayerLeave(id int)
	OnPlayerTeamChange(id int, team domain.Team)
	OnPlayerAdminChange(id int, admin bool)
	OnBallKick(id int, ball *domain.Vec)
	OnPositionTick(t match.Tick)
	OnTeamGoal(team domain.Team)
	OnMatchEnd(scores domain.Scores)
	OnChatMessage(id int, text string) bool
}

// Envelope is the wire format in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Seq     int64           `json:"seq,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type SessionStartPayload struct {
	RoomLink string `json:"room_link"`
}

type PlayerPayload struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Auth  string `json:"auth"`
	Team  int    `json:"team"`
	Admin bool   `json:"admin"`
}

type TeamChangePayload struct {
	ID   int `json:"id"`
	Team int `json:"team"`
}

type AdminChangePayload struct {
	ID    int  `json:"id"`
	Admin bool `json:"admin"`
}

type BallKickPayload struct {
	ID   int         `json:"id"`
	Ball *domain.Vec `json:"ball"`
}

type DiscPayload struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type TickPayload struct {
	Ball    *domain.Vec   `json:"ball"`
	Players []DiscPayload `json:"players"`
}

type TeamGoalPayload struct {
	Team int `json:"team"`
}

type TeamVictoryPayload struct {
	Scores domain.Scores `json:"scores"`
}

type ChatPayload struct {
	ID      int    `json:"id"`
	Message string `json:"message"`
}

type AnnouncePayload struct {
	Text   string `json:"text"`
	Target *int   `json:"target"`
	Color  int    `json:"color"`
	Style  string `json:"style,omitempty"`
}

type SetDiscPayload struct {
	ID int `json:"id"`
	domain.MovementProperties
}

type PausePayload struct {
	Paused bool `json:"paused"`
}

type SetAdminPayload struct {
	ID    int  `json:"id"`
	Admin bool `json:"admin"`
}

type ChatResultPayload struct {
	Relay bool `json:"relay"`
}

func toTeam(v int) domain.Team {
	switch domain.Team(v) {
	case domain.TeamRed, domain.TeamBlue:
		return domain.Team(v)
	}
	return domain.TeamNone
}

// Dispatch decodes one inbound message and forwards it to h. For chat
// messages it returns the reply envelope the host is waiting for.
func Dispatch(h Handler, data []byte) ([]byte, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case TypeSessionStart:
		var p SessionStartPayload
		if err := decode(env, &p); err != nil {
			return nil, err
		}
		h.OnSessionStart(p.RoomLink)

	case TypePlayerJoin:
		var p PlayerPayload
		if err := decode(env, &p); err != nil {
			return nil, err
		}
		h.OnPlayerJoin(domain.Player{ID: p.ID, Name: p.Name, Auth: p.Auth, Team: toTeam(p.Team), Admin: p.Admin})

	case TypePlayerLeave:
		var p PlayerPayload
		if err := decode(env, &p); err != nil {
			return nil, err
		}
		h.OnPlayerLeave(p.ID)

	case TypeTeamChange:
		var p TeamChangePayload
		if err := decode(env, &p); err != nil {
			return nil, err
		}
		h.OnPlayerTeamChange(p.ID, toTeam(p.Team))

	case TypeAdminChange:
		var p AdminChangePayload
		if err := decode(env, &p); err != nil {
			return nil, err
		}
		h.OnPlayerAdminChange(p.ID, p.Admin)

	case TypeBallKick:
		var p BallKickPayload
		if err := decode(env, &p); err != nil {
			return nil, err
		}
		h.OnBallKick(p.ID, p.Ball)

	case TypeTick:
		var p TickPayload
		if err := decode(env, &p); err != nil {
			return nil, err
		}
		t := match.Tick{Ball: p.Ball, Players: make([]match.PlayerPosition, len(p.Players))}
		for i, d := range p.Players {
			t.Players[i] = match.PlayerPosition{ID: d.ID, Position: domain.Vec{X: d.X, Y: d.Y}}
		}
		h.OnPositionTick(t)

	case TypeTeamGoal:
		var p TeamGoalPayload
		if err := decode(env, &p); err != nil {
			return nil, err
		}
		h.OnTeamGoal(toTeam(p.Team))

	case TypeTeamVictory:
		var p TeamVictoryPayload
		if err := decode(env, &p); err != nil {
			return nil, err
		}
		h.OnMatchEnd(p.Scores)

	case TypeChat:
		var p ChatPayload
		if err := decode(env, &p); err != nil {
			return nil, err
		}
		relay := h.OnChatMessage(p.ID, p.Message)
		return Encode(TypeChatResult, env.Seq, ChatResultPayload{Relay: relay})

	default:
		return nil, fmt.Errorf("unknown event type: %s", env.Type)
	}
	return nil, nil
}

func decode(env Envelope, v any) error {
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", env.Type, err)
	}
	return nil
}

// Encode wraps payload in an envelope.
func Encode(typ string, seq int64, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return json.Marshal(Envelope{Type: typ, Seq: seq, Payload: raw})
}
