package host

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"league-referee/internal/config"
	"league-referee/internal/domain"
	"league-referee/internal/match"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	calls  []string
	joined []domain.Player
	ticks  []match.Tick
	kicks  []*domain.Vec
	scores []domain.Scores
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) OnSessionStart(link string) { r.add("session:" + link) }
func (r *recorder) OnPlayerJoin(p domain.Player) {
	r.mu.Lock()
	r.joined = append(r.joined, p)
	r.mu.Unlock()
	r.add("join")
}
func (r *recorder) OnPlayerLeave(int)                       { r.add("leave") }
func (r *recorder) OnPlayerTeamChange(_ int, t domain.Team) { r.add("team:" + t.String()) }
func (r *recorder) OnPlayerAdminChange(int, bool)           { r.add("admin") }
func (r *recorder) OnBallKick(_ int, ball *domain.Vec) {
	r.mu.Lock()
	r.kicks = append(r.kicks, ball)
	r.mu.Unlock()
	r.add("kick")
}
func (r *recorder) OnPositionTick(t match.Tick) {
	r.mu.Lock()
	r.ticks = append(r.ticks, t)
	r.mu.Unlock()
	r.add("tick")
}
func (r *recorder) OnTeamGoal(t domain.Team) { r.add("goal:" + t.String()) }
func (r *recorder) OnMatchEnd(s domain.Scores) {
	r.mu.Lock()
	r.scores = append(r.scores, s)
	r.mu.Unlock()
	r.add("end")
}
func (r *recorder) OnChatMessage(int, string) bool {
	r.add("chat")
	return false
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestDispatchDecodesEvents(t *testing.T) {
	r := &recorder{}
	msgs := []string{
		`{"type":"session_start","payload":{"room_link":"https://x/y"}}`,
		`{"type":"player_join","payload":{"id":3,"name":"n","auth":"k","team":1,"admin":true}}`,
		`{"type":"team_change","payload":{"id":3,"team":2}}`,
		`{"type":"admin_change","payload":{"id":3,"admin":false}}`,
		`{"type":"ball_kick","payload":{"id":3,"ball":{"x":250,"y":-4}}}`,
		`{"type":"ball_kick","payload":{"id":3,"ball":null}}`,
		`{"type":"tick","payload":{"ball":{"x":1,"y":2},"players":[{"id":3,"x":16,"y":0}]}}`,
		`{"type":"team_goal","payload":{"team":2}}`,
		`{"type":"team_victory","payload":{"scores":{"red":1,"blue":3}}}`,
		`{"type":"player_leave","payload":{"id":3}}`,
	}
	for _, m := range msgs {
		reply, err := Dispatch(r, []byte(m))
		require.NoError(t, err, m)
		assert.Nil(t, reply)
	}

	assert.Equal(t, []string{"session:https://x/y", "join", "team:blue", "admin", "kick", "kick", "tick", "goal:blue", "end", "leave"}, r.Calls())
	assert.Equal(t, domain.Player{ID: 3, Name: "n", Auth: "k", Team: domain.TeamRed, Admin: true}, r.joined[0])
	assert.Equal(t, &domain.Vec{X: 250, Y: -4}, r.kicks[0])
	assert.Nil(t, r.kicks[1])
	require.Len(t, r.ticks[0].Players, 1)
	assert.Equal(t, domain.Vec{X: 16}, r.ticks[0].Players[0].Position)
	assert.Equal(t, domain.Scores{Red: 1, Blue: 3}, r.scores[0])
}

func TestDispatchChatReplies(t *testing.T) {
	reply, err := Dispatch(&recorder{}, []byte(`{"type":"chat","seq":42,"payload":{"id":1,"message":"-elo"}}`))
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(reply, &env))
	assert.Equal(t, TypeChatResult, env.Type)
	assert.Equal(t, int64(42), env.Seq)
	assert.JSONEq(t, `{"relay":false}`, string(env.Payload))
}

func TestDispatchErrors(t *testing.T) {
	_, err := Dispatch(&recorder{}, []byte(`not json`))
	assert.Error(t, err)
	_, err = Dispatch(&recorder{}, []byte(`{"type":"mystery"}`))
	assert.Error(t, err)
	_, err = Dispatch(&recorder{}, []byte(`{"type":"tick","payload":{"players":"bad"}}`))
	assert.Error(t, err)
}

func TestUnknownTeamMapsToNone(t *testing.T) {
	r := &recorder{}
	_, err := Dispatch(r, []byte(`{"type":"team_goal","payload":{"team":7}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"goal:spectators"}, r.Calls())
}

func TestCommandsFailWhileDisconnected(t *testing.T) {
	c := NewClient(&config.Config{HostURL: "ws://127.0.0.1:1/room"}, zerolog.Nop())
	assert.ErrorIs(t, c.Announce(domain.Announcement{Text: "x", To: domain.Everyone}), ErrNotConnected)
	assert.ErrorIs(t, c.PausePlay(true), ErrNotConnected)
}

func TestClientRoundTrip(t *testing.T) {
	upgrader := websocket.Upgrader{}
	received := make(chan Envelope, 8)
	gotToken := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken <- r.URL.Query().Get("token")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"chat","seq":7,"payload":{"id":1,"message":"hi"}}`))
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var env Envelope
			if json.Unmarshal(data, &env) == nil {
				received <- env
			}
		}
	}))
	defer srv.Close()

	cfg := &config.Config{HostURL: "ws" + strings.TrimPrefix(srv.URL, "http"), HostToken: "secret"}
	c := NewClient(cfg, zerolog.Nop())
	r := &recorder{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.ConnectWithRetry(ctx, r)

	select {
	case tok := <-gotToken:
		assert.Equal(t, "secret", tok)
	case <-time.After(2 * time.Second):
		t.Fatal("client never dialed")
	}

	select {
	case env := <-received:
		assert.Equal(t, TypeChatResult, env.Type)
		assert.Equal(t, int64(7), env.Seq)
	case <-time.After(2 * time.Second):
		t.Fatal("no chat result")
	}

	require.Eventually(t, c.Connected, time.Second, 10*time.Millisecond)
	require.NoError(t, c.Announce(domain.Announcement{Text: "hello", To: 4, Color: 0xFF0000, Style: domain.StyleBold}))
	require.NoError(t, c.SetMovement(4, domain.MovementProperties{InvMass: 1.4, Acceleration: 0.07}))

	env := <-received
	assert.Equal(t, TypeAnnounce, env.Type)
	assert.JSONEq(t, `{"text":"hello","target":4,"color":16711680,"style":"bold"}`, string(env.Payload))

	env = <-received
	assert.Equal(t, TypeSetDisc, env.Type)
	assert.JSONEq(t, `{"id":4,"invMass":1.4,"acceleration":0.07}`, string(env.Payload))
}
