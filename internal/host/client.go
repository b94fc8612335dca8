package host

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"league-referee/internal/config"
	"league-referee/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	minBackoff    = 1 * time.Second
	maxBackoff    = 30 * time.Second
	readTimeout   = 60 * time.Second
	writeDeadline = 5 * time.Second
	pingInterval  = 20 * time.Second
	sendBuf       = 512
)

var (
	ErrNotConnected = errors.New("host not connected")
	ErrQueueFull    = errors.New("host send queue full")
)

// Client holds the websocket session with the match host bridge. Inbound
// events are dispatched to the Handler on the read goroutine; outbound
// commands are queued without blocking.
type Client struct {
	url    string
	token  string
	logger zerolog.Logger
	dialer *websocket.Dialer

	connected atomic.Bool
	mu        sync.Mutex
	send      chan []byte
}

func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	return &Client{
		url:    cfg.HostURL,
		token:  cfg.HostToken,
		logger: logger.With().Str("component", "host").Logger(),
		dialer: websocket.DefaultDialer,
	}
}

func (c *Client) Connected() bool { return c.connected.Load() }

// ConnectWithRetry keeps a session open, reconnecting with exponential
// backoff. Blocks until ctx is cancelled.
func (c *Client) ConnectWithRetry(ctx context.Context, h Handler) {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}

		connStart := time.Now()
		err := c.connect(ctx, h)
		if ctx.Err() != nil {
			return
		}

		if time.Since(connStart) > time.Minute {
			attempt = 0
		}
		attempt++
		backoff := time.Duration(float64(minBackoff) * math.Pow(2, float64(min(attempt-1, 5))))
		if backoff > maxBackoff {
			backoff = maxBackoff
		}

		c.logger.Warn().Err(err).Int("attempt", attempt).Dur("backoff", backoff).Msg("host connection lost")

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
}

func (c *Client) dialURL() (string, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return "", fmt.Errorf("parse host url: %w", err)
	}
	if c.token != "" {
		q := u.Query()
		q.Set("token", c.token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *Client) connect(ctx context.Context, h Handler) error {
	target, err := c.dialURL()
	if err != nil {
		return err
	}
	conn, _, err := c.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	send := make(chan []byte, sendBuf)
	c.mu.Lock()
	c.send = send
	c.mu.Unlock()
	c.connected.Store(true)
	c.logger.Info().Msg("connected to match host")

	done := make(chan struct{})
	writeErr := make(chan error, 1)
	go func() { writeErr <- c.writePump(conn, send, done) }()

	defer func() {
		c.connected.Store(false)
		c.mu.Lock()
		c.send = nil
		c.mu.Unlock()
		close(done)
	}()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case werr := <-writeErr:
				if werr != nil {
					return fmt.Errorf("write: %w", werr)
				}
			default:
			}
			return fmt.Errorf("read: %w", err)
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		reply, err := Dispatch(h, data)
		if err != nil {
			c.logger.Warn().Err(err).Msg("dropping host message")
			continue
		}
		if reply != nil {
			if err := c.enqueue(reply); err != nil {
				c.logger.Warn().Err(err).Msg("failed to send chat result")
			}
		}
	}
}

// writePump drains the send queue and keeps the connection alive with pings.
func (c *Client) writePump(conn *websocket.Conn, send <-chan []byte, done <-chan struct{}) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				conn.Close()
				return err
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return err
			}
		case <-done:
			return nil
		}
	}
}

func (c *Client) enqueue(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.send == nil {
		return ErrNotConnected
	}
	select {
	case c.send <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

func (c *Client) command(typ string, payload any) error {
	msg, err := Encode(typ, 0, payload)
	if err != nil {
		return err
	}
	return c.enqueue(msg)
}

func (c *Client) Announce(a domain.Announcement) error {
	p := AnnouncePayload{Text: a.Text, Color: int(a.Color), Style: string(a.Style)}
	if a.To != domain.Everyone {
		to := a.To
		p.Target = &to
	}
	return c.command(TypeAnnounce, p)
}

func (c *Client) SetMovement(playerID int, props domain.MovementProperties) error {
	return c.command(TypeSetDisc, SetDiscPayload{ID: playerID, MovementProperties: props})
}

func (c *Client) PausePlay(paused bool) error {
	return c.command(TypePause, PausePayload{Paused: paused})
}

func (c *Client) SetAdmin(playerID int, admin bool) error {
	return c.command(TypeSetAdmin, SetAdminPayload{ID: playerID, Admin: admin})
}
