package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"league-referee/internal/config"
	"league-referee/internal/domain"
	"league-referee/internal/rating"

	"github.com/valyala/fasthttp"
)

// WebhookClient posts match summaries to a Discord-style webhook.
type WebhookClient struct {
	url    string
	room   string
	client *fasthttp.Client

	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

type RateLimitInfo struct {
	Bucket    string `json:"bucket"`
	Remaining int    `json:"remaining"`

	// seconds until reset
	ResetAfter float64 `json:"reset_after"`

	UpdatedAt time.Time `json:"updated_at"`
}

func NewWebhookClient(cfg *config.Config) *WebhookClient {
	return &WebhookClient{
		url:  cfg.WebhookURL,
		room: cfg.RoomName,
		client: &fasthttp.Client{
			MaxConnsPerHost:     4,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

func (c *WebhookClient) Enabled() bool { return c.url != "" }

func (c *WebhookClient) GetRateLimitInfo() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

func (c *WebhookClient) updateRateLimit(resp *fasthttp.Response) {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	if bucket := string(resp.Header.Peek("X-RateLimit-Bucket")); bucket != "" {
		c.rateLimit.Bucket = bucket
	}
	if remaining := resp.Header.Peek("X-RateLimit-Remaining"); len(remaining) > 0 {
		if val, err := fasthttp.ParseUint(remaining); err == nil {
			c.rateLimit.Remaining = val
		}
	}
	if reset := resp.Header.Peek("X-RateLimit-Reset-After"); len(reset) > 0 {
		if val, err := fasthttp.ParseUfloat(reset); err == nil {
			c.rateLimit.ResetAfter = val
		}
	}
	c.rateLimit.UpdatedAt = time.Now()
}

type Embed struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Color       int     `json:"color,omitempty"`
	Fields      []Field `json:"fields,omitempty"`
	Timestamp   string  `json:"timestamp,omitempty"`
}

type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type WebhookPayload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

const (
	colorRed   = 0xE74C3C
	colorBlue  = 0x3498DB
	colorDraw  = 0x95A5A6
	maxFields  = 25
	fieldLimit = 1024
)

// MatchSummary builds the embed for a finished match.
func MatchSummary(room string, res domain.MatchResult) WebhookPayload {
	color := colorDraw
	switch res.Winner {
	case domain.TeamRed:
		color = colorRed
	case domain.TeamBlue:
		color = colorBlue
	}

	embed := Embed{
		Title:       fmt.Sprintf("Match Over: %s", room),
		Description: fmt.Sprintf("Red %d - %d Blue", res.Scores.Red, res.Scores.Blue),
		Color:       color,
		Timestamp:   res.EndedAt.UTC().Format(time.RFC3339),
	}

	deltas := make(map[int]int, len(res.Changes))
	for _, ch := range res.Changes {
		deltas[ch.PlayerID] = ch.After - ch.Before
	}
	for _, l := range res.Lines {
		if len(embed.Fields) == maxFields {
			break
		}
		value := strings.TrimPrefix(rating.FormatStatLine(l), l.Name+": ")
		if d, ok := deltas[l.PlayerID]; ok {
			value += fmt.Sprintf(" (%+d)", d)
		}
		if len(value) > fieldLimit {
			value = value[:fieldLimit]
		}
		embed.Fields = append(embed.Fields, Field{Name: l.Name, Value: value})
	}

	return WebhookPayload{Embeds: []Embed{embed}}
}

func (c *WebhookClient) PostMatch(ctx context.Context, res domain.MatchResult) error {
	return c.post(ctx, MatchSummary(c.room, res))
}

func (c *WebhookClient) post(ctx context.Context, payload WebhookPayload) error {
	if !c.Enabled() {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return fmt.Errorf("webhook: %w", err)
		}
	} else {
		if err := c.client.Do(req, resp); err != nil {
			return fmt.Errorf("webhook: %w", err)
		}
	}

	c.updateRateLimit(resp)

	if resp.StatusCode() == fasthttp.StatusTooManyRequests {
		return fmt.Errorf("webhook rate limited")
	}
	if resp.StatusCode() >= 300 {
		return fmt.Errorf("webhook error: %d", resp.StatusCode())
	}
	return nil
}
