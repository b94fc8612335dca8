package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"league-referee/internal/config"
	"league-referee/internal/constants"
	"league-referee/internal/domain"
	"league-referee/internal/middleware"
	"league-referee/internal/repository"
	"league-referee/internal/service"

	"connectrpc.com/connect"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const LeagueStatusPath = "/league.v1.LeagueStatus/"

const (
	GetStatusProcedure      = LeagueStatusPath + "GetStatus"
	GetStandingsProcedure   = LeagueStatusPath + "GetStandings"
	GetLeaderboardProcedure = LeagueStatusPath + "GetLeaderboard"
	GetMatchesProcedure     = LeagueStatusPath + "GetMatches"
)

// StatusServer exposes read-only views of the running room.
type StatusServer struct {
	league    *service.LeagueService
	connected func() bool
	room      string
	logger    zerolog.Logger
}

func NewStatusServer(league *service.LeagueService, connected func() bool, cfg *config.Config, logger zerolog.Logger) *StatusServer {
	return &StatusServer{
		league:    league,
		connected: connected,
		room:      cfg.RoomName,
		logger:    logger,
	}
}

func (s *StatusServer) Handler() http.Handler {
	readOnly := connect.WithIdempotency(connect.IdempotencyNoSideEffects)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.liveness)
	mux.Handle(GetStatusProcedure, connect.NewUnaryHandler(GetStatusProcedure, s.GetStatus, readOnly))
	mux.Handle(GetStandingsProcedure, connect.NewUnaryHandler(GetStandingsProcedure, s.GetStandings, readOnly))
	mux.Handle(GetLeaderboardProcedure, connect.NewUnaryHandler(GetLeaderboardProcedure, s.GetLeaderboard, readOnly))
	mux.Handle(GetMatchesProcedure, connect.NewUnaryHandler(GetMatchesProcedure, s.GetMatches, readOnly))

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{middleware.HeaderRequestID},
	})

	return middleware.RequestID(s.logger)(c.Handler(mux))
}

func (s *StatusServer) liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(s.room + " referee is running"))
}

type statusResponse struct {
	Room      string `json:"room"`
	Connected bool   `json:"connected"`
	service.Status
}

func (s *StatusServer) GetStatus(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
	out := &structpb.Struct{}
	if err := toMessage(statusResponse{Room: s.room, Connected: s.connected(), Status: s.league.Status()}, out); err != nil {
		return nil, s.fail(ctx, req.Spec(), err)
	}
	return connect.NewResponse(out), nil
}

func (s *StatusServer) GetStandings(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[structpb.ListValue], error) {
	lines := s.league.Standings()
	rows := make([]statLine, len(lines))
	for i, l := range lines {
		rows[i] = toStatLine(l, 0)
	}

	out := &structpb.ListValue{}
	if err := toMessage(rows, out); err != nil {
		return nil, s.fail(ctx, req.Spec(), err)
	}
	return connect.NewResponse(out), nil
}

// GetLeaderboard lists ranked players. The optional request value caps the
// number of rows.
func (s *StatusServer) GetLeaderboard(ctx context.Context, req *connect.Request[wrapperspb.Int32Value]) (*connect.Response[structpb.ListValue], error) {
	top, err := s.league.Leaderboard(ctx, limit(req.Msg, constants.LeaderboardLimit))
	if err != nil {
		return nil, s.fail(ctx, req.Spec(), err)
	}
	rows := make([]leaderboardEntry, len(top))
	for i, e := range top {
		rows[i] = toLeaderboardEntry(i+1, e)
	}

	out := &structpb.ListValue{}
	if err := toMessage(rows, out); err != nil {
		return nil, s.fail(ctx, req.Spec(), err)
	}
	return connect.NewResponse(out), nil
}

func (s *StatusServer) GetMatches(ctx context.Context, req *connect.Request[wrapperspb.Int32Value]) (*connect.Response[structpb.ListValue], error) {
	recent, err := s.league.RecentMatches(ctx, limit(req.Msg, constants.RecentMatchesLimit))
	if err != nil {
		return nil, s.fail(ctx, req.Spec(), err)
	}
	rows := make([]matchRecord, len(recent))
	for i, m := range recent {
		rows[i] = toMatchRecord(m)
	}

	out := &structpb.ListValue{}
	if err := toMessage(rows, out); err != nil {
		return nil, s.fail(ctx, req.Spec(), err)
	}
	return connect.NewResponse(out), nil
}

func (s *StatusServer) fail(ctx context.Context, spec connect.Spec, err error) error {
	zerolog.Ctx(ctx).Error().Err(err).Str("procedure", spec.Procedure).Msg("request failed")
	return connect.NewError(connect.CodeInternal, err)
}

// limit reads the requested row count, falling back when it is unset and
// capping it at four times the fallback.
func limit(v *wrapperspb.Int32Value, fallback int) int {
	n := int(v.GetValue())
	if n <= 0 {
		return fallback
	}
	return min(n, fallback*4)
}

// toMessage fills a struct or list value from the JSON form of v.
func toMessage(v any, out proto.Message) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	if err := protojson.Unmarshal(b, out); err != nil {
		return fmt.Errorf("convert response: %w", err)
	}
	return nil
}

type statLine struct {
	PlayerID      int     `json:"player_id"`
	Name          string  `json:"name"`
	Team          string  `json:"team"`
	Goals         int     `json:"goals"`
	Assists       int     `json:"assists"`
	ShotsOnTarget int     `json:"shots_on_target"`
	Kicks         int     `json:"kicks"`
	XGOT          float64 `json:"xgot"`
	Rating        int     `json:"rating"`
	Ranked        bool    `json:"ranked"`
	Tier          string  `json:"tier,omitempty"`
	RatingChange  int     `json:"rating_change,omitempty"`
}

func toStatLine(l domain.StatLine, change int) statLine {
	return statLine{
		PlayerID:      l.PlayerID,
		Name:          l.Name,
		Team:          l.Team.String(),
		Goals:         l.Stats.Goals,
		Assists:       l.Stats.Assists,
		ShotsOnTarget: l.Stats.ShotsOnTarget,
		Kicks:         l.Stats.Kicks,
		XGOT:          l.Stats.ExpectedGoalsOnTarget,
		Rating:        l.Rating.Rating,
		Ranked:        l.Rating.Ranked,
		Tier:          l.TierName,
		RatingChange:  change,
	}
}

type leaderboardEntry struct {
	Position  int    `json:"position"`
	Name      string `json:"name"`
	Rating    int    `json:"rating"`
	Tier      string `json:"tier"`
	UpdatedAt int64  `json:"updated_at"`
}

func toLeaderboardEntry(pos int, e repository.StoredRating) leaderboardEntry {
	return leaderboardEntry{
		Position:  pos,
		Name:      e.Name,
		Rating:    e.Rating.Rating,
		Tier:      e.Tier(),
		UpdatedAt: e.UpdatedAt.Unix(),
	}
}

type matchRecord struct {
	ID         string     `json:"id"`
	EndedAt    int64      `json:"ended_at"`
	Red        int        `json:"red"`
	Blue       int        `json:"blue"`
	Winner     string     `json:"winner"`
	LeagueMode bool       `json:"league_mode"`
	Players    []statLine `json:"players"`
}

func toMatchRecord(m repository.MatchRecord) matchRecord {
	rec := matchRecord{
		ID:         m.ID,
		EndedAt:    m.EndedAt.Unix(),
		Red:        m.Scores.Red,
		Blue:       m.Scores.Blue,
		Winner:     m.Winner,
		LeagueMode: m.LeagueMode,
		Players:    make([]statLine, len(m.Players)),
	}
	for i, p := range m.Players {
		rec.Players[i] = statLine{
			PlayerID:      int(p.PlayerID),
			Name:          p.Name,
			Team:          p.Team,
			Goals:         int(p.Goals),
			Assists:       int(p.Assists),
			ShotsOnTarget: int(p.ShotsOnTarget),
			Kicks:         int(p.Kicks),
			XGOT:          p.Xgot,
			Rating:        int(p.Rating),
			Ranked:        p.Ranked,
			Tier:          p.TierName,
			RatingChange:  int(p.RatingChange),
		}
	}
	return rec
}
