package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	HostURL    string
	HostToken  string
	RoomName   string
	DBPath     string
	ServerPort string
	LogLevel   string
	WebhookURL string
	Persist    bool
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		HostURL:    getEnv("HOST_URL", "ws://localhost:8090/room"),
		HostToken:  getEnv("HOST_TOKEN", getEnv("HB_TOKEN", "")),
		RoomName:   getEnv("ROOM_NAME", "ACE Official Haxball League"),
		DBPath:     getEnv("DB_PATH", "league.db"),
		ServerPort: getEnv("PORT", "3000"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		WebhookURL: getEnv("WEBHOOK_URL", ""),
		Persist:    getEnvBool("PERSIST", true),
	}

	u, err := url.Parse(cfg.HostURL)
	if err != nil {
		return nil, fmt.Errorf("invalid HOST_URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("HOST_URL must use ws or wss, got %q", u.Scheme)
	}

	logger.Info().
		Str("host_url", u.Redacted()).
		Str("room_name", cfg.RoomName).
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Bool("persist", cfg.Persist).
		Bool("webhook", cfg.WebhookURL != "").
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

var Module = fx.Provide(Load)
