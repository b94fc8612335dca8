package config

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, k := range []string{"HOST_URL", "HOST_TOKEN", "HB_TOKEN", "ROOM_NAME", "DB_PATH", "PORT", "LOG_LEVEL", "WEBHOOK_URL", "PERSIST"} {
		t.Setenv(k, "")
	}

	cfg, err := Load(zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8090/room", cfg.HostURL)
	assert.Equal(t, "3000", cfg.ServerPort)
	assert.Equal(t, "league.db", cfg.DBPath)
	assert.True(t, cfg.Persist)
}

func TestLoadOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOST_URL", "wss://bridge.example/room")
	t.Setenv("HOST_TOKEN", "")
	t.Setenv("HB_TOKEN", "legacy")
	t.Setenv("PORT", "8080")
	t.Setenv("PERSIST", "false")

	cfg, err := Load(zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "wss://bridge.example/room", cfg.HostURL)
	assert.Equal(t, "legacy", cfg.HostToken)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.False(t, cfg.Persist)
}

func TestLoadRejectsNonWebsocketHost(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOST_URL", "http://bridge.example")

	_, err := Load(zerolog.Nop())
	assert.Error(t, err)
}
