package boot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/voicelink/internal/config"
)

func envOf(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestBuildEnvOverridesFile(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	cfg.Discord.Token = "file-token"
	cfg.Discord.GuildID = "file-guild"
	cfg.Auth.Secret = "file-secret"

	rc, err := build(cfg, envOf(map[string]string{
		"DISCORD_TOKEN":    "env-token",
		"DISCORD_GUILD_ID": "env-guild",
		"PORT":             "8081",
		"BOT_SECRET":       "env-secret",
	}))
	require.NoError(t, err)
	assert.Equal(t, "env-token", rc.Token)
	assert.Equal(t, "env-guild", rc.GuildID)
	assert.Equal(t, 8081, rc.Port)
	assert.Equal(t, "env-secret", rc.Secret)
	assert.Equal(t, ":8081", rc.Addr())
	assert.Equal(t, 10*time.Second, rc.CallTimeout)
	assert.Empty(t, rc.Problems())
}

func TestBuildDefaultsAndProblems(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	cfg.Server.Port = 0
	cfg.Storage.Driver = " SQLite "

	rc, err := build(cfg, envOf(nil))
	require.NoError(t, err)
	assert.Equal(t, 3000, rc.Port)
	assert.Equal(t, "sqlite", rc.StorageDriver)
	assert.Equal(t, "data", rc.DataDir)
	assert.Len(t, rc.Problems(), 3)
}

func TestBuildRejectsBadValues(t *testing.T) {
	t.Parallel()

	_, err := build(config.Defaults(), envOf(map[string]string{"PORT": "abc"}))
	assert.Error(t, err)

	cfg := config.Defaults()
	cfg.Discord.CallTimeout = "soon"
	_, err = build(cfg, envOf(nil))
	assert.Error(t, err)
}
