package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/voicelink/internal/links"
	"github.com/memohai/voicelink/internal/logger"
)

func writeConfig(t *testing.T, dataDir string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	body := fmt.Sprintf(`
[log]
level = "error"

[server]
port = 0

[discord]
guild_id = "g1"

[auth]
secret = "s3cret"

[storage]
driver = "json"
data_dir = %q
`, dataDir)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestNewAppWiresEverything(t *testing.T) {
	dataDir := t.TempDir()
	app := newApp(writeConfig(t, dataDir))
	require.NoError(t, app.Err())
	_, err := os.Stat(dataDir)
	assert.NoError(t, err)
}

func TestNewAppRejectsBrokenConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	app := newApp(path)
	assert.Error(t, app.Err())
}

func TestLinksListCommand(t *testing.T) {
	dataDir := t.TempDir()
	store, err := links.Open(logger.Discard(), links.DriverJSON, dataDir)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), "player-2", "disc-2"))
	require.NoError(t, store.Set(context.Background(), "player-1", "disc-1"))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", writeConfig(t, dataDir), "links", "list"})
	require.NoError(t, cmd.Execute())

	text := out.String()
	assert.Contains(t, text, "UUID")
	assert.Less(t, bytes.Index(out.Bytes(), []byte("player-1")), bytes.Index(out.Bytes(), []byte("player-2")))
	assert.Contains(t, text, "disc-1")
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "voicelink ")
}
