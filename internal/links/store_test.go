package links

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/voicelink/internal/logger"
)

func TestFileStoreSetPersists(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data", "links.json")
	s, err := OpenFileStore(logger.Discard(), path)
	require.NoError(t, err)

	require.NoError(t, s.Set(context.Background(), "player-1", "disc-99"))

	chatID, ok := s.Get("player-1")
	assert.True(t, ok)
	assert.Equal(t, "disc-99", chatID)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk map[string]string
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, map[string]string{"player-1": "disc-99"}, onDisk)
}

func TestFileStoreReloadAndOverwrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "links.json")
	s, err := OpenFileStore(logger.Discard(), path)
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), "player-1", "disc-1"))
	require.NoError(t, s.Set(context.Background(), "player-1", "disc-2"))

	reopened, err := OpenFileStore(logger.Discard(), path)
	require.NoError(t, err)
	chatID, ok := reopened.Get("player-1")
	assert.True(t, ok)
	assert.Equal(t, "disc-2", chatID)
	assert.Len(t, reopened.All(), 1)
}

func TestFileStoreCorruptFileStartsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "links.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))

	s, err := OpenFileStore(logger.Discard(), path)
	require.NoError(t, err)
	assert.Empty(t, s.All())
}

func TestFileStorePersistFailureRollsBack(t *testing.T) {
	t.Parallel()

	s, err := OpenFileStore(logger.Discard(), filepath.Join(t.TempDir(), "links.json"))
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), "player-1", "disc-1"))

	s.writeFile = func(string, []byte) error { return errors.New("disk full") }

	err = s.Set(context.Background(), "player-1", "disc-2")
	require.Error(t, err)
	chatID, _ := s.Get("player-1")
	assert.Equal(t, "disc-1", chatID)

	err = s.Set(context.Background(), "player-2", "disc-3")
	require.Error(t, err)
	_, ok := s.Get("player-2")
	assert.False(t, ok)
}

func TestAllReturnsCopy(t *testing.T) {
	t.Parallel()

	s, err := OpenFileStore(logger.Discard(), filepath.Join(t.TempDir(), "links.json"))
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), "player-1", "disc-1"))

	all := s.All()
	all["player-1"] = "tampered"
	chatID, _ := s.Get("player-1")
	assert.Equal(t, "disc-1", chatID)
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := Open(logger.Discard(), DriverSQLite, dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), "player-1", "disc-1"))
	require.NoError(t, s.Set(context.Background(), "player-1", "disc-2"))
	require.NoError(t, s.Close())

	reopened, err := Open(logger.Discard(), DriverSQLite, dir)
	require.NoError(t, err)
	defer reopened.Close()
	chatID, ok := reopened.Get("player-1")
	assert.True(t, ok)
	assert.Equal(t, "disc-2", chatID)
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(logger.Discard(), "redis", t.TempDir())
	assert.Error(t, err)
}
