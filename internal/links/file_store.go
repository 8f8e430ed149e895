package links

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps links in memory and rewrites one JSON object file on every change.
type FileStore struct {
	path      string
	mu        sync.RWMutex
	links     map[string]string
	writeFile func(path string, data []byte) error
	logger    *slog.Logger
}

// OpenFileStore loads path, creating its directory when needed. A missing file
// is an empty store; an unreadable one is logged and also starts empty.
func OpenFileStore(log *slog.Logger, path string) (*FileStore, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &FileStore{
		path:      path,
		links:     map[string]string{},
		writeFile: atomicWrite,
		logger:    log.With(slog.String("service", "links"), slog.String("driver", DriverJSON)),
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		s.logger.Error("read links file failed", slog.String("path", path), slog.Any("error", err))
		return s, nil
	}
	if err := json.Unmarshal(data, &s.links); err != nil {
		s.logger.Error("decode links file failed", slog.String("path", path), slog.Any("error", err))
		s.links = map[string]string{}
		return s, nil
	}
	if s.links == nil {
		s.links = map[string]string{}
	}
	s.logger.Info("links loaded", slog.Int("count", len(s.links)))
	return s, nil
}

// Get returns the Discord user id linked to uuid.
func (s *FileStore) Get(uuid string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chatID, ok := s.links[uuid]
	return chatID, ok
}

// Set links uuid to chatID, replacing any previous link, and rewrites the file.
func (s *FileStore) Set(ctx context.Context, uuid, chatID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.links[uuid]
	s.links[uuid] = chatID
	if err := s.persistLocked(); err != nil {
		if had {
			s.links[uuid] = prev
		} else {
			delete(s.links, uuid)
		}
		return err
	}
	return nil
}

// All returns a copy of every link.
func (s *FileStore) All() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyMap(s.links)
}

// Close is a no-op; every change is already on disk.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) persistLocked() error {
	data, err := json.MarshalIndent(s.links, "", "  ")
	if err != nil {
		return fmt.Errorf("encode links: %w", err)
	}
	if err := s.writeFile(s.path, data); err != nil {
		return fmt.Errorf("write links file: %w", err)
	}
	return nil
}

// atomicWrite replaces path through a temp file in the same directory so a
// crash never leaves a truncated file behind.
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".links-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
