package links

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS links (
	uuid      TEXT PRIMARY KEY,
	chat_id   TEXT NOT NULL,
	linked_at TIMESTAMP NOT NULL
);`

// SQLiteStore keeps links in a single SQLite table, mirrored in memory for reads.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	links  map[string]string
	logger *slog.Logger
}

// OpenSQLiteStore opens (or creates) the database at path and loads every link.
func OpenSQLiteStore(log *slog.Logger, path string) (*SQLiteStore, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		links:  map[string]string{},
		logger: log.With(slog.String("service", "links"), slog.String("driver", DriverSQLite)),
	}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.logger.Info("links loaded", slog.Int("count", len(s.links)))
	return s, nil
}

func (s *SQLiteStore) load() error {
	rows, err := s.db.Query(`SELECT uuid, chat_id FROM links`)
	if err != nil {
		return fmt.Errorf("load links: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var uuid, chatID string
		if err := rows.Scan(&uuid, &chatID); err != nil {
			return fmt.Errorf("scan link: %w", err)
		}
		s.links[uuid] = chatID
	}
	return rows.Err()
}

// Get returns the Discord user id linked to uuid.
func (s *SQLiteStore) Get(uuid string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chatID, ok := s.links[uuid]
	return chatID, ok
}

// Set upserts the link row, then updates memory.
func (s *SQLiteStore) Set(ctx context.Context, uuid, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO links (uuid, chat_id, linked_at) VALUES (?, ?, ?)
		 ON CONFLICT(uuid) DO UPDATE SET chat_id = excluded.chat_id, linked_at = excluded.linked_at`,
		uuid, chatID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert link: %w", err)
	}
	s.links[uuid] = chatID
	return nil
}

// All returns a copy of every link.
func (s *SQLiteStore) All() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyMap(s.links)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
