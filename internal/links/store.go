// Package links stores the durable game uuid -> Discord user id mapping.
package links

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// Storage drivers accepted by Open.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Reader looks up the Discord user linked to a game uuid.
type Reader interface {
	Get(uuid string) (chatID string, ok bool)
}

// Store is the single writable source of truth for links. Set persists
// synchronously; when persisting fails the in-memory mapping is left as it was.
type Store interface {
	Reader
	Set(ctx context.Context, uuid, chatID string) error
	All() map[string]string
	Close() error
}

// Open creates the store for driver under dir.
func Open(log *slog.Logger, driver, dir string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverJSON:
		s, err := OpenFileStore(log, filepath.Join(dir, "links.json"))
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverSQLite:
		s, err := OpenSQLiteStore(log, filepath.Join(dir, "links.db"))
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

func copyMap(src map[string]string) map[string]string {
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
