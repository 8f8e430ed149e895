// Package bind issues pending link codes and resolves them, exactly once,
// against "!link <code>" chat messages.
package bind

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// CommandPrefix starts a link command. It is case-sensitive and includes the trailing space.
const CommandPrefix = "!link "

// LinkWriter persists a uuid -> chat user link.
type LinkWriter interface {
	Set(ctx context.Context, uuid, chatID string) error
}

// Service drives the code lifecycle: register, then resolve-and-commit.
type Service struct {
	mu       sync.Mutex
	registry *Registry
	links    LinkWriter
	logger   *slog.Logger
}

// NewService creates a bind service over registry and links.
func NewService(log *slog.Logger, registry *Registry, links LinkWriter) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		registry: registry,
		links:    links,
		logger:   log.With(slog.String("service", "bind")),
	}
}

// Register issues (or replaces) a pending code for uuid.
func (s *Service) Register(token, uuid, name string) (Code, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, err := s.registry.Register(token, uuid, name)
	if err != nil {
		return Code{}, err
	}
	s.logger.Info("bind code registered",
		slog.String("uuid", code.UUID),
		slog.String("name", code.Name),
		slog.Time("expires_at", code.ExpiresAt),
	)
	return code, nil
}

// Decide classifies a link attempt. A code is expired only once now is strictly after ExpiresAt.
func Decide(code Code, found bool, now time.Time) Outcome {
	if !found {
		return OutcomeNotFound
	}
	if now.After(code.ExpiresAt) {
		return OutcomeExpired
	}
	return OutcomeLinked
}

// Link resolves token for the chat user chatID. The whole lookup, decision and
// commit runs under one lock, so a code links at most once. Expired codes are
// discarded. When the link cannot be persisted the code is kept, the outcome is
// OutcomeFailed and the error is returned.
func (s *Service) Link(ctx context.Context, token, chatID string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, found := s.registry.Resolve(token)
	outcome := Decide(code, found, s.registry.Now())
	result := Result{Outcome: outcome, ChatID: chatID}

	switch outcome {
	case OutcomeNotFound:
		s.logger.Info("bind code not found", slog.String("chat_id", chatID))
		return result, nil
	case OutcomeExpired:
		s.registry.Consume(token)
		s.logger.Info("bind code expired", slog.String("uuid", code.UUID), slog.String("chat_id", chatID))
		return result, nil
	}

	result.UUID = code.UUID
	result.Name = code.Name
	if err := s.links.Set(ctx, code.UUID, chatID); err != nil {
		result.Outcome = OutcomeFailed
		s.logger.Error("persist link failed",
			slog.String("uuid", code.UUID),
			slog.String("chat_id", chatID),
			slog.Any("error", err),
		)
		return result, err
	}
	s.registry.Consume(token)
	s.logger.Info("bind code consumed",
		slog.String("uuid", code.UUID),
		slog.String("name", code.Name),
		slog.String("chat_id", chatID),
	)
	return result, nil
}

// ParseCommand extracts the code from a "!link <code>" message.
func ParseCommand(text string) (string, bool) {
	content := strings.TrimSpace(text)
	if !strings.HasPrefix(content, CommandPrefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(content, CommandPrefix)), true
}
