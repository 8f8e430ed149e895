package bind

import (
	"errors"
	"time"
)

// Defaults for pending link codes.
const (
	DefaultTTL  = 600 * time.Second
	DefaultName = "unknown"
)

// ErrMissingFields is returned when a registration lacks a code or a uuid.
var ErrMissingFields = errors.New("bind code and uuid are required")

// Code is a pending link: a caller-chosen token waiting to be claimed from Discord.
type Code struct {
	Token     string    `json:"code"`
	UUID      string    `json:"uuid"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Outcome is the result of a link attempt.
type Outcome string

// Link outcomes.
const (
	OutcomeNotFound Outcome = "not_found"
	OutcomeExpired  Outcome = "expired"
	OutcomeLinked   Outcome = "linked"
	OutcomeFailed   Outcome = "failed"
)

// Reply is the chat text sent back for the outcome.
func (o Outcome) Reply() string {
	switch o {
	case OutcomeExpired:
		return "Code expired."
	case OutcomeLinked:
		return "Link complete. You can return in game."
	case OutcomeFailed:
		return "Link failed. Please try again."
	default:
		return "Invalid or expired code."
	}
}

// Result describes a finished link attempt.
type Result struct {
	Outcome Outcome
	UUID    string
	Name    string
	ChatID  string
}
