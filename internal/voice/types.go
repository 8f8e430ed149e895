package voice

import (
	"context"
	"errors"
	"strings"
)

// Errors returned by the dispatcher and by Gateway implementations.
var (
	ErrMissingFields   = errors.New("uuid and channelId are required")
	ErrMissingMoves    = errors.New("moves are required")
	ErrChannelNotFound = errors.New("channel not found")
)

// Channel is a guild channel as seen by the dispatcher.
type Channel struct {
	ID    string
	Name  string
	Voice bool
}

// Gateway hands out the guild the dispatcher works in.
type Gateway interface {
	Guild(ctx context.Context) (Guild, error)
}

// Guild is the subset of chat-platform operations a move needs.
type Guild interface {
	// VoiceChannelOf returns the voice channel userID is connected to, or "" when not in voice.
	VoiceChannelOf(ctx context.Context, userID string) (string, error)
	// Channel fetches a channel; ErrChannelNotFound when it does not exist in the guild.
	Channel(ctx context.Context, channelID string) (Channel, error)
	// MoveMember relocates userID's voice session to channelID.
	MoveMember(ctx context.Context, userID, channelID string) error
}

// MoveRequest asks for the user linked to UUID to be moved into ChannelID.
type MoveRequest struct {
	UUID      string `json:"uuid"`
	ChannelID string `json:"channelId"`
}

// Valid reports whether both fields are present.
func (r MoveRequest) Valid() bool {
	return strings.TrimSpace(r.UUID) != "" && strings.TrimSpace(r.ChannelID) != ""
}

// Outcome is the result of one move.
type Outcome string

// Move outcomes.
const (
	OutcomeMoved          Outcome = "moved"
	OutcomeNotLinked      Outcome = "not_linked"
	OutcomeNotInVoice     Outcome = "not_in_voice"
	OutcomeInvalidChannel Outcome = "invalid_channel"
	OutcomeFailed         Outcome = "move_failed"
	OutcomeSkipped        Outcome = "skipped"
)

// Tally counts batch outcomes.
type Tally struct {
	Moved          int `json:"moved"`
	NotLinked      int `json:"notLinked"`
	NotInVoice     int `json:"notInVoice"`
	InvalidChannel int `json:"invalidChannel"`
	Skipped        int `json:"skipped"`
	Errors         int `json:"errors"`
}

// Add counts one outcome.
func (t *Tally) Add(o Outcome) {
	switch o {
	case OutcomeMoved:
		t.Moved++
	case OutcomeNotLinked:
		t.NotLinked++
	case OutcomeNotInVoice:
		t.NotInVoice++
	case OutcomeInvalidChannel:
		t.InvalidChannel++
	case OutcomeSkipped:
		t.Skipped++
	default:
		t.Errors++
	}
}

// Total is the number of items counted.
func (t Tally) Total() int {
	return t.Moved + t.NotLinked + t.NotInVoice + t.InvalidChannel + t.Skipped + t.Errors
}
