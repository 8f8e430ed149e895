// Package voice moves linked users between voice channels, one at a time or in batches.
package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/memohai/voicelink/internal/links"
)

// DefaultCallTimeout bounds every gateway call when Options leaves it unset.
const DefaultCallTimeout = 10 * time.Second

// Options tune the dispatcher.
type Options struct {
	// CallTimeout bounds each gateway call. Zero means DefaultCallTimeout.
	CallTimeout time.Duration
	// RatePerSecond paces batch items. Zero disables pacing.
	RatePerSecond float64
}

// Dispatcher resolves game uuids to chat users and relocates their voice sessions.
type Dispatcher struct {
	gateway Gateway
	links   links.Reader
	timeout time.Duration
	limiter *rate.Limiter
	logger  *slog.Logger
}

type channelLookup func(ctx context.Context, guild Guild, channelID string) (Channel, error)

// NewDispatcher creates a dispatcher.
func NewDispatcher(log *slog.Logger, gateway Gateway, reader links.Reader, opts Options) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	timeout := opts.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	var limiter *rate.Limiter
	if opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}
	return &Dispatcher{
		gateway: gateway,
		links:   reader,
		timeout: timeout,
		limiter: limiter,
		logger:  log.With(slog.String("service", "voice")),
	}
}

// Move relocates a single user. A non-nil error accompanies OutcomeFailed and
// carries the gateway failure for logging; ErrMissingFields is returned for an
// incomplete request.
func (d *Dispatcher) Move(ctx context.Context, req MoveRequest) (Outcome, error) {
	if !req.Valid() {
		return "", ErrMissingFields
	}
	req = normalize(req)

	chatID, ok := d.links.Get(req.UUID)
	if !ok {
		return OutcomeNotLinked, nil
	}
	guild, err := d.guild(ctx)
	if err != nil {
		return OutcomeFailed, err
	}
	outcome, err := d.relocate(ctx, guild, chatID, req.ChannelID, d.fetchChannel)
	d.logOutcome(req, chatID, outcome, err)
	return outcome, err
}

// Dispatch processes moves in order and tallies the outcomes. Only a failure
// to obtain the guild aborts the batch; every per-item problem is counted.
func (d *Dispatcher) Dispatch(ctx context.Context, moves []MoveRequest) (Tally, error) {
	var tally Tally
	if len(moves) == 0 {
		return tally, ErrMissingMoves
	}
	guild, err := d.guild(ctx)
	if err != nil {
		return tally, fmt.Errorf("fetch guild: %w", err)
	}

	// Not-found channels are cached as nil.
	channels := map[string]*Channel{}
	lookup := func(ctx context.Context, guild Guild, channelID string) (Channel, error) {
		if ch, ok := channels[channelID]; ok {
			if ch == nil {
				return Channel{}, ErrChannelNotFound
			}
			return *ch, nil
		}
		ch, err := d.fetchChannel(ctx, guild, channelID)
		switch {
		case errors.Is(err, ErrChannelNotFound):
			channels[channelID] = nil
			return Channel{}, err
		case err != nil:
			return Channel{}, err
		}
		channels[channelID] = &ch
		return ch, nil
	}

	for i, req := range moves {
		if !req.Valid() {
			tally.Add(OutcomeSkipped)
			continue
		}
		req = normalize(req)
		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				d.logger.Warn("dispatch item not paced", slog.Int("index", i), slog.Any("error", err))
				tally.Add(OutcomeFailed)
				continue
			}
		}

		chatID, ok := d.links.Get(req.UUID)
		if !ok {
			tally.Add(OutcomeNotLinked)
			continue
		}
		outcome, err := d.relocate(ctx, guild, chatID, req.ChannelID, lookup)
		d.logOutcome(req, chatID, outcome, err)
		tally.Add(outcome)
	}

	d.logger.Info("dispatch finished",
		slog.Int("items", len(moves)),
		slog.Int("moved", tally.Moved),
		slog.Int("not_linked", tally.NotLinked),
		slog.Int("not_in_voice", tally.NotInVoice),
		slog.Int("invalid_channel", tally.InvalidChannel),
		slog.Int("skipped", tally.Skipped),
		slog.Int("errors", tally.Errors),
	)
	return tally, nil
}

// relocate runs the per-user steps once the user is known to be linked:
// current voice session, target channel, move.
func (d *Dispatcher) relocate(ctx context.Context, guild Guild, chatID, channelID string, lookup channelLookup) (Outcome, error) {
	current, err := d.voiceChannelOf(ctx, guild, chatID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("fetch voice state: %w", err)
	}
	if current == "" {
		return OutcomeNotInVoice, nil
	}

	target, err := lookup(ctx, guild, channelID)
	if errors.Is(err, ErrChannelNotFound) {
		return OutcomeInvalidChannel, nil
	}
	if err != nil {
		return OutcomeFailed, fmt.Errorf("fetch channel: %w", err)
	}
	if !target.Voice {
		return OutcomeInvalidChannel, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := guild.MoveMember(callCtx, chatID, target.ID); err != nil {
		return OutcomeFailed, fmt.Errorf("move member: %w", err)
	}
	return OutcomeMoved, nil
}

func (d *Dispatcher) guild(ctx context.Context) (Guild, error) {
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.gateway.Guild(callCtx)
}

func (d *Dispatcher) voiceChannelOf(ctx context.Context, guild Guild, userID string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return guild.VoiceChannelOf(callCtx, userID)
}

func (d *Dispatcher) fetchChannel(ctx context.Context, guild Guild, channelID string) (Channel, error) {
	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	ch, err := guild.Channel(callCtx, channelID)
	if err != nil {
		return Channel{}, err
	}
	if ch.ID == "" {
		ch.ID = channelID
	}
	return ch, nil
}

func (d *Dispatcher) logOutcome(req MoveRequest, chatID string, outcome Outcome, err error) {
	attrs := []any{
		slog.String("uuid", req.UUID),
		slog.String("chat_id", chatID),
		slog.String("channel_id", req.ChannelID),
		slog.String("outcome", string(outcome)),
	}
	if err != nil {
		d.logger.Error("move failed", append(attrs, slog.Any("error", err))...)
		return
	}
	d.logger.Debug("move handled", attrs...)
}

func normalize(req MoveRequest) MoveRequest {
	return MoveRequest{
		UUID:      strings.TrimSpace(req.UUID),
		ChannelID: strings.TrimSpace(req.ChannelID),
	}
}
