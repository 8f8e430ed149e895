package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/memohai/voicelink/internal/voice"
)

// Gateway implements voice.Gateway on top of a discordgo session. Lookups
// prefer the gateway state cache and fall back to the REST API.
type Gateway struct {
	session *discordgo.Session
	guildID string
}

// NewGateway creates a gateway for guildID.
func NewGateway(session *discordgo.Session, guildID string) *Gateway {
	return &Gateway{session: session, guildID: strings.TrimSpace(guildID)}
}

// Guild resolves the configured guild.
func (g *Gateway) Guild(ctx context.Context) (voice.Guild, error) {
	if g.guildID == "" {
		return nil, errors.New("discord guild id not configured")
	}
	if g.session == nil {
		return nil, errors.New("discord session not configured")
	}
	if _, err := g.session.State.Guild(g.guildID); err == nil {
		return &guildHandle{session: g.session, guildID: g.guildID}, nil
	}
	if _, err := g.session.Guild(g.guildID, discordgo.WithContext(ctx)); err != nil {
		return nil, fmt.Errorf("fetch guild %s: %w", g.guildID, err)
	}
	return &guildHandle{session: g.session, guildID: g.guildID}, nil
}

type guildHandle struct {
	session *discordgo.Session
	guildID string
}

// VoiceChannelOf reads the member's voice state from the gateway cache, which
// Discord keeps current through the GuildVoiceStates intent.
func (h *guildHandle) VoiceChannelOf(_ context.Context, userID string) (string, error) {
	state, err := h.session.State.VoiceState(h.guildID, userID)
	if errors.Is(err, discordgo.ErrStateNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return state.ChannelID, nil
}

func (h *guildHandle) Channel(ctx context.Context, channelID string) (voice.Channel, error) {
	ch, err := h.session.State.Channel(channelID)
	if err != nil {
		// Discord answers a malformed id with 400 rather than 404.
		if !isSnowflake(channelID) {
			return voice.Channel{}, voice.ErrChannelNotFound
		}
		ch, err = h.session.Channel(channelID, discordgo.WithContext(ctx))
		if isNotFound(err) {
			return voice.Channel{}, voice.ErrChannelNotFound
		}
		if err != nil {
			return voice.Channel{}, err
		}
	}
	if ch == nil || (ch.GuildID != "" && ch.GuildID != h.guildID) {
		return voice.Channel{}, voice.ErrChannelNotFound
	}
	return toChannel(ch), nil
}

func (h *guildHandle) MoveMember(ctx context.Context, userID, channelID string) error {
	target := channelID
	return h.session.GuildMemberMove(h.guildID, userID, &target, discordgo.WithContext(ctx))
}

func toChannel(ch *discordgo.Channel) voice.Channel {
	return voice.Channel{
		ID:    ch.ID,
		Name:  ch.Name,
		Voice: isVoiceBased(ch.Type),
	}
}

func isVoiceBased(t discordgo.ChannelType) bool {
	return t == discordgo.ChannelTypeGuildVoice || t == discordgo.ChannelTypeGuildStageVoice
}

func isSnowflake(id string) bool {
	_, err := strconv.ParseUint(id, 10, 64)
	return err == nil
}

func isNotFound(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Response == nil {
		return false
	}
	return restErr.Response.StatusCode == http.StatusNotFound
}
