// Package discord connects voicelink to Discord: it answers "!link" commands
// and moves members between voice channels.
package discord

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/memohai/voicelink/internal/bind"
)

const replyTimeout = 10 * time.Second

// Intents the bot needs: guild metadata, messages with content, and voice states.
const Intents = discordgo.IntentGuilds |
	discordgo.IntentGuildMessages |
	discordgo.IntentMessageContent |
	discordgo.IntentGuildVoiceStates

// NewSession creates an unopened session for token.
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = Intents
	return session, nil
}

// Linker completes link codes.
type Linker interface {
	Link(ctx context.Context, token, chatID string) (bind.Result, error)
}

// Bot listens for link commands on the gateway.
type Bot struct {
	session *discordgo.Session
	token   string
	linker  Linker
	logger  *slog.Logger
	opened  bool
}

// NewBot creates a bot over session. Handlers are attached immediately; the
// gateway connection is opened by Start.
func NewBot(log *slog.Logger, session *discordgo.Session, token string, linker Linker) *Bot {
	if log == nil {
		log = slog.Default()
	}
	b := &Bot{
		session: session,
		token:   strings.TrimSpace(token),
		linker:  linker,
		logger:  log.With(slog.String("adapter", "discord")),
	}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onMessageCreate)
	return b
}

// Start opens the gateway. Without a token the bot stays offline and the HTTP
// API keeps serving.
func (b *Bot) Start(context.Context) error {
	if b.token == "" {
		b.logger.Error("discord token missing, bot not started")
		return nil
	}
	if err := b.session.Open(); err != nil {
		return err
	}
	b.opened = true
	return nil
}

// Stop closes the gateway.
func (b *Bot) Stop(context.Context) error {
	if !b.opened {
		return nil
	}
	b.opened = false
	return b.session.Close()
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	tag := ""
	if r.User != nil {
		tag = r.User.String()
	}
	b.logger.Info("bot online", slog.String("user", tag), slog.Int("guilds", len(r.Guilds)))
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil || m.Author == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
	defer cancel()

	reply, ok := b.HandleMessage(ctx, m.Author.ID, m.Author.Bot, m.Content)
	if !ok {
		return
	}
	if _, err := s.ChannelMessageSendReply(m.ChannelID, reply, m.Reference(), discordgo.WithContext(ctx)); err != nil {
		b.logger.Error("send reply failed",
			slog.String("channel_id", m.ChannelID),
			slog.Any("error", err),
		)
	}
}

// HandleMessage processes one inbound message and returns the reply to send.
// ok is false when the message is not a link command or comes from a bot.
func (b *Bot) HandleMessage(ctx context.Context, authorID string, authorIsBot bool, content string) (string, bool) {
	if authorIsBot {
		return "", false
	}
	code, ok := bind.ParseCommand(content)
	if !ok {
		return "", false
	}
	b.logger.Info("link command received", slog.String("user_id", authorID))

	result, err := b.linker.Link(ctx, code, authorID)
	if err != nil {
		b.logger.Error("link failed", slog.String("user_id", authorID), slog.Any("error", err))
	}
	return result.Outcome.Reply(), true
}
