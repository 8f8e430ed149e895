package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/memohai/voicelink/internal/bind"
	"github.com/memohai/voicelink/internal/boot"
	"github.com/memohai/voicelink/internal/config"
	"github.com/memohai/voicelink/internal/discord"
	"github.com/memohai/voicelink/internal/handlers"
	"github.com/memohai/voicelink/internal/links"
	"github.com/memohai/voicelink/internal/logger"
	"github.com/memohai/voicelink/internal/server"
	"github.com/memohai/voicelink/internal/version"
	"github.com/memohai/voicelink/internal/voice"
)

func runServe(configPath string) error {
	app := newApp(configPath)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}

func newApp(configPath string, extra ...fx.Option) *fx.App {
	opts := []fx.Option{
		fx.Provide(
			func() (config.Config, error) { return provideConfig(configPath) },
			boot.ProvideRuntimeConfig,
			provideLogger,

			provideLinkStore,
			provideLinkReader,
			provideLinkWriter,
			provideRegistry,
			bind.NewService,

			provideSession,
			provideGateway,
			provideBot,
			provideDispatcher,

			provideServerHandler(handlers.NewHealthHandler),
			provideServerHandler(handlers.NewBindHandler),
			provideServerHandler(handlers.NewMoveHandler),

			provideServer,
		),
		fx.Invoke(
			reportConfigProblems,
			startBot,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	}
	return fx.New(append(opts, extra...)...)
}

func provideConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(rc *boot.RuntimeConfig) *slog.Logger {
	return logger.Init(rc.LogLevel, rc.LogFormat)
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideLinkStore(lc fx.Lifecycle, log *slog.Logger, rc *boot.RuntimeConfig) (links.Store, error) {
	store, err := links.Open(log, rc.StorageDriver, rc.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open link store: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return store.Close()
		},
	})
	return store, nil
}

func provideLinkReader(store links.Store) links.Reader { return store }

func provideLinkWriter(store links.Store) bind.LinkWriter { return store }

func provideRegistry() *bind.Registry {
	return bind.NewRegistry(bind.DefaultTTL)
}

func provideSession(rc *boot.RuntimeConfig) (*discordgo.Session, error) {
	session, err := discord.NewSession(rc.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return session, nil
}

func provideGateway(session *discordgo.Session, rc *boot.RuntimeConfig) voice.Gateway {
	return discord.NewGateway(session, rc.GuildID)
}

func provideBot(log *slog.Logger, session *discordgo.Session, rc *boot.RuntimeConfig, service *bind.Service) *discord.Bot {
	return discord.NewBot(log, session, rc.Token, service)
}

func provideDispatcher(log *slog.Logger, gateway voice.Gateway, reader links.Reader, rc *boot.RuntimeConfig) *voice.Dispatcher {
	return voice.NewDispatcher(log, gateway, reader, voice.Options{
		CallTimeout:   rc.CallTimeout,
		RatePerSecond: rc.DispatchRate,
	})
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	RuntimeConfig  *boot.RuntimeConfig
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.RuntimeConfig.Addr(), params.RuntimeConfig.Secret, params.ServerHandlers...)
}

func reportConfigProblems(log *slog.Logger, rc *boot.RuntimeConfig) {
	for _, problem := range rc.Problems() {
		log.Error("config problem", slog.String("problem", problem))
	}
}

func startBot(lc fx.Lifecycle, log *slog.Logger, bot *discord.Bot) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := bot.Start(ctx); err != nil {
				// The HTTP API stays useful for registration without the gateway.
				log.Error("discord login failed", slog.Any("error", err))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return bot.Stop(ctx)
		},
	})
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	fmt.Printf("Starting voicelink %s\n", version.GetInfo())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
