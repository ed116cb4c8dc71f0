package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/sunkwolf/bot-discord/internal/presence"
	"github.com/sunkwolf/bot-discord/internal/scheduler"
	"github.com/sunkwolf/bot-discord/internal/voice"
)

// bot bundles everything a live Discord connection needs.
type bot struct {
	discord  *discordgo.Session
	sessions *voice.Manager
	player   *voice.Player
	sched    *scheduler.Service
}

func buildBot(c *core) (*bot, error) {
	discord, err := discordgo.New("Bot " + c.cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	discord.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMembers

	if err := discord.Open(); err != nil {
		return nil, fmt.Errorf("failed to open discord gateway: %w", err)
	}

	transport := voice.NewDiscordTransport(discord)
	sessions := voice.NewManager(transport, c.cfg.DisconnectDelay())
	player := voice.NewPlayer(&voice.FFmpegTranscoder{})
	directory := presence.NewDiscordDirectory(discord)
	gate := presence.NewGate(directory, c.defs.Windows, c.cfg.Location())

	sched := scheduler.NewService(scheduler.Config{
		Events:    c.defs.Enabled(),
		Channels:  c.cfg.ChannelIDs,
		Gate:      gate,
		Resolver:  c.resolver,
		Directory: directory,
		Sessions:  sessions,
		Driver:    player,
		Location:  c.cfg.Location(),
	})

	return &bot{
		discord:  discord,
		sessions: sessions,
		player:   player,
		sched:    sched,
	}, nil
}

func (b *bot) shutdown() {
	b.sched.Stop()
	b.player.Stop()
	b.sessions.DisconnectAll()
	if err := b.discord.Close(); err != nil {
		slog.Warn("botd: failed to close discord session", "error", err)
	}
}

func runBot(ctx context.Context) error {
	app, err := loadAll()
	if err != nil {
		return err
	}
	b, err := buildBot(app)
	if err != nil {
		return err
	}
	defer b.shutdown()

	b.sched.Pregenerate(ctx)
	if err := b.sched.Register(); err != nil {
		return err
	}
	b.sched.Start()
	slog.Info("botd: running",
		"events", len(app.defs.Enabled()),
		"channels", len(app.cfg.ChannelIDs),
		"timezone", app.cfg.TimeZone,
	)

	<-ctx.Done()
	slog.Info("botd: shutting down")
	return nil
}

func triggerOnce(ctx context.Context, name string) error {
	app, err := loadAll()
	if err != nil {
		return err
	}
	b, err := buildBot(app)
	if err != nil {
		return err
	}
	defer b.shutdown()

	b.sched.Pregenerate(ctx)
	if err := b.sched.TriggerNow(ctx, name); err != nil {
		return err
	}

	// let the delayed disconnect drain before tearing everything down
	select {
	case <-time.After(app.cfg.DisconnectDelay() + time.Second):
	case <-ctx.Done():
	}
	return nil
}
