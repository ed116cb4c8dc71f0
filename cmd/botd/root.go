package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sunkwolf/bot-discord/internal/announce"
	"github.com/sunkwolf/bot-discord/internal/assets"
	"github.com/sunkwolf/bot-discord/internal/config"
	"github.com/sunkwolf/bot-discord/internal/speech"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "botd",
		Short:         "Scheduled voice-channel announcement bot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRunCmd(),
		newTriggerCmd(),
		newPregenCmd(),
		newCacheCmd(),
	)
	return root
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the scheduler and serve announcements until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runBot(ctx)
		},
	}
}

func newTriggerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trigger <event>",
		Short: "Fire one event immediately for every configured channel, then exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return triggerOnce(ctx, args[0])
		},
	}
}

func newPregenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pregen",
		Short: "Synthesize and cache speech for every speech event, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, defs, err := loadCore()
			if err != nil {
				return err
			}
			resolver, err := buildResolver(cfg, defs)
			if err != nil {
				return err
			}
			for _, ev := range defs.Events {
				if ev.Kind != announce.SynthesizedSpeech {
					continue
				}
				path, err := resolver.Resolve(ctx, ev, time.Now())
				if err != nil {
					slog.Warn("pregen: synthesis failed", "event", ev.Name, "error", err)
					continue
				}
				slog.Info("pregen: cached", "event", ev.Name, "file", path)
			}
			return nil
		},
	}
}

func newCacheCmd() *cobra.Command {
	cache := &cobra.Command{
		Use:   "cache",
		Short: "Manage the speech synthesis cache",
	}
	cache.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached speech file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			setupLogging(cfg)
			if err := speech.NewCache(cfg.SpeechCacheDir).Clear(); err != nil {
				return err
			}
			slog.Info("cache: cleared", "dir", cfg.SpeechCacheDir)
			return nil
		},
	})
	return cache
}

func setupLogging(cfg *config.Config) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	slog.SetDefault(slog.New(handler))
}

// core is everything loaded before touching Discord.
type core struct {
	cfg      *config.Config
	defs     announce.Definitions
	resolver *assets.Resolver
}

func loadAll() (*core, error) {
	cfg, defs, err := loadCore()
	if err != nil {
		return nil, err
	}
	resolver, err := buildResolver(cfg, defs)
	if err != nil {
		return nil, err
	}
	return &core{cfg: cfg, defs: defs, resolver: resolver}, nil
}

// loadCore loads configuration and announcement definitions; everything every
// subcommand needs before touching Discord.
func loadCore() (*config.Config, announce.Definitions, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, announce.Definitions{}, err
	}
	setupLogging(cfg)

	defs, err := announce.Load(cfg.EventsFile)
	if err != nil {
		return nil, announce.Definitions{}, err
	}
	return cfg, defs, nil
}

func buildResolver(cfg *config.Config, defs announce.Definitions) (*assets.Resolver, error) {
	if hasSpeechEvents(defs) && cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required when speech events are configured")
	}
	cache := speech.NewCache(cfg.SpeechCacheDir)
	synth := speech.NewOpenAIClient(cfg.OpenAIKey)
	return assets.NewResolver(cfg.AudioDir, defs.Rotations, cache, synth, assets.SpeechDefaults{
		Voice: cfg.SpeechVoice,
		Rate:  cfg.SpeechRate,
		Pitch: cfg.SpeechPitch,
	}), nil
}

func hasSpeechEvents(defs announce.Definitions) bool {
	for _, ev := range defs.Enabled() {
		if ev.Kind == announce.SynthesizedSpeech {
			return true
		}
	}
	return false
}
