package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every environment-sourced setting. Announcement definitions
// themselves live in the optional EVENTS_FILE (see internal/announce).
type Config struct {
	// Bot credential and targets
	DiscordToken string   `envconfig:"DISCORD_TOKEN"`
	ChannelIDs   []string `envconfig:"ANNOUNCE_CHANNELS"` // comma-separated voice channel IDs

	// Asset locations
	AudioDir       string `envconfig:"AUDIO_DIR" default:"assets/audio"`
	SpeechCacheDir string `envconfig:"SPEECH_CACHE_DIR" default:"assets/speech"`
	EventsFile     string `envconfig:"EVENTS_FILE"` // empty uses built-in defaults

	// Behaviour
	TimeZone               string `envconfig:"TIMEZONE" default:"UTC"`
	DisconnectDelaySeconds int    `envconfig:"DISCONNECT_DELAY_SECONDS" default:"5"`
	LogLevel               string `envconfig:"LOG_LEVEL" default:"info"`

	// Speech synthesis
	OpenAIKey   string  `envconfig:"OPENAI_API_KEY"`
	SpeechVoice string  `envconfig:"SPEECH_VOICE" default:"alloy"`
	SpeechRate  float64 `envconfig:"SPEECH_RATE" default:"1.0"`
	SpeechPitch float64 `envconfig:"SPEECH_PITCH" default:"1.0"`
}

// MissingError enumerates every required setting that was absent, so one
// startup failure reports the full list.
type MissingError struct {
	Settings []string
}

func (e *MissingError) Error() string {
	return "missing required settings: " + strings.Join(e.Settings, ", ")
}

// Load reads configuration from the environment, after loading a local .env
// file when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFromEnv()
}

// LoadFromEnv reads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate collects all missing required settings rather than failing on the
// first one.
func (c *Config) Validate() error {
	var missing []string
	if c.DiscordToken == "" {
		missing = append(missing, "DISCORD_TOKEN")
	}
	if len(c.ChannelIDs) == 0 {
		missing = append(missing, "ANNOUNCE_CHANNELS")
	}
	if len(missing) > 0 {
		return &MissingError{Settings: missing}
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.TimeZone, err)
	}
	return nil
}

// Location returns the configured time zone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DisconnectDelay returns the voice teardown grace period.
func (c *Config) DisconnectDelay() time.Duration {
	return time.Duration(c.DisconnectDelaySeconds) * time.Second
}

// SlogLevel maps the LOG_LEVEL setting onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
