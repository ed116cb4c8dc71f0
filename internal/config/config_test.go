package config

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DISCORD_TOKEN", "tok")
	t.Setenv("ANNOUNCE_CHANNELS", "111,222")
}

func TestLoadFromEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("TIMEZONE", "Asia/Tokyo")
	t.Setenv("DISCONNECT_DELAY_SECONDS", "8")
	t.Setenv("SPEECH_RATE", "1.25")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	if cfg.DiscordToken != "tok" {
		t.Errorf("token = %q", cfg.DiscordToken)
	}
	if len(cfg.ChannelIDs) != 2 || cfg.ChannelIDs[0] != "111" || cfg.ChannelIDs[1] != "222" {
		t.Errorf("channels = %v", cfg.ChannelIDs)
	}
	if cfg.DisconnectDelay() != 8*time.Second {
		t.Errorf("disconnect delay = %v", cfg.DisconnectDelay())
	}
	if cfg.SpeechRate != 1.25 {
		t.Errorf("rate = %v", cfg.SpeechRate)
	}
	if cfg.Location().String() != "Asia/Tokyo" {
		t.Errorf("location = %v", cfg.Location())
	}
}

func TestDefaults(t *testing.T) {
	setRequired(t)
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.AudioDir != "assets/audio" {
		t.Errorf("audio dir = %q", cfg.AudioDir)
	}
	if cfg.DisconnectDelaySeconds != 5 {
		t.Errorf("disconnect delay = %d", cfg.DisconnectDelaySeconds)
	}
	if cfg.SpeechVoice != "alloy" {
		t.Errorf("voice = %q", cfg.SpeechVoice)
	}
	if cfg.TimeZone != "UTC" {
		t.Errorf("timezone = %q", cfg.TimeZone)
	}
}

func TestMissingSettingsAreEnumerated(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("ANNOUNCE_CHANNELS", "")

	_, err := LoadFromEnv()
	var missing *MissingError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingError, got %v", err)
	}
	if len(missing.Settings) != 2 {
		t.Fatalf("expected both settings listed, got %v", missing.Settings)
	}
}

func TestInvalidTimeZone(t *testing.T) {
	setRequired(t)
	t.Setenv("TIMEZONE", "Mars/Olympus")
	if _, err := LoadFromEnv(); err == nil {
		t.Error("expected error for unknown time zone")
	}
}

func TestSlogLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"garbage", slog.LevelInfo},
	}
	for _, tc := range cases {
		cfg := &Config{LogLevel: tc.in}
		if got := cfg.SlogLevel(); got != tc.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
