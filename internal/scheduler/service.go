package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	robfigcron "github.com/robfig/cron/v3"

	"github.com/sunkwolf/bot-discord/internal/announce"
	"github.com/sunkwolf/bot-discord/internal/presence"
	"github.com/sunkwolf/bot-discord/internal/voice"
)

// settleDelay is the grace period between the session reaching ready and the
// first audio frame; starting earlier clips the beginning of the clip.
const settleDelay = 500 * time.Millisecond

// Gate is the go/no-go check in front of every firing.
type Gate interface {
	InMaintenanceWindow(now time.Time) bool
	HasQualifyingParticipants(channelID string) bool
}

// Resolver maps an event to a playable file path.
type Resolver interface {
	Resolve(ctx context.Context, ev announce.Event, now time.Time) (string, error)
}

// SessionManager is the per-guild connection owner.
type SessionManager interface {
	Connect(guildID, channelID string) (voice.Session, error)
	Disconnect(guildID string)
}

// Driver plays one file into a session and returns when done.
type Driver interface {
	PlayFile(ctx context.Context, path string, sess voice.Session) error
}

// Config wires the orchestrator's collaborators.
type Config struct {
	Events    []announce.Event
	Channels  []string // every event fires for every channel
	Gate      Gate
	Resolver  Resolver
	Directory presence.Directory
	Sessions  SessionManager
	Driver    Driver
	Location  *time.Location
}

// Service owns the cron registry and runs the per-(event, channel) execution
// pipeline on every trigger. Jobs are registered once at startup from static
// definitions; there is no runtime reconfiguration.
type Service struct {
	scheduler *robfigcron.Cron
	events    map[string]announce.Event
	jobs      map[string]robfigcron.EntryID
	channels  []string
	gate      Gate
	resolver  Resolver
	directory presence.Directory
	sessions  SessionManager
	driver    Driver
	settle    time.Duration
	mu        sync.Mutex
}

func NewService(cfg Config) *Service {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	s := &Service{
		scheduler: robfigcron.New(robfigcron.WithSeconds(), robfigcron.WithLocation(loc)),
		events:    make(map[string]announce.Event, len(cfg.Events)),
		jobs:      make(map[string]robfigcron.EntryID),
		channels:  cfg.Channels,
		gate:      cfg.Gate,
		resolver:  cfg.Resolver,
		directory: cfg.Directory,
		sessions:  cfg.Sessions,
		driver:    cfg.Driver,
		settle:    settleDelay,
	}
	for _, ev := range cfg.Events {
		s.events[ev.Name] = ev
	}
	return s
}

// Pregenerate resolves every speech event once, serially, so synthesis never
// happens on the playback critical path. Individual failures are logged and
// skipped; startup continues.
func (s *Service) Pregenerate(ctx context.Context) {
	for _, ev := range s.eventList() {
		if ev.Kind != announce.SynthesizedSpeech {
			continue
		}
		if _, err := s.resolver.Resolve(ctx, ev, time.Now()); err != nil {
			slog.Warn("scheduler: speech pre-generation failed", "event", ev.Name, "error", err)
			continue
		}
		slog.Info("scheduler: speech ready", "event", ev.Name)
	}
}

// Register adds one cron entry per event. Call once before Start.
func (s *Service) Register() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, ev := range s.events {
		ev := ev
		spec := ev.Schedule
		if ev.TimeZone != "" {
			spec = "CRON_TZ=" + ev.TimeZone + " " + spec
		}
		entryID, err := s.scheduler.AddFunc(spec, func() {
			s.fire(context.Background(), ev)
		})
		if err != nil {
			return fmt.Errorf("failed to register event %q: %w", name, err)
		}
		s.jobs[name] = entryID
		slog.Info("scheduler: event registered", "event", name, "schedule", ev.Schedule, "channels", len(s.channels))
	}
	return nil
}

// Start begins firing registered events.
func (s *Service) Start() {
	s.scheduler.Start()
}

// Stop cancels every timer. In-flight executions are abandoned; the caller
// stops the playback engine and tears down sessions next.
func (s *Service) Stop() {
	s.scheduler.Stop()
}

// TriggerNow runs one event immediately through the normal execution path.
// Diagnostic entry point; the event does not need to be due.
func (s *Service) TriggerNow(ctx context.Context, name string) error {
	s.mu.Lock()
	ev, ok := s.events[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown event %q", name)
	}
	s.fire(ctx, ev)
	return nil
}

// fire launches the pipeline for every configured channel concurrently and
// waits for all of them. A failure on one channel never affects the others.
func (s *Service) fire(ctx context.Context, ev announce.Event) {
	slog.Info("scheduler: event fired", "event", ev.Name)
	var wg sync.WaitGroup
	for _, channelID := range s.channels {
		wg.Add(1)
		go func(channelID string) {
			defer wg.Done()
			s.runChannel(ctx, ev, channelID)
		}(channelID)
	}
	wg.Wait()
}

func (s *Service) eventList() []announce.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]announce.Event, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev)
	}
	return out
}
