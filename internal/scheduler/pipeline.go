package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/sunkwolf/bot-discord/internal/announce"
)

// runChannel is one (event, channel) execution. Every failure is converted
// into a logged skip; once a session has been obtained, a disconnect request
// is issued on every exit path.
func (s *Service) runChannel(ctx context.Context, ev announce.Event, channelID string) {
	now := time.Now()
	log := slog.With("event", ev.Name, "channelID", channelID)

	if s.gate.InMaintenanceWindow(now) {
		log.Info("scheduler: inside maintenance window, skipping")
		return
	}
	if ev.RequiresOccupancy() && !s.gate.HasQualifyingParticipants(channelID) {
		log.Info("scheduler: no one listening, skipping")
		return
	}

	info, err := s.directory.FetchChannel(channelID)
	if err != nil {
		log.Warn("scheduler: channel lookup failed", "error", err)
		return
	}
	if info == nil {
		log.Warn("scheduler: channel not found")
		return
	}

	sess, err := s.sessions.Connect(info.GuildID, channelID)
	if err != nil {
		log.Warn("scheduler: connect failed", "error", err)
		return
	}
	defer s.sessions.Disconnect(info.GuildID)

	select {
	case <-time.After(s.settle):
	case <-ctx.Done():
		return
	}

	path, err := s.resolver.Resolve(ctx, ev, now)
	if err != nil {
		log.Warn("scheduler: asset resolution failed", "error", err)
		return
	}

	if err := s.driver.PlayFile(ctx, path, sess); err != nil {
		log.Warn("scheduler: playback failed", "file", path, "error", err)
		return
	}
	log.Info("scheduler: announcement played", "file", path)
}
