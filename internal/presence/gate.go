package presence

import (
	"log/slog"
	"time"
)

// Member is a single participant currently in a voice channel.
type Member struct {
	ID        string
	Automated bool // bot accounts do not count towards occupancy
}

// ChannelInfo describes a voice channel and its current participants.
type ChannelInfo struct {
	ID      string
	GuildID string
	Name    string
	Members []Member
}

// Directory looks up voice channels and who is in them.
type Directory interface {
	FetchChannel(id string) (*ChannelInfo, error)
}

// Gate decides whether an announcement should fire for a channel: it checks
// that at least one non-automated participant is present, and that the current
// time is outside every configured maintenance window.
type Gate struct {
	dir     Directory
	windows []Window
	loc     *time.Location
}

func NewGate(dir Directory, windows []Window, loc *time.Location) *Gate {
	if loc == nil {
		loc = time.UTC
	}
	return &Gate{dir: dir, windows: windows, loc: loc}
}

// HasQualifyingParticipants reports whether the channel has at least one
// non-automated member. Lookup failures fail closed: the check logs and
// reports false rather than letting an error escape into the pipeline.
func (g *Gate) HasQualifyingParticipants(channelID string) bool {
	info, err := g.dir.FetchChannel(channelID)
	if err != nil {
		slog.Warn("presence: channel lookup failed, treating as empty", "channelID", channelID, "error", err)
		return false
	}
	if info == nil {
		slog.Warn("presence: channel not found, treating as empty", "channelID", channelID)
		return false
	}
	for _, m := range info.Members {
		if !m.Automated {
			return true
		}
	}
	return false
}

// InMaintenanceWindow reports whether now falls inside any configured window,
// evaluated in the gate's configured location.
func (g *Gate) InMaintenanceWindow(now time.Time) bool {
	local := now.In(g.loc)
	for _, w := range g.windows {
		if w.Contains(local) {
			return true
		}
	}
	return false
}
