package announce

// Kind selects how an event's content resolves to a playable file.
type Kind string

const (
	DirectAudio       Kind = "direct"   // content is an audio file path
	RotatingAudioSet  Kind = "rotation" // content names a rotation set, cycled by hour
	SynthesizedSpeech Kind = "speech"   // content is text to synthesize
)

// Event is a single scheduled announcement. Definitions are loaded once at
// startup and are immutable for the process lifetime.
type Event struct {
	Name     string `json:"name"`
	Schedule string `json:"schedule"` // six-field cron expression (seconds first)
	TimeZone string `json:"timeZone,omitempty"`
	Kind     Kind   `json:"kind"`
	Content  string `json:"content"`
	Enabled  bool   `json:"enabled"`

	// AlwaysPlay fires the announcement even when the channel has no
	// non-automated members. Off by default: empty channels are skipped.
	AlwaysPlay bool `json:"alwaysPlay,omitempty"`
}

// RequiresOccupancy reports whether the occupancy gate applies to this event.
func (e Event) RequiresOccupancy() bool {
	return !e.AlwaysPlay
}
