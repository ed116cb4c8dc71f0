package announce

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sunkwolf/bot-discord/internal/presence"
)

// Definitions is the full static announcement catalogue: events, the rotation
// sets they may reference, and the weekly maintenance windows.
type Definitions struct {
	Events    []Event
	Rotations map[string][]string
	Windows   []presence.Window
}

type fileSchema struct {
	Events             []Event             `json:"events"`
	Rotations          map[string][]string `json:"rotations"`
	MaintenanceWindows []windowSpec        `json:"maintenanceWindows"`
}

type windowSpec struct {
	Weekday string `json:"weekday"`
	Start   string `json:"start"` // "HH:MM"
	End     string `json:"end"`
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Load returns the definitions from path, or the built-in defaults when path
// is empty.
func Load(path string) (Definitions, error) {
	if path == "" {
		return Defaults(), nil
	}
	return LoadFromFile(path)
}

// LoadFromFile loads definitions from a JSON file.
func LoadFromFile(path string) (Definitions, error) {
	f, err := os.Open(path)
	if err != nil {
		return Definitions{}, fmt.Errorf("failed to open definitions file %s: %w", path, err)
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader parses and validates definitions from an io.Reader.
func LoadFromReader(r io.Reader) (Definitions, error) {
	var schema fileSchema
	if err := json.NewDecoder(r).Decode(&schema); err != nil {
		return Definitions{}, fmt.Errorf("failed to parse definitions: %w", err)
	}

	defs := Definitions{
		Events:    schema.Events,
		Rotations: schema.Rotations,
	}
	for _, spec := range schema.MaintenanceWindows {
		w, err := spec.toWindow()
		if err != nil {
			return Definitions{}, err
		}
		defs.Windows = append(defs.Windows, w)
	}

	if err := defs.Validate(); err != nil {
		return Definitions{}, err
	}
	return defs, nil
}

// Enabled returns the events that should be registered with the scheduler.
func (d Definitions) Enabled() []Event {
	var out []Event
	for _, ev := range d.Events {
		if ev.Enabled {
			out = append(out, ev)
		}
	}
	return out
}

// Validate checks name uniqueness, kinds, and rotation references.
func (d Definitions) Validate() error {
	seen := make(map[string]bool, len(d.Events))
	for _, ev := range d.Events {
		if ev.Name == "" {
			return fmt.Errorf("event with empty name")
		}
		if seen[ev.Name] {
			return fmt.Errorf("duplicate event name %q", ev.Name)
		}
		seen[ev.Name] = true

		if ev.Schedule == "" {
			return fmt.Errorf("event %q has no schedule", ev.Name)
		}
		if ev.Content == "" {
			return fmt.Errorf("event %q has no content", ev.Name)
		}

		switch ev.Kind {
		case DirectAudio, SynthesizedSpeech:
		case RotatingAudioSet:
			set, ok := d.Rotations[ev.Content]
			if !ok {
				return fmt.Errorf("event %q references unknown rotation set %q", ev.Name, ev.Content)
			}
			if len(set) == 0 {
				return fmt.Errorf("rotation set %q is empty", ev.Content)
			}
		default:
			return fmt.Errorf("event %q has unknown kind %q", ev.Name, ev.Kind)
		}
	}
	return nil
}

func (s windowSpec) toWindow() (presence.Window, error) {
	day, ok := weekdays[strings.ToLower(s.Weekday)]
	if !ok {
		return presence.Window{}, fmt.Errorf("unknown weekday %q", s.Weekday)
	}
	start, err := parseMinuteOfDay(s.Start)
	if err != nil {
		return presence.Window{}, fmt.Errorf("invalid window start: %w", err)
	}
	end, err := parseMinuteOfDay(s.End)
	if err != nil {
		return presence.Window{}, fmt.Errorf("invalid window end: %w", err)
	}
	if end <= start {
		return presence.Window{}, fmt.Errorf("window end %q is not after start %q", s.End, s.Start)
	}
	return presence.Window{Weekday: day, StartMinute: start, EndMinute: end}, nil
}

func parseMinuteOfDay(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM: %w", s, err)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return h*60 + m, nil
}
