package assets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sunkwolf/bot-discord/internal/announce"
	"github.com/sunkwolf/bot-discord/internal/speech"
)

// ErrContentNotFound means an event's content descriptor could not be mapped
// to a file: an unregistered or empty rotation set, or an unknown kind.
var ErrContentNotFound = errors.New("content not found")

// SpeechDefaults carries the synthesis parameters applied to every
// SynthesizedSpeech event.
type SpeechDefaults struct {
	Voice string
	Rate  float64
	Pitch float64
}

// Resolver maps an event's content descriptor to a concrete local audio file.
// Rotation resolution is pure; speech resolution consults the cache first and
// synthesizes on miss, deduplicating concurrent requests per fingerprint.
type Resolver struct {
	audioDir  string
	rotations map[string][]string
	cache     *speech.Cache
	synth     speech.Synthesizer
	defaults  SpeechDefaults
	group     singleflight.Group
}

func NewResolver(audioDir string, rotations map[string][]string, cache *speech.Cache, synth speech.Synthesizer, defaults SpeechDefaults) *Resolver {
	return &Resolver{
		audioDir:  audioDir,
		rotations: rotations,
		cache:     cache,
		synth:     synth,
		defaults:  defaults,
	}
}

// Resolve returns the playable file path for ev at the given time. File
// existence is not checked here; the playback driver validates it at play time.
func (r *Resolver) Resolve(ctx context.Context, ev announce.Event, now time.Time) (string, error) {
	switch ev.Kind {
	case announce.DirectAudio:
		return r.audioPath(ev.Content), nil
	case announce.RotatingAudioSet:
		return r.resolveRotation(ev.Content, now)
	case announce.SynthesizedSpeech:
		return r.resolveSpeech(ctx, ev.Content)
	default:
		return "", fmt.Errorf("%w: unknown kind %q", ErrContentNotFound, ev.Kind)
	}
}

func (r *Resolver) resolveRotation(name string, now time.Time) (string, error) {
	set, ok := r.rotations[name]
	if !ok {
		return "", fmt.Errorf("%w: rotation set %q is not registered", ErrContentNotFound, name)
	}
	if len(set) == 0 {
		return "", fmt.Errorf("%w: rotation set %q is empty", ErrContentNotFound, name)
	}
	return r.audioPath(set[now.Hour()%len(set)]), nil
}

func (r *Resolver) resolveSpeech(ctx context.Context, text string) (string, error) {
	req := speech.Request{
		Text:  text,
		Voice: r.defaults.Voice,
		Rate:  r.defaults.Rate,
		Pitch: r.defaults.Pitch,
	}
	fp := speech.Fingerprint(req)

	if path, ok := r.cache.Lookup(fp); ok {
		return path, nil
	}

	// Concurrent misses for the same fingerprint share one synthesis call.
	v, err, _ := r.group.Do(fp, func() (interface{}, error) {
		if path, ok := r.cache.Lookup(fp); ok {
			return path, nil
		}
		slog.Info("assets: synthesizing speech", "fingerprint", fp[:12], "voice", req.Voice)
		audio, err := r.synth.Synthesize(ctx, req)
		if err != nil {
			return nil, err
		}
		return r.cache.Store(fp, audio)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (r *Resolver) audioPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(r.audioDir, p)
}
