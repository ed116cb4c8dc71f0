package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

var (
	// ErrFileNotFound means the audio path did not exist at play time.
	ErrFileNotFound = errors.New("voice: audio file not found")
	// ErrPlayback wraps engine failures while a resource is playing.
	ErrPlayback = errors.New("voice: playback failed")
)

// Status is the playback engine's coarse state.
type Status int

const (
	StatusIdle Status = iota
	StatusPlaying
)

// Event is a playback status notification. Err is set when the track ended
// because of a failure rather than reaching the end of the stream.
type Event struct {
	Status Status
	Err    error
	track  *track
}

// frameSource yields 20ms opus frames ready for the voice transport.
type frameSource interface {
	Next() ([]byte, error) // io.EOF at end of stream
	Close() error
}

// Player is the single shared playback engine. It holds one active resource
// at a time; submitting a new one preempts the current track. Completion
// observers are registered per play and always detached afterwards.
type Player struct {
	transcoder Transcoder

	mu        sync.Mutex
	current   *track
	observers map[int]chan Event
	nextObs   int
}

type track struct {
	stop chan struct{}
	once sync.Once
	done chan struct{}
}

func (t *track) halt() {
	t.once.Do(func() { close(t.stop) })
}

func NewPlayer(transcoder Transcoder) *Player {
	return &Player{
		transcoder: transcoder,
		observers:  make(map[int]chan Event),
	}
}

// PlayFile streams the file into the session and returns when the engine goes
// idle or fails. Pre-encoded .dca files are passed through untouched; every
// other format runs through the transcoder.
func (p *Player) PlayFile(ctx context.Context, path string, sess Session) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	frames, err := p.openFrames(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPlayback, err)
	}

	id, events := p.subscribe()
	defer p.unsubscribe(id)

	t := &track{stop: make(chan struct{}), done: make(chan struct{})}
	p.preempt(t)
	go p.stream(t, frames, sess)

	for {
		select {
		case ev := <-events:
			if ev.track != t || ev.Status != StatusIdle {
				continue
			}
			if ev.Err != nil {
				return fmt.Errorf("%w: %v", ErrPlayback, ev.Err)
			}
			return nil
		case <-ctx.Done():
			t.halt()
			<-t.done
			return ctx.Err()
		}
	}
}

// Stop halts the current resource immediately. Used during shutdown.
func (p *Player) Stop() {
	p.mu.Lock()
	cur := p.current
	p.mu.Unlock()
	if cur != nil {
		cur.halt()
	}
}

func (p *Player) openFrames(ctx context.Context, path string) (frameSource, error) {
	if filepath.Ext(path) == ".dca" {
		return OpenDCAFile(path)
	}
	return p.transcoder.Open(ctx, path)
}

func (p *Player) preempt(t *track) {
	p.mu.Lock()
	old := p.current
	p.current = t
	p.mu.Unlock()
	if old != nil {
		old.halt()
	}
}

func (p *Player) stream(t *track, frames frameSource, sess Session) {
	defer close(t.done)
	defer frames.Close()

	var streamErr error
	if err := sess.Speaking(true); err != nil {
		streamErr = err
	} else {
		p.emit(Event{Status: StatusPlaying, track: t})
		streamErr = p.pump(t, frames, sess)
		if err := sess.Speaking(false); err != nil && streamErr == nil {
			streamErr = err
		}
	}

	p.mu.Lock()
	if p.current == t {
		p.current = nil
	}
	p.mu.Unlock()
	p.emit(Event{Status: StatusIdle, Err: streamErr, track: t})
}

func (p *Player) pump(t *track, frames frameSource, sess Session) error {
	send := sess.OpusSend()
	if send == nil {
		return errors.New("session has no send channel")
	}
	for {
		frame, err := frames.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		select {
		case <-t.stop:
			return nil
		case send <- frame:
		}
	}
}

func (p *Player) subscribe() (int, <-chan Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextObs
	p.nextObs++
	ch := make(chan Event, 8)
	p.observers[id] = ch
	return id, ch
}

func (p *Player) unsubscribe(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.observers, id)
}

func (p *Player) emit(ev Event) {
	p.mu.Lock()
	observers := make([]chan Event, 0, len(p.observers))
	for _, ch := range p.observers {
		observers = append(observers, ch)
	}
	p.mu.Unlock()
	for _, ch := range observers {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (p *Player) observerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.observers)
}
