package voice

import (
	"errors"
	"sync"
)

// fakeSession is a scriptable Session for manager and player tests.
type fakeSession struct {
	guildID   string
	channelID string

	mu           sync.Mutex
	state        State
	watchers     []chan<- State
	destroyCalls int
	speakErr     error
	opus         chan []byte
}

func newFakeSession(guildID, channelID string, initial State) *fakeSession {
	return &fakeSession{
		guildID:   guildID,
		channelID: channelID,
		state:     initial,
		opus:      make(chan []byte, 1024),
	}
}

func (s *fakeSession) GuildID() string   { return s.guildID }
func (s *fakeSession) ChannelID() string { return s.channelID }

func (s *fakeSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *fakeSession) setState(st State) {
	s.mu.Lock()
	s.state = st
	watchers := make([]chan<- State, len(s.watchers))
	copy(watchers, s.watchers)
	s.mu.Unlock()
	for _, ch := range watchers {
		select {
		case ch <- st:
		default:
		}
	}
}

func (s *fakeSession) Notify(ch chan<- State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, ch)
}

func (s *fakeSession) StopNotify(ch chan<- State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, w := range s.watchers {
		if w == ch {
			s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
			break
		}
	}
}

func (s *fakeSession) Speaking(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speakErr
}

func (s *fakeSession) OpusSend() chan<- []byte { return s.opus }

func (s *fakeSession) Destroy() error {
	s.mu.Lock()
	s.destroyCalls++
	s.mu.Unlock()
	s.setState(StateDestroyed)
	return nil
}

func (s *fakeSession) destroyCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyCalls
}

// drainOpus discards frames so the player never blocks on the send channel.
func (s *fakeSession) drainOpus() {
	go func() {
		for range s.opus {
		}
	}()
}

// fakeTransport hands out fakeSessions and records Open calls.
type fakeTransport struct {
	mu        sync.Mutex
	openCalls int
	openErr   error
	stayDark  bool // opened sessions never reach ready
	sessions  map[string]*fakeSession
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{sessions: make(map[string]*fakeSession)}
}

func (t *fakeTransport) Open(guildID, channelID string) (Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.openCalls++
	if t.openErr != nil {
		return nil, t.openErr
	}
	initial := StateReady
	if t.stayDark {
		initial = StateConnecting
	}
	sess := newFakeSession(guildID, channelID, initial)
	t.sessions[guildID] = sess
	return sess, nil
}

func (t *fakeTransport) Existing(guildID string) (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sess, ok := t.sessions[guildID]
	return sess, ok
}

func (t *fakeTransport) openCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.openCalls
}

var errTransportDown = errors.New("transport down")
