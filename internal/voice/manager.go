package voice

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrConnectTimeout means the transport session did not become ready in time.
	ErrConnectTimeout = errors.New("voice: connect timed out")
	// ErrConnectFailure means the transport refused to open a session at all.
	ErrConnectFailure = errors.New("voice: connect failed")
)

const (
	readyTimeout   = 30 * time.Second
	reconnectGrace = 5 * time.Second

	// DefaultDisconnectDelay is how long a disconnect request waits before
	// tearing the session down, letting in-flight audio drain.
	DefaultDisconnectDelay = 5 * time.Second
)

// Manager owns at most one live session per guild. It provides idempotent
// connect, delayed disconnect, and a bounded reconnection grace period when
// the transport reports a drop.
type Manager struct {
	transport       Transport
	disconnectDelay time.Duration
	readyTimeout    time.Duration
	reconnectGrace  time.Duration

	mu           sync.Mutex
	sessions     map[string]Session
	pending      map[string]*time.Timer // guildID -> scheduled teardown
	reconnecting map[string]bool
}

func NewManager(transport Transport, disconnectDelay time.Duration) *Manager {
	if disconnectDelay <= 0 {
		disconnectDelay = DefaultDisconnectDelay
	}
	return &Manager{
		transport:       transport,
		disconnectDelay: disconnectDelay,
		readyTimeout:    readyTimeout,
		reconnectGrace:  reconnectGrace,
		sessions:        make(map[string]Session),
		pending:         make(map[string]*time.Timer),
		reconnecting:    make(map[string]bool),
	}
}

// Connect returns the guild's session, opening one if needed. A connect for a
// guild already joined to the same channel is a no-op returning the existing
// session; it also cancels any pending delayed disconnect for the guild.
func (m *Manager) Connect(guildID, channelID string) (Session, error) {
	m.mu.Lock()
	if timer, ok := m.pending[guildID]; ok {
		timer.Stop()
		delete(m.pending, guildID)
	}
	var stale Session
	if sess, ok := m.sessions[guildID]; ok {
		if sess.ChannelID() == channelID && sess.State() != StateDestroyed {
			m.mu.Unlock()
			return sess, nil
		}
		// joined to a different channel (or a dead session): retire it first
		stale = sess
		delete(m.sessions, guildID)
	}
	m.mu.Unlock()
	if stale != nil {
		if err := stale.Destroy(); err != nil {
			slog.Warn("voice: failed to destroy stale session", "guildID", guildID, "error", err)
		}
	}

	sess, err := m.transport.Open(guildID, channelID)
	if err != nil {
		return nil, fmt.Errorf("%w: guild %s: %v", ErrConnectFailure, guildID, err)
	}

	m.mu.Lock()
	m.sessions[guildID] = sess
	m.mu.Unlock()
	go m.watch(sess)

	if _, err := AwaitState(sess, m.readyTimeout, StateReady); err != nil {
		// cleanup is left to the watcher, which sees the eventual terminal state
		return nil, fmt.Errorf("%w: guild %s channel %s", ErrConnectTimeout, guildID, channelID)
	}
	return sess, nil
}

// Session returns the live session for a guild, if any.
func (m *Manager) Session(guildID string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[guildID]
	return sess, ok
}

// Disconnect schedules teardown of the guild's session after the disconnect
// delay. A second call while one is pending is a no-op.
func (m *Manager) Disconnect(guildID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[guildID]
	if !ok {
		return
	}
	if _, alreadyPending := m.pending[guildID]; alreadyPending {
		return
	}
	m.pending[guildID] = time.AfterFunc(m.disconnectDelay, func() {
		m.teardown(guildID, sess)
	})
}

// DisconnectAll tears down every live session immediately. Used at shutdown.
func (m *Manager) DisconnectAll() {
	m.mu.Lock()
	for guildID, timer := range m.pending {
		timer.Stop()
		delete(m.pending, guildID)
	}
	sessions := make([]Session, 0, len(m.sessions))
	for guildID, sess := range m.sessions {
		sessions = append(sessions, sess)
		delete(m.sessions, guildID)
	}
	m.mu.Unlock()

	for _, sess := range sessions {
		if err := sess.Destroy(); err != nil {
			slog.Warn("voice: failed to destroy session", "guildID", sess.GuildID(), "error", err)
		}
	}
}

func (m *Manager) teardown(guildID string, sess Session) {
	m.mu.Lock()
	delete(m.pending, guildID)
	if cur, ok := m.sessions[guildID]; !ok || cur != sess {
		m.mu.Unlock()
		return
	}
	delete(m.sessions, guildID)
	m.mu.Unlock()

	if err := sess.Destroy(); err != nil {
		slog.Warn("voice: failed to destroy session", "guildID", guildID, "error", err)
	}
	slog.Debug("voice: session torn down", "guildID", guildID)
}

// watch reacts to transport-reported state changes. On a drop it allows one
// in-flight recovery attempt per guild: the session has a short grace period
// to start renegotiating and another to become ready again, after which all
// bookkeeping for the guild is destroyed.
func (m *Manager) watch(sess Session) {
	guildID := sess.GuildID()
	ch := make(chan State, 8)
	sess.Notify(ch)
	defer sess.StopNotify(ch)

	for st := range ch {
		switch st {
		case StateDestroyed:
			m.drop(guildID, sess)
			return
		case StateDisconnected:
			if !m.beginReconnect(guildID) {
				continue
			}
			if m.awaitRecovery(sess) {
				m.endReconnect(guildID)
				slog.Info("voice: session recovered", "guildID", guildID)
				continue
			}
			m.endReconnect(guildID)
			m.drop(guildID, sess)
			if err := sess.Destroy(); err != nil {
				slog.Warn("voice: failed to destroy lost session", "guildID", guildID, "error", err)
			}
			slog.Info("voice: session lost", "guildID", guildID)
			return
		}
	}
}

func (m *Manager) awaitRecovery(sess Session) bool {
	// either signal within the grace period counts as renegotiation starting
	if _, err := AwaitState(sess, m.reconnectGrace, StateSignalling, StateConnecting, StateReady); err != nil {
		return false
	}
	_, err := AwaitState(sess, m.reconnectGrace, StateReady)
	return err == nil
}

func (m *Manager) beginReconnect(guildID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reconnecting[guildID] {
		return false
	}
	m.reconnecting[guildID] = true
	return true
}

func (m *Manager) endReconnect(guildID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reconnecting, guildID)
}

func (m *Manager) drop(guildID string, sess Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.sessions[guildID]; ok && cur == sess {
		delete(m.sessions, guildID)
	}
	if timer, ok := m.pending[guildID]; ok {
		timer.Stop()
		delete(m.pending, guildID)
	}
}
