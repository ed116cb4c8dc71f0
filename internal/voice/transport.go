package voice

import (
	"errors"
	"time"
)

var errStateTimeout = errors.New("voice: state wait timed out")

// Session is one live voice connection to a guild's channel. Implementations
// must deliver state changes to every channel registered with Notify; sends
// are non-blocking, so watcher channels need a small buffer.
type Session interface {
	GuildID() string
	ChannelID() string
	State() State
	Notify(ch chan<- State)
	StopNotify(ch chan<- State)
	Speaking(on bool) error
	OpusSend() chan<- []byte
	Destroy() error
}

// Transport opens voice sessions. The discordgo implementation lives in
// discord.go; tests inject fakes.
type Transport interface {
	Open(guildID, channelID string) (Session, error)
	Existing(guildID string) (Session, bool)
}

// AwaitState blocks until the session reaches any of the wanted states or the
// timeout elapses. It subscribes before sampling the current state, so a
// transition racing the call is not missed.
func AwaitState(sess Session, timeout time.Duration, wanted ...State) (State, error) {
	ch := make(chan State, 8)
	sess.Notify(ch)
	defer sess.StopNotify(ch)

	if st := sess.State(); stateIn(st, wanted) {
		return st, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case st := <-ch:
			if stateIn(st, wanted) {
				return st, nil
			}
		case <-timer.C:
			return sess.State(), errStateTimeout
		}
	}
}

func stateIn(st State, set []State) bool {
	for _, s := range set {
		if st == s {
			return true
		}
	}
	return false
}
