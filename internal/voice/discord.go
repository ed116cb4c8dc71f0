package voice

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// DiscordTransport opens voice sessions over discordgo and translates the
// library's connection lifecycle into the State enum. A VoiceStateUpdate
// handler watches for the bot itself being moved out of or back into a
// channel, which discordgo does not surface on the connection object.
type DiscordTransport struct {
	session *discordgo.Session

	mu       sync.Mutex
	sessions map[string]*discordSession // guildID -> wrapper
}

func NewDiscordTransport(session *discordgo.Session) *DiscordTransport {
	t := &DiscordTransport{
		session:  session,
		sessions: make(map[string]*discordSession),
	}
	session.AddHandler(t.onVoiceStateUpdate)
	return t
}

func (t *DiscordTransport) Open(guildID, channelID string) (Session, error) {
	ds := &discordSession{
		guildID:   guildID,
		channelID: channelID,
		state:     StateConnecting,
	}
	t.mu.Lock()
	t.sessions[guildID] = ds
	t.mu.Unlock()

	// ChannelVoiceJoin blocks until the connection is ready or errors; it
	// also moves an existing connection when the guild is already joined.
	vc, err := t.session.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		t.drop(guildID, ds)
		return nil, fmt.Errorf("failed to join voice channel %s: %w", channelID, err)
	}
	ds.vc = vc
	ds.setState(StateReady)
	return ds, nil
}

func (t *DiscordTransport) Existing(guildID string) (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ds, ok := t.sessions[guildID]
	return ds, ok
}

func (t *DiscordTransport) onVoiceStateUpdate(s *discordgo.Session, update *discordgo.VoiceStateUpdate) {
	if s.State.User == nil || update.UserID != s.State.User.ID {
		return
	}
	t.mu.Lock()
	ds, ok := t.sessions[update.GuildID]
	t.mu.Unlock()
	if !ok {
		return
	}

	switch {
	case update.ChannelID == "":
		ds.setState(StateDisconnected)
	case update.ChannelID == ds.channelID:
		// rejoined (or gateway resumed) the tracked channel
		if ds.vc != nil && ds.vc.Ready {
			ds.setState(StateReady)
		} else {
			ds.setState(StateSignalling)
		}
	}
}

func (t *DiscordTransport) drop(guildID string, ds *discordSession) {
	t.mu.Lock()
	if cur, ok := t.sessions[guildID]; ok && cur == ds {
		delete(t.sessions, guildID)
	}
	t.mu.Unlock()
}

type discordSession struct {
	guildID   string
	channelID string
	vc        *discordgo.VoiceConnection

	mu       sync.Mutex
	state    State
	watchers []chan<- State
}

func (s *discordSession) GuildID() string   { return s.guildID }
func (s *discordSession) ChannelID() string { return s.channelID }

func (s *discordSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *discordSession) Notify(ch chan<- State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, ch)
}

func (s *discordSession) StopNotify(ch chan<- State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, w := range s.watchers {
		if w == ch {
			s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
			break
		}
	}
}

func (s *discordSession) setState(st State) {
	s.mu.Lock()
	if s.state == st || s.state == StateDestroyed {
		s.mu.Unlock()
		return
	}
	s.state = st
	watchers := make([]chan<- State, len(s.watchers))
	copy(watchers, s.watchers)
	s.mu.Unlock()

	for _, ch := range watchers {
		select {
		case ch <- st:
		default: // slow watcher, drop rather than block the gateway handler
		}
	}
}

func (s *discordSession) Speaking(on bool) error {
	if s.vc == nil {
		return fmt.Errorf("voice: session for guild %s has no connection", s.guildID)
	}
	return s.vc.Speaking(on)
}

func (s *discordSession) OpusSend() chan<- []byte {
	if s.vc == nil {
		return nil
	}
	return s.vc.OpusSend
}

func (s *discordSession) Destroy() error {
	s.mu.Lock()
	if s.state == StateDestroyed {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	var err error
	if s.vc != nil {
		err = s.vc.Disconnect()
	}
	s.setState(StateDestroyed)
	return err
}
