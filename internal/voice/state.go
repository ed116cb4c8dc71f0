package voice

// State is the lifecycle of a transport session.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateSignalling
	StateReady
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateSignalling:
		return "signalling"
	case StateReady:
		return "ready"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}
