package domain

// State is the connection lifecycle of the client session.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Disconnecting
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnecting:
		return "disconnecting"
	}
	return "unknown"
}

// Session holds the client's identity on the server.
// Invariant: Name is non-empty iff State is Connected or Disconnecting.
type Session struct {
	Name  string
	State State
}

// Connected reports whether the session currently owns a reserved name.
func (s Session) Connected() bool {
	return s.State == Connected || s.State == Disconnecting
}

// CanTransition reports whether moving to next is a legal lifecycle step.
func (s Session) CanTransition(next State) bool {
	switch s.State {
	case Disconnected:
		return next == Connecting
	case Connecting:
		return next == Connected || next == Disconnected
	case Connected:
		return next == Disconnecting
	case Disconnecting:
		return next == Disconnected || next == Connected
	}
	return false
}
