package session

import "fmt"

// State is the lifecycle of a session. It only moves forward: a
// disconnected session is never reused.
type State int32

const (
	StateNew State = iota
	StateConnecting
	StateConnected
	StateDisconnecting
	StateDisconnected
)

var stateNames = [...]string{"new", "connecting", "connected", "disconnecting", "disconnected"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}

	return fmt.Sprintf("state(%d)", int32(s))
}
