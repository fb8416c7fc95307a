package telopts

import (
	"fmt"
	"sync/atomic"

	"github.com/moodclient/tn5250"
)

// BaseTelOpt carries the state every telopt shares. Telopts embed it and
// supply Code, String and whatever transitions they care about.
type BaseTelOpt struct {
	terminal    *tn5250.Terminal
	localState  atomic.Uint32
	remoteState atomic.Uint32
	usage       tn5250.TelOptUsage
}

func NewBaseTelOpt(usage tn5250.TelOptUsage) BaseTelOpt {
	return BaseTelOpt{usage: usage}
}

func (o *BaseTelOpt) LocalState() tn5250.TelOptState {
	state := tn5250.TelOptState(o.localState.Load())
	if state == tn5250.TelOptUnknown {
		return tn5250.TelOptInactive
	}

	return state
}

func (o *BaseTelOpt) RemoteState() tn5250.TelOptState {
	state := tn5250.TelOptState(o.remoteState.Load())
	if state == tn5250.TelOptUnknown {
		return tn5250.TelOptInactive
	}

	return state
}

func (o *BaseTelOpt) Usage() tn5250.TelOptUsage {
	return o.usage
}

func (o *BaseTelOpt) Initialize(terminal *tn5250.Terminal) {
	o.terminal = terminal
}

func (o *BaseTelOpt) Terminal() *tn5250.Terminal {
	return o.terminal
}

func (o *BaseTelOpt) TransitionLocalState(newState tn5250.TelOptState) error {
	o.localState.Store(uint32(newState))
	return nil
}

func (o *BaseTelOpt) TransitionRemoteState(newState tn5250.TelOptState) error {
	o.remoteState.Store(uint32(newState))
	return nil
}

func (o *BaseTelOpt) Subnegotiate(subnegotiation []byte) error {
	return fmt.Errorf("unexpected subnegotiation %+v", subnegotiation)
}

func (o *BaseTelOpt) SubnegotiationString(subnegotiation []byte) (string, error) {
	return "", fmt.Errorf("unexpected subnegotiation %+v", subnegotiation)
}
