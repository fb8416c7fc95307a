package tn5250

import (
	"errors"
	"sync"
	"sync/atomic"
)

var (
	// ErrEORRefused is returned when the host refuses the EOR telopt. 5250 records
	// cannot be framed without it, so the connection is unusable.
	ErrEORRefused = errors.New("tn5250: host refused the EOR telopt")
	// ErrNegotiationTimeout is returned when TRANSMIT-BINARY, EOR and TERMINAL-TYPE
	// have not all been agreed before the negotiation timeout elapses
	ErrNegotiationTimeout = errors.New("tn5250: telnet negotiation timed out")
	// ErrConnectionClosed is returned when the connection closes before
	// negotiation completes
	ErrConnectionClosed = errors.New("tn5250: connection closed during negotiation")
)

// NegotiationFlags is a set of flags recording which of the telopts required
// by TN5250E have been agreed
type NegotiationFlags uint32

const (
	NegotiatedBinaryLocal NegotiationFlags = 1 << iota
	NegotiatedBinaryRemote
	NegotiatedEORLocal
	NegotiatedEORRemote
	NegotiatedTerminalType
)

// NegotiatedAll is the set of flags that must be present before 5250 records flow
const NegotiatedAll = NegotiatedBinaryLocal | NegotiatedBinaryRemote | NegotiatedEORLocal | NegotiatedEORRemote | NegotiatedTerminalType

func flagFor(code TelOptCode, side TelOptSide) NegotiationFlags {
	switch {
	case code == CodeTRANSMITBINARY && side == TelOptSideLocal:
		return NegotiatedBinaryLocal
	case code == CodeTRANSMITBINARY && side == TelOptSideRemote:
		return NegotiatedBinaryRemote
	case code == CodeEOR && side == TelOptSideLocal:
		return NegotiatedEORLocal
	case code == CodeEOR && side == TelOptSideRemote:
		return NegotiatedEORRemote
	case code == CodeTTYPE && side == TelOptSideLocal:
		return NegotiatedTerminalType
	}

	return 0
}

// negotiation tracks telopt agreement and resolves exactly once, either when
// every required flag is set or when negotiation fails
type negotiation struct {
	flags atomic.Uint32

	once sync.Once
	done chan struct{}
	err  error
}

func newNegotiation() *negotiation {
	return &negotiation{done: make(chan struct{})}
}

func (n *negotiation) Get() NegotiationFlags {
	return NegotiationFlags(n.flags.Load())
}

func (n *negotiation) SetFlag(flag NegotiationFlags) {
	for {
		oldValue := n.flags.Load()
		if n.flags.CompareAndSwap(oldValue, oldValue|uint32(flag)) {
			break
		}
	}

	if n.Get()&NegotiatedAll == NegotiatedAll {
		n.resolve(nil)
	}
}

func (n *negotiation) ClearFlag(flag NegotiationFlags) {
	for {
		oldValue := n.flags.Load()
		if n.flags.CompareAndSwap(oldValue, oldValue&uint32(^flag)) {
			break
		}
	}
}

func (n *negotiation) resolve(err error) {
	n.once.Do(func() {
		n.err = err
		close(n.done)
	})
}

// observe folds a telopt state change into the negotiation. It returns
// ErrEORRefused when the change withdraws EOR from either side.
func (n *negotiation) observe(event TelOptStateChangeEvent) error {
	flag := flagFor(event.TelnetOption.Code(), event.Side)
	if flag == 0 {
		return nil
	}

	if event.NewState == TelOptActive {
		n.SetFlag(flag)
		return nil
	}

	n.ClearFlag(flag)

	if event.TelnetOption.Code() == CodeEOR && event.NewState == TelOptInactive &&
		(event.OldState == TelOptRequested || event.OldState == TelOptActive) {
		n.resolve(ErrEORRefused)
		return ErrEORRefused
	}

	return nil
}
