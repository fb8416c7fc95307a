package telopts

import (
	"errors"
	"fmt"
	"sync"

	"github.com/moodclient/tn5250"
)

const (
	ttypeIS byte = iota
	ttypeSEND
)

// Terminal types a TN5250E host recognizes
const (
	TerminalType3179 = "IBM-3179-2"
	TerminalType3477 = "IBM-3477-FC"
)

// RegisterTTYPE creates the TERMINAL-TYPE telopt. Each SEND from the host is
// answered with the next entry of localTerminals, and the last entry repeats
// once the list is exhausted.
func RegisterTTYPE(usage tn5250.TelOptUsage, localTerminals []string) tn5250.TelnetOption {
	return &TTYPE{
		BaseTelOpt:     NewBaseTelOpt(usage),
		localTerminals: localTerminals,
	}
}

type TTYPE struct {
	BaseTelOpt

	localTerminalLock   sync.Mutex
	localTerminalCursor int
	localTerminals      []string
	lastSent            string
}

func (o *TTYPE) Code() tn5250.TelOptCode {
	return tn5250.CodeTTYPE
}

func (o *TTYPE) String() string {
	return "TTYPE"
}

func (o *TTYPE) writeTerminal(terminal string) {
	terminalBytes := make([]byte, 0, len(terminal)+1)
	terminalBytes = append(terminalBytes, ttypeIS)
	terminalBytes = append(terminalBytes, terminal...)

	o.lastSent = terminal
	o.Terminal().Keyboard().WriteCommand(tn5250.Command{
		OpCode:         tn5250.SB,
		Option:         tn5250.CodeTTYPE,
		Subnegotiation: terminalBytes,
	}, nil)
}

func (o *TTYPE) TransitionLocalState(newState tn5250.TelOptState) error {
	err := o.BaseTelOpt.TransitionLocalState(newState)
	if err != nil {
		return err
	}

	if newState == tn5250.TelOptInactive {
		o.localTerminalLock.Lock()
		defer o.localTerminalLock.Unlock()

		o.localTerminalCursor = 0
	}

	return nil
}

func (o *TTYPE) SubnegotiationString(subnegotiation []byte) (string, error) {
	if len(subnegotiation) < 1 {
		return "", errors.New("ttype: received empty subnegotiation")
	}

	switch subnegotiation[0] {
	case ttypeIS:
		return "IS " + string(subnegotiation[1:]), nil
	case ttypeSEND:
		return "SEND", nil
	}

	return "", fmt.Errorf("ttype: unknown subnegotiation: %+v", subnegotiation)
}

func (o *TTYPE) Subnegotiate(subnegotiation []byte) error {
	if len(subnegotiation) < 1 {
		return errors.New("ttype: received empty subnegotiation")
	}

	if subnegotiation[0] != ttypeSEND {
		return fmt.Errorf("ttype: unexpected subnegotiation from host: %+v", subnegotiation)
	}

	if o.LocalState() != tn5250.TelOptActive {
		return nil
	}

	o.localTerminalLock.Lock()
	defer o.localTerminalLock.Unlock()

	if len(o.localTerminals) == 0 {
		o.writeTerminal("UNKNOWN")
		return nil
	}

	if o.localTerminalCursor >= len(o.localTerminals) {
		// Resend the last item until they shut up
		o.writeTerminal(o.localTerminals[len(o.localTerminals)-1])
		return nil
	}

	// Send the current terminal and then increment
	o.writeTerminal(o.localTerminals[o.localTerminalCursor])
	o.localTerminalCursor++

	return nil
}

// SetLocalTerminals replaces the offered terminal types and restarts the cycle
func (o *TTYPE) SetLocalTerminals(terminals []string) {
	o.localTerminalLock.Lock()
	defer o.localTerminalLock.Unlock()

	o.localTerminals = terminals
	o.localTerminalCursor = 0
}

// LastSent returns the terminal type most recently sent to the host, which is
// the one the host settles on
func (o *TTYPE) LastSent() string {
	o.localTerminalLock.Lock()
	defer o.localTerminalLock.Unlock()

	return o.lastSent
}
