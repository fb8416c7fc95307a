package telopts

import (
	"fmt"

	"github.com/moodclient/tn5250"
)

const eorKeyboardLock string = "lock.eor"

// RegisterEOR creates the EOR telopt. Every 5250 record is framed by IAC EOR,
// so a TN5250E client runs it in both directions and the terminal treats the
// host refusing it as fatal.
func RegisterEOR(usage tn5250.TelOptUsage) tn5250.TelnetOption {
	return &EOR{
		BaseTelOpt: NewBaseTelOpt(usage),
	}
}

type EOR struct {
	BaseTelOpt
}

func (o *EOR) Code() tn5250.TelOptCode {
	return tn5250.CodeEOR
}

func (o *EOR) String() string {
	return "EOR"
}

func (o *EOR) TransitionLocalState(newState tn5250.TelOptState) error {
	err := o.BaseTelOpt.TransitionLocalState(newState)
	if err != nil {
		return err
	}

	if newState == tn5250.TelOptRequested {
		o.Terminal().Keyboard().SetLock(eorKeyboardLock, tn5250.DefaultKeyboardLock)
		return nil
	}

	o.Terminal().Keyboard().ClearLock(eorKeyboardLock)
	return nil
}

func (o *EOR) Subnegotiate(subnegotiation []byte) error {
	return fmt.Errorf("eor: unknown subnegotiation: %+v", subnegotiation)
}

func (o *EOR) SubnegotiationString(subnegotiation []byte) (string, error) {
	return "", fmt.Errorf("eor: unknown subnegotiation: %+v", subnegotiation)
}
