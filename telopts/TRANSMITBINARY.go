package telopts

import (
	"github.com/moodclient/tn5250"
)

const transmitbinaryKeyboardLock string = "lock.binary"

// RegisterTRANSMITBINARY creates the TRANSMIT-BINARY telopt. 5250 records are
// eight-bit EBCDIC, so a TN5250E client runs it in both directions.
func RegisterTRANSMITBINARY(usage tn5250.TelOptUsage) tn5250.TelnetOption {
	return &TRANSMITBINARY{
		BaseTelOpt: NewBaseTelOpt(usage),
	}
}

type TRANSMITBINARY struct {
	BaseTelOpt
}

func (o *TRANSMITBINARY) Code() tn5250.TelOptCode {
	return tn5250.CodeTRANSMITBINARY
}

func (o *TRANSMITBINARY) String() string {
	return "TRANSMIT-BINARY"
}

// TransitionLocalState holds records back while our WILL is unanswered, since
// a record sent before the host agrees would not be read as binary
func (o *TRANSMITBINARY) TransitionLocalState(newState tn5250.TelOptState) error {
	err := o.BaseTelOpt.TransitionLocalState(newState)
	if err != nil {
		return err
	}

	if newState == tn5250.TelOptRequested {
		o.Terminal().Keyboard().SetLock(transmitbinaryKeyboardLock, tn5250.DefaultKeyboardLock)
		return nil
	}

	o.Terminal().Keyboard().ClearLock(transmitbinaryKeyboardLock)
	return nil
}
