package tn5250

import (
	"fmt"
)

func (t *Terminal) initTelopts(options []TelnetOption) error {
	for _, option := range options {
		oldOption, hasOldOption := t.options[option.Code()]
		if hasOldOption {
			return fmt.Errorf("telopt collision: TelOpt %d is already registered to an option of type %T. it cannot be registered to an option of type %T", option.Code(), oldOption, option)
		}

		option.Initialize(t)
		t.options[option.Code()] = option
	}

	return nil
}

func (t *Terminal) writeTelOptRequests() error {
	for _, option := range t.options {
		usage := option.Usage()
		if usage&telOptOnlyRequestLocal != 0 {
			t.keyboard.WriteCommand(Command{
				OpCode: WILL,
				Option: option.Code(),
			}, nil)

			if err := t.transition(option, TelOptSideLocal, TelOptRequested); err != nil {
				return err
			}
		}

		if usage&telOptOnlyRequestRemote != 0 {
			t.keyboard.WriteCommand(Command{
				OpCode: DO,
				Option: option.Code(),
			}, nil)

			if err := t.transition(option, TelOptSideRemote, TelOptRequested); err != nil {
				return err
			}
		}
	}

	return nil
}

// transition moves one side of a telopt to newState and raises the state
// change. Repeated transitions to the same state do nothing.
func (t *Terminal) transition(option TelnetOption, side TelOptSide, newState TelOptState) error {
	oldState := option.RemoteState()
	transitionFunc := option.TransitionRemoteState
	if side == TelOptSideLocal {
		oldState = option.LocalState()
		transitionFunc = option.TransitionLocalState
	}

	if oldState == newState || (oldState == TelOptUnknown && newState == TelOptInactive) {
		return nil
	}

	if err := transitionFunc(newState); err != nil {
		return err
	}

	t.RaiseTelOptEvent(TelOptStateChangeEvent{
		TelnetOption: option,
		Side:         side,
		OldState:     oldState,
		NewState:     newState,
	})

	return nil
}

func (t *Terminal) rejectNegotiationRequest(c Command) {
	if c.isActivateNegotiation() {
		t.keyboard.WriteCommand(c.reject(), nil)
	}
}

func (t *Terminal) processSubnegotiation(c Command) error {
	option, hasOption := t.options[c.Option]
	if !hasOption {
		// Getting subnegotiations for stuff we haven't agreed to
		return nil
	}

	if option.LocalState() != TelOptActive && option.RemoteState() != TelOptActive {
		// Getting subnegotiations for stuff we haven't agreed to
		return nil
	}

	return option.Subnegotiate(c.Subnegotiation)
}

func (t *Terminal) processTelOptCommand(c Command) error {
	if c.OpCode == SB {
		return t.processSubnegotiation(c)
	}

	// It's not a negotiation command
	if c.OpCode != DO && c.OpCode != DONT && c.OpCode != WILL && c.OpCode != WONT {
		return nil
	}

	// Is this an option we know about?
	option, hasOption := t.options[c.Option]
	if !hasOption {
		// Unregistered telopt
		t.rejectNegotiationRequest(c)

		return nil
	}

	oldState := option.RemoteState()
	side := TelOptSideRemote
	allowFlag := TelOptAllowRemote
	if c.isLocalNegotiation() {
		oldState = option.LocalState()
		side = TelOptSideLocal
		allowFlag = TelOptAllowLocal
	}

	// They are requesting WONT/DONT
	if !c.isActivateNegotiation() {
		if oldState == TelOptActive {
			// Acknowledge the host turning it off
			t.keyboard.WriteCommand(c.acknowledge(), nil)
		}

		return t.transition(option, side, TelOptInactive)
	}

	// They are requesting DO/WILL
	if oldState == TelOptActive {
		// Already turned on
		return nil
	}

	if option.Usage()&allowFlag == 0 {
		// Disallowed telopt
		t.rejectNegotiationRequest(c)

		return nil
	}

	if oldState != TelOptRequested {
		// Need to send an accept command
		t.keyboard.WriteCommand(c.accept(), nil)
	}

	return t.transition(option, side, TelOptActive)
}
