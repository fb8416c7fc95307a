package tn5250

import (
	"fmt"
)

// TelOptUsage indicates how a particular TelnetOption is supposed to be used by the
// terminal.  Whether it is permitted to be activated locally or on the remote, and
// whether we should request activation locally or on the remote when the Terminal launches.
type TelOptUsage byte

// There's no situation where we'd want to request usage of a telopt but not allow the remote to
// propose it, so the TelOptRequestRemote/Local exposed to consumers includes both flags

const (
	// TelOptAllowRemote - if the remote requests to activate this telopt on their side,
	// we will permit it
	TelOptAllowRemote TelOptUsage = 1 << iota
	telOptOnlyRequestRemote
	// TelOptAllowLocal - if the remote requests that we activate this telopt on our side,
	// we will comply
	TelOptAllowLocal
	telOptOnlyRequestLocal
)

const (
	// TelOptRequestRemote - we will request that the remote activate this telopt during
	// Terminal startup
	TelOptRequestRemote TelOptUsage = TelOptAllowRemote | telOptOnlyRequestRemote
	// TelOptRequestLocal - we will request that the remote allow us to activate this
	// telopt on our side during Terminal startup
	TelOptRequestLocal TelOptUsage = TelOptAllowLocal | telOptOnlyRequestLocal
	// TelOptRequestBoth - both sides of the connection are expected to run the telopt,
	// as TN5250E requires of TRANSMIT-BINARY and EOR
	TelOptRequestBoth TelOptUsage = TelOptRequestLocal | TelOptRequestRemote
)

// TelOptCode - each telopt has a unique identification number between 0 and 255
type TelOptCode byte

// The telopts a TN5250E session negotiates
const (
	CodeTRANSMITBINARY TelOptCode = 0
	CodeTTYPE          TelOptCode = 24
	CodeEOR            TelOptCode = 25
	CodeNEWENVIRON     TelOptCode = 39
)

// TelnetOption is an object representing a single telopt within the currently-running
// terminal.  Each terminal has its own version of a telopt for each telopt it supports.
type TelnetOption interface {
	// Code returns the code this option should be registered under. This method is expected to run succesfully
	// before Initialize is called.
	Code() TelOptCode
	// String should return the short name used to refer to this option. This method is expected to run
	// successfully before Initialize is called.
	String() string
	// Usage indicates the way in which this TelOpt is permitted to be used. This method
	// is expected to run successfully before Initialize is called.
	Usage() TelOptUsage

	// Initialize sets the terminal used by this telopt and performs any other necessary
	// business before other methods may be called.
	Initialize(terminal *Terminal)
	// Terminal returns the current terminal. This method must successfully return nil
	// before Initialize is called.
	Terminal() *Terminal

	// LocalState returns the current state of this option locally- receiving a DO command will activate
	// it and a DONT command will deactivate it.
	LocalState() TelOptState
	// RemoteState returns the current state of this option in the remote- receiving a WILL command
	// will activate it and a WONT command will deactivate it
	RemoteState() TelOptState

	// TransitionLocalState is called when the terminal changes this option to a new state
	// locally. It is not called for repeated transitions to the same state.
	TransitionLocalState(newState TelOptState) error
	// TransitionRemoteState is called when the terminal changes this option to a new state
	// for the remote. It is not called for repeated transitions to the same state.
	TransitionRemoteState(newState TelOptState) error

	// Subnegotiate is called when a subnegotiation request arrives from the remote party. This will only
	// be called when the option is active on one side of the connection
	Subnegotiate(subnegotiation []byte) error
	// SubnegotiationString creates a legible string for a subnegotiation request
	SubnegotiationString(subnegotiation []byte) (string, error)
}

// TelOptState indicates whether the telopt is currently active, inactive, or other
type TelOptState byte

const (
	// TelOptUnknown is the zero value for the telopt state value.  This is generally interchangeable with
	// TelOptInactive
	TelOptUnknown TelOptState = iota
	// TelOptInactive indicates that the option is not currently active
	TelOptInactive
	// TelOptRequested indicates that this client has sent a request to activate the telopt to the other party
	// but has not yet heard back
	TelOptRequested
	// TelOptActive indicates that both parties have agreed to run the telopt
	TelOptActive
)

func (s TelOptState) String() string {
	switch s {
	case TelOptInactive:
		return "Inactive"
	case TelOptRequested:
		return "Requested"
	case TelOptActive:
		return "Active"
	default:
		return "Unknown"
	}
}

// TelOptSide indicates which side of the connection a telopt state refers to
type TelOptSide byte

const (
	TelOptSideUnknown TelOptSide = iota
	TelOptSideLocal
	TelOptSideRemote
)

func (s TelOptSide) String() string {
	switch s {
	case TelOptSideLocal:
		return "Local"
	case TelOptSideRemote:
		return "Remote"
	default:
		return "Unknown"
	}
}

// TelOptEvent is an event raised by a telopt through Terminal.RaiseTelOptEvent
type TelOptEvent interface {
	Option() TelnetOption
	String() string
}

// TelOptStateChangeEvent is raised whenever a telopt changes state on either side
// of the connection
type TelOptStateChangeEvent struct {
	TelnetOption TelnetOption
	Side         TelOptSide
	OldState     TelOptState
	NewState     TelOptState
}

var _ TelOptEvent = TelOptStateChangeEvent{}

func (e TelOptStateChangeEvent) Option() TelnetOption {
	return e.TelnetOption
}

func (e TelOptStateChangeEvent) String() string {
	return fmt.Sprintf("%s %s: %s -> %s", e.TelnetOption, e.Side, e.OldState, e.NewState)
}

// TypedTelnetOption - this is used as a bit of a hack for GetTelOpt. It allows
// the generic semantic below to work
type TypedTelnetOption[OptionStruct any] interface {
	*OptionStruct
	TelnetOption
}

// GetTelOpt retrieves a live telopt from a terminal. It is used like this:
//
//	tn5250.GetTelOpt[telopts.TTYPE](terminal)
//
// The above will return a value of type *telopts.TTYPE, or nil if TTYPE is not a registered
// telopt.  If there is a telopt of a different type registered under TTYPE's code, then the method
// will return an error.
func GetTelOpt[OptionStruct any, T TypedTelnetOption[OptionStruct]](terminal *Terminal) (T, error) {
	var zero OptionStruct
	code := T(&zero).Code()

	option, hasOption := terminal.options[code]
	if !hasOption {
		return nil, nil
	}

	typed, ok := option.(T)
	if !ok {
		return nil, fmt.Errorf("TelOpt %d did not return type %T- it returned type %T", code, zero, option)
	}

	return typed, nil
}
