package tn5250

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Telnet opcodes
const (
	// EOR - End Of Record. Every 5250 data stream record in either direction
	// is terminated with IAC EOR once the EOR telopt is active
	EOR byte = 239
	// SE - Subnegotiation End. IAC SE is used to mark the end of a subnegotiation command
	SE byte = 240
	// NOP - No-Op. IAC NOP doesn't indicate anything at all, and this library ignores it.
	NOP byte = 241
	// GA - Go Ahead. 5250 hosts run with go-ahead suppressed in practice, so a
	// received IAC GA is dropped
	GA byte = 249
	// SB - Subnegotiation Begin. IAC SB is used to indicate the beginning of a subnegotiation
	// command. These are telopt-specific commands that have telopt-specific meanings.
	SB byte = 250
	// WILL - IAC WILL is used to indicate that this terminal intends to activate a telopt
	WILL byte = 251
	// WONT - IAC WONT is used to indicate that this terminal refuses to activate a telopt
	WONT byte = 252
	// DO - IAC DO is used to request that the remote terminal activates a telopt
	DO byte = 253
	// DONT - IAC DONT is used to demand that the remote terminal do not activate a telopt
	DONT byte = 254
	// IAC - This opcode indicates the beginning of a new command. Inside record
	// data a literal 0xFF is sent as IAC IAC
	IAC byte = 255
)

var commandCodes = map[byte]string{
	EOR:  "EOR",
	SE:   "SE",
	NOP:  "NOP",
	GA:   "GA",
	SB:   "SB",
	WILL: "WILL",
	WONT: "WONT",
	DO:   "DO",
	DONT: "DONT",
	IAC:  "IAC",
}

// Command is a single IAC command either received from or sent to the host.
// Record data never travels as a Command: it is carried by the printer's
// record channel and the keyboard's WriteRecord.
type Command struct {
	// OpCode is the code that comes after IAC in this command. Subnegotiations,
	// which come in the form of IAC SB <bytes> IAC SE, are represented as a
	// single command with the OpCode SB.
	OpCode byte
	// Option indicates which telopt this command is referring to, if the command has one.
	// IAC WILL/WONT/DO/DONT/SB are always followed by a byte indicating a telopt.
	Option TelOptCode
	// Subnegotiation contains the unescaped bytes between IAC SB <option> and IAC SE.
	// For non-SB commands, this slice is empty.
	Subnegotiation []byte
}

// isActivateNegotiation indicates whether this command is a negotiation requesting activation
// of a telopt (DO/WILL).
func (c Command) isActivateNegotiation() bool {
	return c.OpCode == DO || c.OpCode == WILL
}

// isLocalNegotiation indicates whether this command is a negotiation regarding a local
// telopt received from the remote (DO/DONT)
func (c Command) isLocalNegotiation() bool {
	return c.OpCode == DO || c.OpCode == DONT
}

// reject produces a new command rejecting this one (WONT/DONT) if this command is
// an activate negotiation command (DO/WILL)
func (c Command) reject() Command {
	switch c.OpCode {
	case DO:
		return Command{OpCode: WONT, Option: c.Option}
	case WILL:
		return Command{OpCode: DONT, Option: c.Option}
	}

	return Command{OpCode: NOP}
}

// accept produces a new command accepting this one (WILL/DO) if this command is
// an activate negotiation command (DO/WILL)
func (c Command) accept() Command {
	switch c.OpCode {
	case DO:
		return Command{OpCode: WILL, Option: c.Option}
	case WILL:
		return Command{OpCode: DO, Option: c.Option}
	}

	return Command{OpCode: NOP}
}

// acknowledge produces the reply confirming a deactivation (WONT/DONT)
func (c Command) acknowledge() Command {
	switch c.OpCode {
	case DONT:
		return Command{OpCode: WONT, Option: c.Option}
	case WONT:
		return Command{OpCode: DONT, Option: c.Option}
	}

	return Command{OpCode: NOP}
}

// encode renders the command as it travels on the wire, doubling any IAC
// inside subnegotiation data
func (c Command) encode() []byte {
	if c.OpCode == GA || c.OpCode == NOP || c.OpCode == EOR {
		return []byte{IAC, c.OpCode}
	}

	if c.OpCode != SB {
		return []byte{IAC, c.OpCode, byte(c.Option)}
	}

	b := make([]byte, 0, len(c.Subnegotiation)+6)
	b = append(b, IAC, SB, byte(c.Option))
	b = appendEscaped(b, c.Subnegotiation)
	return append(b, IAC, SE)
}

// appendEscaped appends data to b with every IAC byte doubled
func appendEscaped(b []byte, data []byte) []byte {
	for _, value := range data {
		if value == IAC {
			b = append(b, IAC)
		}
		b = append(b, value)
	}

	return b
}

func parseCommand(data []byte) (Command, error) {
	if len(data) == 0 || data[0] != IAC {
		return Command{}, fmt.Errorf("command did not begin with IAC: %q", commandStream(data))
	}

	if len(data) < 2 {
		return Command{}, errors.New("command was just a standalone IAC with no opcode")
	}

	if _, validOpcode := commandCodes[data[1]]; !validOpcode {
		return Command{}, fmt.Errorf("command did not have valid opcode: %q", commandStream(data))
	}

	if data[1] == NOP || data[1] == GA || data[1] == EOR {
		return Command{OpCode: data[1]}, nil
	}

	if len(data) < 3 {
		return Command{}, fmt.Errorf("command did not contain parameters: %q", commandStream(data))
	}

	if data[1] != SB {
		return Command{
			OpCode: data[1],
			Option: TelOptCode(data[2]),
		}, nil
	}

	if len(data) < 5 || data[len(data)-2] != IAC || data[len(data)-1] != SE {
		return Command{}, fmt.Errorf("subnegotiation command did not end with IAC SE: %q", commandStream(data))
	}

	// doubled 255s in the subnegotiation data are pared down to a single 255
	raw := data[3 : len(data)-2]
	subnegotiation := make([]byte, 0, len(raw))
	for index := 0; index < len(raw); index++ {
		subnegotiation = append(subnegotiation, raw[index])
		if raw[index] == IAC && index+1 < len(raw) && raw[index+1] == IAC {
			index++
		}
	}

	return Command{
		OpCode:         data[1],
		Option:         TelOptCode(data[2]),
		Subnegotiation: subnegotiation,
	}, nil
}

func commandStream(b []byte) string {
	var sb strings.Builder

	for i := 0; i < len(b); i++ {
		if i > 0 {
			sb.WriteRune(' ')
		}

		code, hasCode := commandCodes[b[i]]
		if !hasCode {
			sb.WriteString(strconv.Itoa(int(b[i])))
		} else {
			sb.WriteString(code)
		}
	}

	return sb.String()
}
