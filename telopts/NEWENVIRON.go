package telopts

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/moodclient/tn5250"
)

const (
	newenvironIS byte = iota
	newenvironSEND
	newenvironINFO
)

const (
	newenvironVAR byte = iota
	newenvironVALUE
	newenvironESC
	newenvironUSERVAR
)

// User variables a TN5250E host reads during startup
const (
	VarUser     = "USER"
	VarDevName  = "DEVNAME"
	VarKbdType  = "KBDTYPE"
	VarCodePage = "CODEPAGE"
	VarCharset  = "CHARSET"

	// VarRandomSeed carries the host's password substitution seed. It is
	// always answered with an empty value, so the host never expects an
	// encrypted password from us.
	VarRandomSeed = "IBMRSEED"
	seedLength    = 8
)

// NEWENVIRONWellKnownVars are the RFC 1572 VARs; every other name travels as a USERVAR
var NEWENVIRONWellKnownVars = []string{"USER", "JOB", "ACCT", "PRINTER", "SYSTEMTYPE", "DISPLAY"}

type NEWENVIRONConfig struct {
	// Vars holds the values offered to the host. Names in NEWENVIRONWellKnownVars
	// are sent as VARs and everything else as USERVARs. Empty values are not sent.
	Vars map[string]string
}

// RegisterNEWENVIRON creates the NEW-ENVIRON telopt, which answers the host's
// SEND with the configured device name, keyboard type, code page and user
func RegisterNEWENVIRON(usage tn5250.TelOptUsage, config NEWENVIRONConfig) tn5250.TelnetOption {
	option := &NEWENVIRON{
		BaseTelOpt: NewBaseTelOpt(usage),

		wellKnownVars:      make(map[string]struct{}),
		localUserVars:      make(map[string]string),
		localWellKnownVars: make(map[string]string),
	}

	for _, varKey := range NEWENVIRONWellKnownVars {
		option.wellKnownVars[varKey] = struct{}{}
	}

	for key, value := range config.Vars {
		if value == "" {
			continue
		}

		if _, isWellKnown := option.wellKnownVars[key]; isWellKnown {
			option.localWellKnownVars[key] = value
		} else {
			option.localUserVars[key] = value
		}
	}

	return option
}

type NEWENVIRON struct {
	BaseTelOpt

	localVarsLock sync.Mutex

	wellKnownVars map[string]struct{}

	localUserVars      map[string]string
	localWellKnownVars map[string]string
}

func (o *NEWENVIRON) Code() tn5250.TelOptCode {
	return tn5250.CodeNEWENVIRON
}

func (o *NEWENVIRON) String() string {
	return "NEW-ENVIRON"
}

func encodeText(buffer *bytes.Buffer, text string) {
	for _, b := range []byte(text) {
		if b <= newenvironUSERVAR {
			// VAR, VALUE, ESC, or USERVAR need to be escaped with an ESC
			buffer.WriteByte(newenvironESC)
		}

		buffer.WriteByte(b)
	}
}

func decodeText(buffer []byte) (int, string) {
	var text strings.Builder

	var bufferIndex int
	for bufferIndex = 0; bufferIndex < len(buffer); bufferIndex++ {
		b := buffer[bufferIndex]
		if b == newenvironESC {
			bufferIndex++
			if bufferIndex >= len(buffer) {
				break
			}
		} else if b <= newenvironUSERVAR {
			break
		}

		text.WriteByte(buffer[bufferIndex])
	}

	return bufferIndex, text.String()
}

// skipSeed steps over the IBMRSEED name and the seed that follows it, which
// may hold any byte value and so cannot be read as text
func skipSeed(subnegotiation []byte, index int) int {
	index += len(VarRandomSeed)
	if index < len(subnegotiation) && subnegotiation[index] == newenvironVALUE {
		index++
	}

	return min(index+seedLength, len(subnegotiation))
}

func (o *NEWENVIRON) writeVarValues(buffer *bytes.Buffer, varKeys map[string]struct{}, userVarKeys map[string]struct{}) {
	for _, key := range slices.Sorted(maps.Keys(varKeys)) {
		buffer.WriteByte(newenvironVAR)
		encodeText(buffer, key)

		if value, hasValue := o.localWellKnownVars[key]; hasValue {
			buffer.WriteByte(newenvironVALUE)
			encodeText(buffer, value)
		}
	}

	for _, key := range slices.Sorted(maps.Keys(userVarKeys)) {
		buffer.WriteByte(newenvironUSERVAR)
		encodeText(buffer, key)

		if key == VarRandomSeed {
			buffer.WriteByte(newenvironVALUE)
			continue
		}

		if value, hasValue := o.localUserVars[key]; hasValue {
			buffer.WriteByte(newenvironVALUE)
			encodeText(buffer, value)
		}
	}
}

func (o *NEWENVIRON) subnegotiateSEND(subnegotiation []byte) {
	varKeys := make(map[string]struct{})
	userVarKeys := make(map[string]struct{})

	var includeAllVars, includeAllUservars bool

	if len(subnegotiation) == 0 {
		includeAllVars = true
		includeAllUservars = true
	}

	var index int
	for index < len(subnegotiation) {
		nextToken := subnegotiation[index]
		index++

		if nextToken != newenvironUSERVAR && nextToken != newenvironVAR {
			continue
		}

		if nextToken == newenvironUSERVAR && bytes.HasPrefix(subnegotiation[index:], []byte(VarRandomSeed)) {
			index = skipSeed(subnegotiation, index)
			userVarKeys[VarRandomSeed] = struct{}{}
			continue
		}

		keySize, key := decodeText(subnegotiation[index:])
		index += keySize

		switch {
		case keySize == 0 && nextToken == newenvironUSERVAR:
			includeAllUservars = true
		case keySize == 0:
			includeAllVars = true
		case nextToken == newenvironUSERVAR:
			userVarKeys[key] = struct{}{}
		default:
			varKeys[key] = struct{}{}
		}
	}

	if includeAllVars {
		for key := range o.localWellKnownVars {
			varKeys[key] = struct{}{}
		}
	}

	if includeAllUservars {
		for key := range o.localUserVars {
			userVarKeys[key] = struct{}{}
		}
	}

	buffer := bytes.NewBuffer(make([]byte, 0, 128))
	buffer.WriteByte(newenvironIS)
	o.writeVarValues(buffer, varKeys, userVarKeys)

	o.Terminal().Keyboard().WriteCommand(tn5250.Command{
		OpCode:         tn5250.SB,
		Option:         tn5250.CodeNEWENVIRON,
		Subnegotiation: buffer.Bytes(),
	}, nil)
}

func (o *NEWENVIRON) Subnegotiate(subnegotiation []byte) error {
	if len(subnegotiation) == 0 {
		return fmt.Errorf("new-environ: received empty subnegotiation")
	}

	if subnegotiation[0] != newenvironSEND {
		return fmt.Errorf("new-environ: unexpected subnegotiation from host: %+v", subnegotiation)
	}

	if o.LocalState() != tn5250.TelOptActive {
		return nil
	}

	o.localVarsLock.Lock()
	defer o.localVarsLock.Unlock()

	o.subnegotiateSEND(subnegotiation[1:])
	return nil
}

func subnegotiationVarsString(sb *strings.Builder, subnegotiation []byte, send bool) error {
	var index int
	for index < len(subnegotiation) {
		nextToken := subnegotiation[index]
		index++

		switch nextToken {
		case newenvironVAR:
			sb.WriteString(" VAR")
		case newenvironUSERVAR:
			sb.WriteString(" USERVAR")
		case newenvironVALUE:
			sb.WriteString(" VALUE")
		default:
			return fmt.Errorf("new-environ: unexpected token %d", nextToken)
		}

		if send && nextToken == newenvironUSERVAR && bytes.HasPrefix(subnegotiation[index:], []byte(VarRandomSeed)) {
			sb.WriteString(" " + VarRandomSeed + " (seed)")
			index = skipSeed(subnegotiation, index)
			continue
		}

		length, text := decodeText(subnegotiation[index:])
		if length > 0 {
			sb.WriteString(" ")
			sb.WriteString(text)
		}
		index += length
	}

	return nil
}

func (o *NEWENVIRON) SubnegotiationString(subnegotiation []byte) (string, error) {
	if len(subnegotiation) == 0 {
		return "", fmt.Errorf("new-environ: received empty subnegotiation")
	}

	var sb strings.Builder

	switch subnegotiation[0] {
	case newenvironSEND:
		sb.WriteString("SEND")
	case newenvironIS:
		sb.WriteString("IS")
	case newenvironINFO:
		sb.WriteString("INFO")
	default:
		return "", fmt.Errorf("new-environ: unknown subnegotiation: %+v", subnegotiation)
	}

	if err := subnegotiationVarsString(&sb, subnegotiation[1:], subnegotiation[0] == newenvironSEND); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// SetVars changes local values and, when the telopt is active, tells the host
// with an INFO. An empty value removes the variable.
func (o *NEWENVIRON) SetVars(keysAndValues ...string) error {
	if len(keysAndValues)%2 != 0 {
		return fmt.Errorf("new-environ: uneven numbers of keys and values. dangling value: %s", keysAndValues[len(keysAndValues)-1])
	}

	o.localVarsLock.Lock()
	defer o.localVarsLock.Unlock()

	buffer := bytes.NewBuffer(make([]byte, 0, 64))
	buffer.WriteByte(newenvironINFO)

	for index := 0; index < len(keysAndValues); index += 2 {
		key := keysAndValues[index]
		value := keysAndValues[index+1]

		target := o.localUserVars
		if _, isWellKnown := o.wellKnownVars[key]; isWellKnown {
			buffer.WriteByte(newenvironVAR)
			target = o.localWellKnownVars
		} else {
			buffer.WriteByte(newenvironUSERVAR)
		}

		encodeText(buffer, key)

		if value == "" {
			delete(target, key)
			continue
		}

		target[key] = value
		buffer.WriteByte(newenvironVALUE)
		encodeText(buffer, value)
	}

	if o.LocalState() == tn5250.TelOptActive {
		o.Terminal().Keyboard().WriteCommand(tn5250.Command{
			OpCode:         tn5250.SB,
			Option:         tn5250.CodeNEWENVIRON,
			Subnegotiation: buffer.Bytes(),
		}, nil)
	}

	return nil
}
