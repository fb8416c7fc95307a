package screen

import (
	"sync"
	"sync/atomic"
)

// Inhibit says why the keyboard will not accept input
type Inhibit int

const (
	NotInhibited Inhibit = iota
	InhibitSystemWait
	InhibitCommCheck
	InhibitProgCheck
	InhibitMachineCheck
	InhibitOther
)

var inhibitNames = [...]string{"not inhibited", "system wait", "comm check", "prog check", "machine check", "other"}

func (i Inhibit) String() string {
	if i >= 0 && int(i) < len(inhibitNames) {
		return inhibitNames[i]
	}

	return "unknown"
}

// Level names the part of the OIA that changed
type Level int

const (
	LevelInputInhibited Level = iota + 1
	LevelNotInhibited
	LevelMessageLightOn
	LevelMessageLightOff
	LevelAudibleBell
	LevelInsertMode
	LevelKeyboard
	LevelClearScreen
	LevelScreenSize
	LevelInputError
	LevelKeysBuffered
)

var levelNames = map[Level]string{
	LevelInputInhibited:  "input inhibited",
	LevelNotInhibited:    "not inhibited",
	LevelMessageLightOn:  "message light on",
	LevelMessageLightOff: "message light off",
	LevelAudibleBell:     "audible bell",
	LevelInsertMode:      "insert mode",
	LevelKeyboard:        "keyboard",
	LevelClearScreen:     "clear screen",
	LevelScreenSize:      "screen size",
	LevelInputError:      "input error",
	LevelKeysBuffered:    "keys buffered",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}

	return "unknown"
}

// OIAState is an immutable copy of the operator information area
type OIAState struct {
	KeyboardLocked bool
	Inhibited      Inhibit
	InhibitText    string
	InsertMode     bool
	MessageLight   bool
	ErrorCode      string
	InputError     string
	KeysBuffered   bool
	Bells          uint64
	Generation     uint64
}

// Changes lists the levels that differ between prev and s
func (s OIAState) Changes(prev OIAState) []Level {
	var levels []Level

	if s.KeyboardLocked != prev.KeyboardLocked {
		levels = append(levels, LevelKeyboard)
	}

	if s.Inhibited != prev.Inhibited || s.InhibitText != prev.InhibitText {
		if s.Inhibited == NotInhibited {
			levels = append(levels, LevelNotInhibited)
		} else {
			levels = append(levels, LevelInputInhibited)
		}
	}

	if s.MessageLight != prev.MessageLight {
		if s.MessageLight {
			levels = append(levels, LevelMessageLightOn)
		} else {
			levels = append(levels, LevelMessageLightOff)
		}
	}

	if s.Bells != prev.Bells {
		levels = append(levels, LevelAudibleBell)
	}

	if s.InsertMode != prev.InsertMode {
		levels = append(levels, LevelInsertMode)
	}

	if s.InputError != prev.InputError || s.ErrorCode != prev.ErrorCode {
		levels = append(levels, LevelInputError)
	}

	if s.KeysBuffered != prev.KeysBuffered {
		levels = append(levels, LevelKeysBuffered)
	}

	return levels
}

// OIA is the operator information area. The keyboard lock flag is an atomic
// so it can be polled without the field lock; everything else is guarded by
// lock.
type OIA struct {
	locked     atomic.Bool
	generation atomic.Uint64
	bells      atomic.Uint64

	lock         sync.Mutex
	unlocked     chan struct{}
	inhibited    Inhibit
	inhibitText  string
	insertMode   bool
	messageLight bool
	errorCode    string
	inputError   string
	keysBuffered bool
}

// NewOIA returns an OIA with the keyboard unlocked
func NewOIA() *OIA {
	oia := &OIA{unlocked: make(chan struct{})}
	close(oia.unlocked)
	return oia
}

// LockKeyboard locks the keyboard. Each transition from unlocked to locked
// starts a new lock generation.
func (o *OIA) LockKeyboard() {
	o.lock.Lock()
	defer o.lock.Unlock()

	if o.locked.Load() {
		return
	}

	o.unlocked = make(chan struct{})
	o.generation.Add(1)
	o.locked.Store(true)
}

// UnlockKeyboard unlocks the keyboard and clears any inhibit state
func (o *OIA) UnlockKeyboard() {
	o.lock.Lock()
	defer o.lock.Unlock()

	o.inhibited = NotInhibited
	o.inhibitText = ""

	if !o.locked.Load() {
		return
	}

	o.locked.Store(false)
	close(o.unlocked)
}

func (o *OIA) KeyboardLocked() bool {
	return o.locked.Load()
}

// Generation counts how many times the keyboard has gone from unlocked to
// locked
func (o *OIA) Generation() uint64 {
	return o.generation.Load()
}

// Unlocked returns a channel that is closed once the keyboard is unlocked.
// The channel belongs to the current lock generation.
func (o *OIA) Unlocked() <-chan struct{} {
	o.lock.Lock()
	defer o.lock.Unlock()

	return o.unlocked
}

// SetInhibited locks the keyboard with a reason
func (o *OIA) SetInhibited(code Inhibit, text string) {
	if code == NotInhibited {
		o.UnlockKeyboard()
		return
	}

	o.LockKeyboard()

	o.lock.Lock()
	defer o.lock.Unlock()

	o.inhibited = code
	o.inhibitText = text
}

func (o *OIA) SetInsertMode(insert bool) {
	o.lock.Lock()
	defer o.lock.Unlock()

	o.insertMode = insert
}

func (o *OIA) InsertMode() bool {
	o.lock.Lock()
	defer o.lock.Unlock()

	return o.insertMode
}

func (o *OIA) SetMessageLight(on bool) {
	o.lock.Lock()
	defer o.lock.Unlock()

	o.messageLight = on
}

// SetErrorCode records the host error text shown on the error line. An
// empty string clears it.
func (o *OIA) SetErrorCode(text string) {
	o.lock.Lock()
	defer o.lock.Unlock()

	o.errorCode = text
}

// SetInputError records a local input validation failure. An empty string
// clears it.
func (o *OIA) SetInputError(text string) {
	o.lock.Lock()
	defer o.lock.Unlock()

	o.inputError = text
}

func (o *OIA) SetKeysBuffered(buffered bool) {
	o.lock.Lock()
	defer o.lock.Unlock()

	o.keysBuffered = buffered
}

// Bell records an audible alarm
func (o *OIA) Bell() {
	o.bells.Add(1)
}

func (o *OIA) State() OIAState {
	o.lock.Lock()
	defer o.lock.Unlock()

	return OIAState{
		KeyboardLocked: o.locked.Load(),
		Inhibited:      o.inhibited,
		InhibitText:    o.inhibitText,
		InsertMode:     o.insertMode,
		MessageLight:   o.messageLight,
		ErrorCode:      o.errorCode,
		InputError:     o.inputError,
		KeysBuffered:   o.keysBuffered,
		Bells:          o.bells.Load(),
		Generation:     o.generation.Load(),
	}
}
