package datastream

// Escape precedes every command in an outbound record
const Escape byte = 0x04

// Command codes, the byte following Escape
const (
	CmdWriteToDisplay         byte = 0x11
	CmdClearUnit              byte = 0x40
	CmdClearUnitAlternate     byte = 0x20
	CmdClearFormatTable       byte = 0x50
	CmdReadInputFields        byte = 0x42
	CmdReadMDTFields          byte = 0x52
	CmdReadMDTFieldsAlternate byte = 0x82
	CmdReadScreenImmediate    byte = 0x62
	CmdReadImmediate          byte = 0x72
	CmdSaveScreen             byte = 0x02
	CmdRestoreScreen          byte = 0x12
	CmdWriteErrorCode         byte = 0x21
	CmdWriteErrorCodeToWindow byte = 0x22
	CmdRoll                   byte = 0x23
	CmdWriteStructuredField   byte = 0xF3
)

// Order codes found inside Write To Display
const (
	OrderStartOfHeader          byte = 0x01
	OrderRepeatToAddress        byte = 0x02
	OrderEraseToAddress         byte = 0x03
	OrderTransparentData        byte = 0x10
	OrderSetBufferAddress       byte = 0x11
	OrderWriteExtendedAttribute byte = 0x12
	OrderInsertCursor           byte = 0x13
	OrderMoveCursor             byte = 0x14
	OrderWriteDisplayStructured byte = 0x15
	OrderStartOfField           byte = 0x1D
)

// Command is one of the command types below. The set is closed: Apply
// switches over every member.
type Command interface {
	command()
}

// ReadKind selects what a read response carries
type ReadKind uint8

const (
	ReadNone ReadKind = iota
	ReadInputFields
	ReadMDTFields
	ReadMDTFieldsAlternate
	ReadImmediate
	ReadScreenImmediate
)

var readNames = [...]string{"none", "read input fields", "read mdt fields", "read mdt fields alternate", "read immediate", "read screen immediate"}

func (r ReadKind) String() string {
	if int(r) < len(readNames) {
		return readNames[r]
	}

	return "unknown read"
}

type WriteToDisplay struct {
	CC1, CC2 byte
	Orders   []Order
}

type ClearUnit struct{}

// ClearUnitAlternate switches to 27x132 for parameter 0x00 and to 24x80
// for 0x80
type ClearUnitAlternate struct {
	Parameter byte
}

type ClearFormatTable struct{}

// Read is any of the five read commands. CC1 and CC2 are only sent with
// the reads that wait for an AID key.
type Read struct {
	Kind     ReadKind
	CC1, CC2 byte
}

type SaveScreen struct{}

// RestoreScreen marks the start of a previously saved screen. The commands
// that follow it in the record rebuild the screen.
type RestoreScreen struct{}

// WriteErrorCode shows a message on the error line. ToWindow carries the
// window column bounds.
type WriteErrorCode struct {
	ToWindow         bool
	StartCol, EndCol int
	Orders           []Order
}

type Roll struct {
	Down        bool
	Lines       int
	Top, Bottom int
}

type WriteStructuredField struct {
	Fields []StructuredField
}

func (WriteToDisplay) command()       {}
func (ClearUnit) command()            {}
func (ClearUnitAlternate) command()   {}
func (ClearFormatTable) command()     {}
func (Read) command()                 {}
func (SaveScreen) command()           {}
func (RestoreScreen) command()        {}
func (WriteErrorCode) command()       {}
func (Roll) command()                 {}
func (WriteStructuredField) command() {}

// Order is one of the order types below
type Order interface {
	order()
}

// StartOfHeader carries the format header. ErrorRow is 1-based, 0 when the
// host did not set it.
type StartOfHeader struct {
	Flags    byte
	ErrorRow int
	Data     []byte
}

type RepeatToAddress struct {
	Row, Col int
	Char     byte
}

type EraseToAddress struct {
	Row, Col int
	Types    []byte
}

// TransparentData is written without interpreting order bytes
type TransparentData struct {
	Data []byte
}

type SetBufferAddress struct {
	Row, Col int
}

type WriteExtendedAttribute struct {
	Type, Value byte
}

type InsertCursor struct {
	Row, Col int
}

type MoveCursor struct {
	Row, Col int
}

type WriteDisplayStructuredField struct {
	Field StructuredField
}

// StartOfField defines a field at the current address. Input fields carry
// a field format word; output-only fields have HasFFW false.
type StartOfField struct {
	HasFFW    bool
	FFW       uint16
	FCW       []uint16
	Attribute byte
	Length    int
}

// Text is a run of display characters, still in EBCDIC
type Text struct {
	Data []byte
}

// Attribute is a bare attribute byte written at the current address
type Attribute struct {
	Value byte
}

func (StartOfHeader) order()               {}
func (RepeatToAddress) order()             {}
func (EraseToAddress) order()              {}
func (TransparentData) order()             {}
func (SetBufferAddress) order()            {}
func (WriteExtendedAttribute) order()      {}
func (InsertCursor) order()                {}
func (MoveCursor) order()                  {}
func (WriteDisplayStructuredField) order() {}
func (StartOfField) order()                {}
func (Text) order()                        {}
func (Attribute) order()                   {}

// Structured field class and types
const (
	SFClass5250 byte = 0xD9

	SFQuery                byte = 0x70
	SFCreateWindow         byte = 0x51
	SFDefineSelectionField byte = 0x50
	SFRemoveGUIWindow      byte = 0x52
	SFRemoveAllGUI         byte = 0x53
	SFRemoveGUISelection   byte = 0x5B
	SFWindowBorderMinor    byte = 0x01
	SFWindowTitleMinor     byte = 0x10
)

// StructuredField is one of the structured field types below
type StructuredField interface {
	structuredField()
}

type Query struct{}

// WindowBorder is the border minor structure of Create Window. Characters
// are left in EBCDIC; zero means the default border character.
type WindowBorder struct {
	Flags          byte
	MonoAttribute  byte
	ColorAttribute byte
	Chars          [8]byte
}

type CreateWindow struct {
	Restricted    bool
	PullDown      bool
	Rows, Columns int
	Border        *WindowBorder
	Title         []byte
}

type DefineSelectionField struct {
	Data []byte
}

// RemoveGUI covers the three remove structured fields
type RemoveGUI struct {
	Type byte
}

// UnknownStructuredField is skipped using its declared length
type UnknownStructuredField struct {
	Class, Type byte
	Length      int
}

func (Query) structuredField()                  {}
func (CreateWindow) structuredField()           {}
func (DefineSelectionField) structuredField()   {}
func (RemoveGUI) structuredField()              {}
func (UnknownStructuredField) structuredField() {}
