package screen

// Color is the foreground color derived from a 5250 attribute byte
type Color uint8

const (
	ColorGreen Color = iota
	ColorWhite
	ColorRed
	ColorTurquoise
	ColorYellow
	ColorPink
	ColorBlue
)

var colorNames = [...]string{"green", "white", "red", "turquoise", "yellow", "pink", "blue"}

func (c Color) String() string {
	if int(c) < len(colorNames) {
		return colorNames[c]
	}

	return "unknown"
}

// Ext is the extended attribute flag set of a cell
type Ext uint8

const (
	ExtReverse Ext = 1 << iota
	ExtUnderline
	ExtBlink
	ExtColumnSeparator
	ExtNonDisplay
	// ExtAttributePosition marks the cell that holds the attribute byte itself
	ExtAttributePosition
)

func (e Ext) Has(flag Ext) bool {
	return e&flag != 0
}

// NormalAttribute is green, no highlighting
const NormalAttribute byte = 0x20

// IsAttribute reports whether b falls in the six-bit 5250 attribute space
func IsAttribute(b byte) bool {
	return b >= 0x20 && b <= 0x3F
}

type attributeEntry struct {
	color Color
	ext   Ext
}

const (
	rv = ExtReverse
	ul = ExtUnderline
	bl = ExtBlink
	cs = ExtColumnSeparator
	nd = ExtNonDisplay
)

// attributes is indexed by attribute byte minus 0x20. Every entry is a
// distinct (color, ext) pair so the byte can be derived back from the planes.
var attributes = [32]attributeEntry{
	{ColorGreen, 0},
	{ColorGreen, rv},
	{ColorWhite, 0},
	{ColorWhite, rv},
	{ColorGreen, ul},
	{ColorGreen, ul | rv},
	{ColorWhite, ul},
	{ColorWhite, nd},
	{ColorRed, 0},
	{ColorRed, rv},
	{ColorRed, bl},
	{ColorRed, rv | bl},
	{ColorRed, ul},
	{ColorRed, ul | rv},
	{ColorRed, ul | bl},
	{ColorRed, nd},
	{ColorTurquoise, cs},
	{ColorTurquoise, cs | rv},
	{ColorYellow, cs},
	{ColorYellow, cs | rv},
	{ColorTurquoise, ul},
	{ColorTurquoise, ul | rv},
	{ColorYellow, ul},
	{ColorYellow, nd},
	{ColorPink, 0},
	{ColorPink, rv},
	{ColorBlue, 0},
	{ColorBlue, rv},
	{ColorPink, ul},
	{ColorPink, ul | rv},
	{ColorBlue, ul},
	{ColorBlue, nd},
}

var attributeBytes = func() map[attributeEntry]byte {
	reverse := make(map[attributeEntry]byte, len(attributes))
	for index, entry := range attributes {
		reverse[entry] = byte(0x20 + index)
	}
	return reverse
}()

// Disperse splits an attribute byte into its color and extended flags. The
// second return is false for bytes outside 0x20-0x3F.
func Disperse(attr byte) (Color, Ext, bool) {
	if !IsAttribute(attr) {
		return ColorGreen, 0, false
	}

	entry := attributes[attr-0x20]
	return entry.color, entry.ext, true
}

// Derive returns the attribute byte that disperses into color and ext. The
// attribute position marker is ignored.
func Derive(color Color, ext Ext) (byte, bool) {
	b, ok := attributeBytes[attributeEntry{color, ext &^ ExtAttributePosition}]
	return b, ok
}
