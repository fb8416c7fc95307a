package datastream

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Key is a keyboard function. KeyText carries literal characters.
type Key int

const (
	KeyText Key = iota
	KeyEnter
	KeyTab
	KeyBacktab
	KeyClear
	KeyHelp
	KeyRollUp
	KeyRollDown
	KeyHome
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyBackspace
	KeyDelete
	KeyInsert
	KeyEraseEOF
	KeyFieldPlus
	KeyFieldMinus
	KeyFieldExit
	KeyDup
	KeyReset
	KeySysReq
	KeyAttention
	KeyPrint
	KeyNewLine
	KeyRecordBackspace
	KeyJumpNext
	KeyJumpPrev
	KeyNextWord
	KeyPrevWord
	KeyPF1
	KeyPF24 = KeyPF1 + 23
)

var mnemonics = map[string]Key{
	"enter":     KeyEnter,
	"tab":       KeyTab,
	"backtab":   KeyBacktab,
	"clear":     KeyClear,
	"help":      KeyHelp,
	"pgup":      KeyRollDown,
	"pgdown":    KeyRollUp,
	"rollup":    KeyRollUp,
	"rolldown":  KeyRollDown,
	"home":      KeyHome,
	"up":        KeyUp,
	"down":      KeyDown,
	"left":      KeyLeft,
	"right":     KeyRight,
	"backspace": KeyBackspace,
	"delete":    KeyDelete,
	"insert":    KeyInsert,
	"eof":       KeyEraseEOF,
	"erase eof": KeyEraseEOF,
	"field+":    KeyFieldPlus,
	"field-":    KeyFieldMinus,
	"fieldexit": KeyFieldExit,
	"dupfield":  KeyDup,
	"reset":     KeyReset,
	"sysreq":    KeySysReq,
	"attn":      KeyAttention,
	"hostprint": KeyPrint,
	"print":     KeyPrint,
	"newline":   KeyNewLine,
	"recbs":     KeyRecordBackspace,
	"jumpnext":  KeyJumpNext,
	"jumpprev":  KeyJumpPrev,
	"nextword":  KeyNextWord,
	"prevword":  KeyPrevWord,
}

var keyNames = func() map[Key]string {
	names := make(map[Key]string, len(mnemonics))
	for name, key := range mnemonics {
		if current, ok := names[key]; !ok || len(name) < len(current) {
			names[key] = name
		}
	}
	return names
}()

func (k Key) String() string {
	if k >= KeyPF1 && k <= KeyPF24 {
		return fmt.Sprintf("pf%d", int(k-KeyPF1)+1)
	}

	if k == KeyText {
		return "text"
	}

	if name, ok := keyNames[k]; ok {
		return name
	}

	return fmt.Sprintf("key %d", int(k))
}

// AID returns the attention identifier the key sends, or false for keys
// handled locally
func (k Key) AID() (AID, bool) {
	if k >= KeyPF1 && k <= KeyPF24 {
		aid, err := AIDPF(int(k-KeyPF1) + 1)
		return aid, err == nil
	}

	switch k {
	case KeyEnter:
		return AIDEnter, true
	case KeyClear:
		return AIDClear, true
	case KeyHelp:
		return AIDHelp, true
	case KeyRollUp:
		return AIDRollUp, true
	case KeyRollDown:
		return AIDRollDown, true
	case KeyPrint:
		return AIDPrint, true
	case KeyRecordBackspace:
		return AIDRecordBackspace, true
	}

	return AIDNone, false
}

// Token is one step of keyboard input: a function key, or a run of literal
// text when Key is KeyText
type Token struct {
	Key  Key
	Text string
}

func (t Token) String() string {
	if t.Key == KeyText {
		return fmt.Sprintf("%q", t.Text)
	}

	return "[" + t.Key.String() + "]"
}

func lookupMnemonic(name string) (Key, string, bool) {
	name = strings.ToLower(name)

	if key, ok := mnemonics[name]; ok {
		return key, "", true
	}

	var n int
	if _, err := fmt.Sscanf(name, "pf%d", &n); err == nil && fmt.Sprintf("pf%d", n) == name && n >= 1 && n <= 24 {
		return KeyPF1 + Key(n-1), "", true
	}

	if len(name) == len("keypad0") && strings.HasPrefix(name, "keypad") && name[6] >= '0' && name[6] <= '9' {
		return KeyText, name[6:], true
	}

	return KeyText, "", false
}

// Tokenize splits keystroke text into tokens. A bracketed mnemonic such as
// [enter] or [pf3] becomes a function key; "[[" and "]]" are literal
// brackets; an unmatched bracket or unknown mnemonic is kept as text.
func Tokenize(text string) []Token {
	var tokens []Token
	var literal strings.Builder

	flush := func() {
		if literal.Len() > 0 {
			tokens = append(tokens, Token{Key: KeyText, Text: literal.String()})
			literal.Reset()
		}
	}

	for i := 0; i < len(text); {
		rest := text[i:]

		switch {
		case strings.HasPrefix(rest, "[["):
			literal.WriteByte('[')
			i += 2
			continue

		case strings.HasPrefix(rest, "]]"):
			literal.WriteByte(']')
			i += 2
			continue

		case rest[0] == '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				break
			}

			key, digits, ok := lookupMnemonic(rest[1:end])
			if !ok {
				break
			}

			if key == KeyText {
				literal.WriteString(digits)
			} else {
				flush()
				tokens = append(tokens, Token{Key: key})
			}

			i += end + 1
			continue
		}

		r, size := utf8.DecodeRuneInString(rest)
		literal.WriteRune(r)
		i += size
	}

	flush()
	return tokens
}
