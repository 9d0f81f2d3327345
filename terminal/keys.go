package terminal

// Key identifies a parsed input key. The decoder deliberately returns
// opaque tokens; this mapping layer is the downstream consumer that
// turns CSI/SS3 token text and control runes into keys.
type Key uint16

const (
	KeyNone Key = iota
	KeyRune     // printable character, see KeyEvent.Rune

	KeyEscape
	KeyEnter
	KeyTab
	KeyBacktab
	KeyBackspace
	KeyDelete

	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert

	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12

	KeyCtrlSpace
	KeyCtrlA
	KeyCtrlB
	KeyCtrlC
	KeyCtrlD
	KeyCtrlE
	KeyCtrlF
	KeyCtrlG
	KeyCtrlK
	KeyCtrlL
	KeyCtrlN
	KeyCtrlO
	KeyCtrlP
	KeyCtrlQ
	KeyCtrlR
	KeyCtrlS
	KeyCtrlT
	KeyCtrlU
	KeyCtrlV
	KeyCtrlW
	KeyCtrlX
	KeyCtrlY
	KeyCtrlZ
	KeyCtrlBackslash
	KeyCtrlBracketRight
	KeyCtrlCaret
	KeyCtrlUnderscore
)

// Modifier flags
type Modifier uint8

const (
	ModNone  Modifier = 0
	ModShift Modifier = 1 << 0
	ModAlt   Modifier = 1 << 1
	ModCtrl  Modifier = 1 << 2
)

// KeyEvent is one decoded key press
type KeyEvent struct {
	Key  Key
	Rune rune
	Mod  Modifier
}

type seqEntry struct {
	key Key
	mod Modifier
}

// CSI bodies (after ESC [, including the final byte)
var csiKeys = map[string]seqEntry{
	"A": {KeyUp, ModNone},
	"B": {KeyDown, ModNone},
	"C": {KeyRight, ModNone},
	"D": {KeyLeft, ModNone},
	"H": {KeyHome, ModNone},
	"F": {KeyEnd, ModNone},
	"Z": {KeyBacktab, ModShift},

	"1~": {KeyHome, ModNone},
	"2~": {KeyInsert, ModNone},
	"3~": {KeyDelete, ModNone},
	"4~": {KeyEnd, ModNone},
	"5~": {KeyPageUp, ModNone},
	"6~": {KeyPageDown, ModNone},
	"7~": {KeyHome, ModNone},
	"8~": {KeyEnd, ModNone},

	"11~": {KeyF1, ModNone},
	"12~": {KeyF2, ModNone},
	"13~": {KeyF3, ModNone},
	"14~": {KeyF4, ModNone},
	"15~": {KeyF5, ModNone},
	"17~": {KeyF6, ModNone},
	"18~": {KeyF7, ModNone},
	"19~": {KeyF8, ModNone},
	"20~": {KeyF9, ModNone},
	"21~": {KeyF10, ModNone},
	"23~": {KeyF11, ModNone},
	"24~": {KeyF12, ModNone},
}

// SS3 final bytes (after ESC O)
var ss3Keys = map[string]seqEntry{
	"A": {KeyUp, ModNone},
	"B": {KeyDown, ModNone},
	"C": {KeyRight, ModNone},
	"D": {KeyLeft, ModNone},
	"H": {KeyHome, ModNone},
	"F": {KeyEnd, ModNone},
	"P": {KeyF1, ModNone},
	"Q": {KeyF2, ModNone},
	"R": {KeyF3, ModNone},
	"S": {KeyF4, ModNone},
	"M": {KeyEnter, ModNone}, // keypad enter
}

// xterm modifier parameter: 2=Shift 3=Alt 4=Shift+Alt 5=Ctrl
// 6=Shift+Ctrl 7=Alt+Ctrl 8=Shift+Alt+Ctrl
func xtermModifier(p byte) (Modifier, bool) {
	if p < '2' || p > '8' {
		return ModNone, false
	}
	m := p - '1' // 1..7 bitfield per xterm: shift=1 alt=2 ctrl=4
	var mod Modifier
	if m&1 != 0 {
		mod |= ModShift
	}
	if m&2 != 0 {
		mod |= ModAlt
	}
	if m&4 != 0 {
		mod |= ModCtrl
	}
	return mod, true
}

// lookupCSI matches a CSI body, handling the xterm modified forms
// "1;mX" (cursor/F1-F4 finals) and "N;m~" (tilde keys) generically.
func lookupCSI(body string) (Key, Modifier, bool) {
	if e, ok := csiKeys[body]; ok {
		return e.key, e.mod, true
	}
	// 1;mX — modified cursor, home/end, F1-F4 (P Q R S)
	if len(body) == 4 && body[0] == '1' && body[1] == ';' {
		mod, ok := xtermModifier(body[2])
		if !ok {
			return KeyNone, ModNone, false
		}
		switch body[3] {
		case 'A':
			return KeyUp, mod, true
		case 'B':
			return KeyDown, mod, true
		case 'C':
			return KeyRight, mod, true
		case 'D':
			return KeyLeft, mod, true
		case 'H':
			return KeyHome, mod, true
		case 'F':
			return KeyEnd, mod, true
		case 'P':
			return KeyF1, mod, true
		case 'Q':
			return KeyF2, mod, true
		case 'R':
			return KeyF3, mod, true
		case 'S':
			return KeyF4, mod, true
		}
		return KeyNone, ModNone, false
	}
	// N;m~ and NN;m~ — modified tilde keys
	if n := len(body); (n == 4 || n == 5) && body[n-1] == '~' && body[n-3] == ';' {
		mod, ok := xtermModifier(body[n-2])
		if !ok {
			return KeyNone, ModNone, false
		}
		if e, found := csiKeys[body[:n-3]+"~"]; found {
			return e.key, e.mod | mod, true
		}
	}
	return KeyNone, ModNone, false
}

// DecodeKey maps a token to a key event. Returns false for tokens
// that are not key presses (string sequences, mouse reports,
// replacements, unknown sequences).
func DecodeKey(tok Token) (KeyEvent, bool) {
	switch tok.Kind {
	case TokenEscape:
		return KeyEvent{Key: KeyEscape}, true

	case TokenChar, TokenAltChar:
		if tok.Text == "" {
			return KeyEvent{}, false
		}
		ev, ok := decodeRuneKey([]rune(tok.Text)[0])
		if !ok {
			return KeyEvent{}, false
		}
		if tok.Kind == TokenAltChar {
			ev.Mod |= ModAlt
		}
		return ev, true

	case TokenCSI:
		if len(tok.Text) < 3 {
			return KeyEvent{}, false
		}
		body := tok.Text[2:]
		if body[0] == '<' {
			return KeyEvent{}, false // SGR mouse report, see ParseMouse
		}
		if key, mod, ok := lookupCSI(body); ok {
			return KeyEvent{Key: key, Mod: mod}, true
		}
		return KeyEvent{}, false

	case TokenSS3:
		if len(tok.Text) != 3 {
			return KeyEvent{}, false
		}
		if e, ok := ss3Keys[tok.Text[2:]]; ok {
			return KeyEvent{Key: e.key, Mod: e.mod}, true
		}
		return KeyEvent{}, false
	}
	return KeyEvent{}, false
}

// decodeRuneKey classifies a single decoded rune, folding the C0
// control range into named keys
func decodeRuneKey(r rune) (KeyEvent, bool) {
	switch {
	case r == 0x00:
		return KeyEvent{Key: KeyCtrlSpace}, true
	case r == '\t':
		return KeyEvent{Key: KeyTab}, true
	case r == '\r' || r == '\n':
		return KeyEvent{Key: KeyEnter}, true
	case r == 0x08 || r == 0x7f:
		return KeyEvent{Key: KeyBackspace}, true
	case r == 0x1b:
		return KeyEvent{Key: KeyEscape}, true
	case r < 0x20:
		if k, ok := ctrlKeys[r]; ok {
			return KeyEvent{Key: k}, true
		}
		return KeyEvent{}, false
	default:
		return KeyEvent{Key: KeyRune, Rune: r}, true
	}
}

var ctrlKeys = map[rune]Key{
	0x01: KeyCtrlA, 0x02: KeyCtrlB, 0x03: KeyCtrlC, 0x04: KeyCtrlD,
	0x05: KeyCtrlE, 0x06: KeyCtrlF, 0x07: KeyCtrlG,
	0x0b: KeyCtrlK, 0x0c: KeyCtrlL, 0x0e: KeyCtrlN, 0x0f: KeyCtrlO,
	0x10: KeyCtrlP, 0x11: KeyCtrlQ, 0x12: KeyCtrlR, 0x13: KeyCtrlS,
	0x14: KeyCtrlT, 0x15: KeyCtrlU, 0x16: KeyCtrlV, 0x17: KeyCtrlW,
	0x18: KeyCtrlX, 0x19: KeyCtrlY, 0x1a: KeyCtrlZ,
	0x1c: KeyCtrlBackslash, 0x1d: KeyCtrlBracketRight,
	0x1e: KeyCtrlCaret, 0x1f: KeyCtrlUnderscore,
}
