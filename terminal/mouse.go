package terminal

// MouseButton identifies which button an event refers to
type MouseButton uint8

const (
	MouseBtnNone MouseButton = iota
	MouseBtnLeft
	MouseBtnMiddle
	MouseBtnRight
	MouseBtnWheelUp
	MouseBtnWheelDown
)

// MouseAction is the kind of mouse event
type MouseAction uint8

const (
	MouseActionNone MouseAction = iota
	MouseActionPress
	MouseActionRelease
	MouseActionMove
	MouseActionDrag
)

// MouseEvent is a decoded SGR mouse report with 0-indexed coordinates
type MouseEvent struct {
	X, Y   int
	Btn    MouseButton
	Action MouseAction
	Mod    Modifier
}

// ParseMouse decodes an SGR mouse report token of the form
// ESC [ < button ; x ; y M/m. The decoder hands these through as
// opaque CSI tokens; this is the numeric layer above it.
func ParseMouse(tok Token) (MouseEvent, bool) {
	if tok.Kind != TokenCSI || len(tok.Text) < 9 {
		return MouseEvent{}, false
	}
	body := tok.Text[2:]
	final := body[len(body)-1]
	if body[0] != '<' || (final != 'M' && final != 'm') {
		return MouseEvent{}, false
	}

	btn, x, y, ok := parseMouseParams(body[1 : len(body)-1])
	if !ok {
		return MouseEvent{}, false
	}

	ev := MouseEvent{X: x - 1, Y: y - 1}

	// Button byte layout: bits 0-1 button, bit 5 motion, bit 6 wheel
	id := btn & 0x03
	motion := btn&32 != 0
	wheel := btn&64 != 0

	switch {
	case wheel:
		if id == 0 {
			ev.Btn = MouseBtnWheelUp
		} else {
			ev.Btn = MouseBtnWheelDown
		}
		ev.Action = MouseActionPress
	default:
		switch id {
		case 0:
			ev.Btn = MouseBtnLeft
		case 1:
			ev.Btn = MouseBtnMiddle
		case 2:
			ev.Btn = MouseBtnRight
		case 3:
			ev.Btn = MouseBtnNone
		}
		switch {
		case final == 'm':
			ev.Action = MouseActionRelease
		case motion && ev.Btn != MouseBtnNone:
			ev.Action = MouseActionDrag
		case motion:
			ev.Action = MouseActionMove
		default:
			ev.Action = MouseActionPress
		}
	}

	if btn&4 != 0 {
		ev.Mod |= ModShift
	}
	if btn&8 != 0 {
		ev.Mod |= ModAlt
	}
	if btn&16 != 0 {
		ev.Mod |= ModCtrl
	}
	return ev, true
}

// parseMouseParams extracts "btn;x;y"
func parseMouseParams(s string) (btn, x, y int, ok bool) {
	field := 0
	val := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			val = val*10 + int(c-'0')
			if val > 9999 {
				return 0, 0, 0, false
			}
		case c == ';':
			switch field {
			case 0:
				btn = val
			case 1:
				x = val
			default:
				return 0, 0, 0, false
			}
			field++
			val = 0
		default:
			return 0, 0, 0, false
		}
	}
	if field != 2 {
		return 0, 0, 0, false
	}
	return btn, x, val, true
}
