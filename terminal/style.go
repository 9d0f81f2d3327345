package terminal

import (
	"bytes"
)

// Attr is a bitmask of text attributes
type Attr uint8

const (
	AttrNone      Attr = 0
	AttrBold      Attr = 1 << 0
	AttrDim       Attr = 1 << 1
	AttrItalic    Attr = 1 << 2
	AttrUnderline Attr = 1 << 3
	AttrBlink     Attr = 1 << 4
	AttrReverse   Attr = 1 << 5
)

// ColorMode selects how a Color is encoded in SGR output
type ColorMode uint8

const (
	ColorDefault ColorMode = iota // terminal default, no sequence
	ColorBasic                    // 16-color palette, Index 0-15
	Color256                      // 256-color palette, Index 0-255
	ColorRGB                      // 24-bit truecolor
)

// Color is a closed terminal color value
type Color struct {
	Mode    ColorMode
	Index   uint8
	R, G, B uint8
}

// Basic returns a 16-color palette color (0-7 normal, 8-15 bright)
func Basic(idx uint8) Color { return Color{Mode: ColorBasic, Index: idx & 0x0f} }

// Palette returns a 256-color palette color
func Palette(idx uint8) Color { return Color{Mode: Color256, Index: idx} }

// RGB returns a truecolor value
func RGB(r, g, b uint8) Color { return Color{Mode: ColorRGB, R: r, G: g, B: b} }

// Style is the full per-cell presentation state. The zero value means
// "no style": rendered text passes through without any SGR bytes.
// Escape bytes are produced only at row-render time via appendSGR,
// never stored per write.
type Style struct {
	Fg   Color
	Bg   Color
	Attr Attr
}

// IsZero reports whether the style produces no SGR output
func (s Style) IsZero() bool {
	return s == Style{}
}

// appendSGR writes the complete SGR sequence selecting this style,
// assuming a reset state. Zero styles write nothing.
func (s Style) appendSGR(b *bytes.Buffer) {
	if s.IsZero() {
		return
	}
	b.WriteString("\x1b[")
	first := true
	sep := func() {
		if !first {
			b.WriteByte(';')
		}
		first = false
	}

	if s.Attr&AttrBold != 0 {
		sep()
		b.WriteByte('1')
	}
	if s.Attr&AttrDim != 0 {
		sep()
		b.WriteByte('2')
	}
	if s.Attr&AttrItalic != 0 {
		sep()
		b.WriteByte('3')
	}
	if s.Attr&AttrUnderline != 0 {
		sep()
		b.WriteByte('4')
	}
	if s.Attr&AttrBlink != 0 {
		sep()
		b.WriteByte('5')
	}
	if s.Attr&AttrReverse != 0 {
		sep()
		b.WriteByte('7')
	}

	switch s.Fg.Mode {
	case ColorBasic:
		sep()
		if s.Fg.Index < 8 {
			appendInt(b, 30+int(s.Fg.Index))
		} else {
			appendInt(b, 90+int(s.Fg.Index-8))
		}
	case Color256:
		sep()
		b.WriteString("38;5;")
		appendInt(b, int(s.Fg.Index))
	case ColorRGB:
		sep()
		b.WriteString("38;2;")
		appendInt(b, int(s.Fg.R))
		b.WriteByte(';')
		appendInt(b, int(s.Fg.G))
		b.WriteByte(';')
		appendInt(b, int(s.Fg.B))
	}

	switch s.Bg.Mode {
	case ColorBasic:
		sep()
		if s.Bg.Index < 8 {
			appendInt(b, 40+int(s.Bg.Index))
		} else {
			appendInt(b, 100+int(s.Bg.Index-8))
		}
	case Color256:
		sep()
		b.WriteString("48;5;")
		appendInt(b, int(s.Bg.Index))
	case ColorRGB:
		sep()
		b.WriteString("48;2;")
		appendInt(b, int(s.Bg.R))
		b.WriteByte(';')
		appendInt(b, int(s.Bg.G))
		b.WriteByte(';')
		appendInt(b, int(s.Bg.B))
	}

	if first {
		// Attributes all clear and both colors default; should not
		// happen given IsZero, but emit a reset rather than ESC [ m
		b.WriteByte('0')
	}
	b.WriteByte('m')
}

// sgr returns the style's escape sequence as a string
func (s Style) sgr() string {
	if s.IsZero() {
		return ""
	}
	var b bytes.Buffer
	s.appendSGR(&b)
	return b.String()
}

// applySGR folds one SGR parameter list (the body of ESC [ ... m,
// without introducer or final byte) into a style accumulator. The
// canonical reset (empty body or 0) clears the accumulator. Unknown
// parameters are skipped.
func applySGR(s Style, body string) Style {
	params := splitParams(body)
	if len(params) == 0 {
		return Style{}
	}
	for i := 0; i < len(params); i++ {
		switch p := params[i]; p {
		case 0:
			s = Style{}
		case 1:
			s.Attr |= AttrBold
		case 2:
			s.Attr |= AttrDim
		case 3:
			s.Attr |= AttrItalic
		case 4:
			s.Attr |= AttrUnderline
		case 5:
			s.Attr |= AttrBlink
		case 7:
			s.Attr |= AttrReverse
		case 22:
			s.Attr &^= AttrBold | AttrDim
		case 23:
			s.Attr &^= AttrItalic
		case 24:
			s.Attr &^= AttrUnderline
		case 25:
			s.Attr &^= AttrBlink
		case 27:
			s.Attr &^= AttrReverse
		case 39:
			s.Fg = Color{}
		case 49:
			s.Bg = Color{}
		case 38, 48:
			c, skip := parseExtendedColor(params[i+1:])
			if skip == 0 {
				return s // malformed tail, stop
			}
			if p == 38 {
				s.Fg = c
			} else {
				s.Bg = c
			}
			i += skip
		default:
			switch {
			case p >= 30 && p <= 37:
				s.Fg = Basic(uint8(p - 30))
			case p >= 90 && p <= 97:
				s.Fg = Basic(uint8(p - 90 + 8))
			case p >= 40 && p <= 47:
				s.Bg = Basic(uint8(p - 40))
			case p >= 100 && p <= 107:
				s.Bg = Basic(uint8(p - 100 + 8))
			}
		}
	}
	return s
}

// parseExtendedColor handles the 5;n and 2;r;g;b forms following a 38
// or 48 parameter. Returns the color and how many params it consumed.
func parseExtendedColor(params []int) (Color, int) {
	if len(params) == 0 {
		return Color{}, 0
	}
	switch params[0] {
	case 5:
		if len(params) < 2 {
			return Color{}, 0
		}
		return Palette(clampU8(params[1])), 2
	case 2:
		if len(params) < 4 {
			return Color{}, 0
		}
		return RGB(clampU8(params[1]), clampU8(params[2]), clampU8(params[3])), 4
	}
	return Color{}, 0
}

func clampU8(n int) uint8 {
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return uint8(n)
}

// splitParams parses a semicolon-separated SGR parameter list. An
// empty body yields nil (canonical reset). Empty elements default to 0.
func splitParams(body string) []int {
	if body == "" {
		return nil
	}
	out := make([]int, 0, 8)
	val := 0
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c >= '0' && c <= '9':
			val = val*10 + int(c-'0')
			if val > 99999 {
				val = 99999
			}
		case c == ';':
			out = append(out, val)
			val = 0
		default:
			// Colon sub-parameters and stray bytes end the scan
			return append(out, val)
		}
	}
	return append(out, val)
}
