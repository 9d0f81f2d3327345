package terminal

import (
	"bytes"
)

// Escape sequence fragments shared by the renderer and console.
// Everything here is plain xterm ANSI; no terminfo lookup anywhere.
const (
	csiReset     = "\x1b[0m"
	csiEraseLine = "\x1b[2K"
	csiClear     = "\x1b[2J\x1b[H"
	csiRIS       = "\x1bc" // hard reset, emergency use only

	csiCursorHide = "\x1b[?25l"
	csiCursorShow = "\x1b[?25h"

	csiAltScreenEnter = "\x1b[?1049h"
	csiAltScreenExit  = "\x1b[?1049l"

	// DECAWM off keeps the cursor parked at the right edge instead of
	// wrapping, so bottom-right writes cannot scroll the screen
	csiAutoWrapOn  = "\x1b[?7h"
	csiAutoWrapOff = "\x1b[?7l"

	csiMouseClickOn  = "\x1b[?1000h"
	csiMouseClickOff = "\x1b[?1000l"
	csiMouseDragOn   = "\x1b[?1002h"
	csiMouseDragOff  = "\x1b[?1002l"
	csiMouseSGROn    = "\x1b[?1006h"
	csiMouseSGROff   = "\x1b[?1006l"

	// Synchronized update hints (mode 2026). Frame-scoped raw
	// sequences; terminals that don't know them ignore them.
	SyncUpdateBegin = "\x1b[?2026h"
	SyncUpdateEnd   = "\x1b[?2026l"
)

// appendInt writes a non-negative integer without allocation.
// Terminal coordinates are small; three digits cover realistic sizes.
func appendInt(b *bytes.Buffer, n int) {
	if n < 0 {
		n = 0
	}
	if n < 10 {
		b.WriteByte(byte(n) + '0')
		return
	}
	if n < 100 {
		b.WriteByte(byte(n/10) + '0')
		b.WriteByte(byte(n%10) + '0')
		return
	}
	if n < 1000 {
		b.WriteByte(byte(n/100) + '0')
		b.WriteByte(byte(n/10%10) + '0')
		b.WriteByte(byte(n%10) + '0')
		return
	}
	var tmp [8]byte
	i := len(tmp)
	for n > 0 {
		i--
		tmp[i] = byte(n%10) + '0'
		n /= 10
	}
	b.Write(tmp[i:])
}

// appendCursorPos writes a CUP sequence for a 0-indexed position
func appendCursorPos(b *bytes.Buffer, row, col int) {
	b.WriteString("\x1b[")
	appendInt(b, row+1)
	b.WriteByte(';')
	appendInt(b, col+1)
	b.WriteByte('H')
}
