package terminal

import (
	"bytes"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// tabStop is the column multiple tabs advance to
const tabStop = 8

// Cell is one grid position: a grapheme cluster (empty means blank)
// and its style. Wide clusters occupy their anchor cell plus a
// continuation marker in the following column.
type Cell struct {
	Text  string
	Style Style
}

// Frame is a fixed-size grid of styled cells representing the next
// screen to display. One Frame lives per render pass; it is filled by
// clipped absolute writes and then diffed by the Renderer.
type Frame struct {
	width  int
	height int
	cells  []Cell // row-major
	cont   []bool // true: second column of a wide glyph anchored left
}

// NewFrame allocates a blank grid. Negative dimensions clamp to zero.
func NewFrame(width, height int) *Frame {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	size := width * height
	return &Frame{
		width:  width,
		height: height,
		cells:  make([]Cell, size),
		cont:   make([]bool, size),
	}
}

// Width returns the grid width in columns
func (f *Frame) Width() int { return f.width }

// Height returns the grid height in rows
func (f *Frame) Height() int { return f.height }

// Clear blanks every cell for reuse in the next pass
func (f *Frame) Clear() {
	for i := range f.cells {
		f.cells[i] = Cell{}
		f.cont[i] = false
	}
}

// Write places text at a 0-indexed position. Embedded SGR runs
// (ESC [ ... m) update a per-call style accumulator without occupying
// cells; other embedded CSI sequences are dropped. Tabs advance to the
// next multiple of 8 writing styled spaces. Content past the grid's
// edges is silently clipped, never wrapped.
func (f *Frame) Write(row, col int, text string) {
	if row < 0 || row >= f.height || text == "" {
		return
	}

	var style Style
	rest := text
	for len(rest) > 0 {
		if rest[0] == byteESC {
			if len(rest) >= 2 && rest[1] == '[' {
				body, n := scanCSI([]byte(rest), 2)
				if n > 0 {
					if body[len(body)-1] == 'm' {
						style = applySGR(style, body[:len(body)-1])
					}
					rest = rest[n:]
					continue
				}
			}
			// Truncated or non-CSI escape inside a write: drop the ESC
			rest = rest[1:]
			continue
		}
		if rest[0] == '\t' {
			next := (col/tabStop + 1) * tabStop
			for col < next {
				f.putCell(row, col, " ", style, 1)
				col++
			}
			rest = rest[1:]
			continue
		}

		cluster, r, _, _ := uniseg.FirstGraphemeClusterInString(rest, -1)
		rest = r
		w := runewidth.StringWidth(cluster)
		if w <= 0 {
			continue
		}
		if w > 2 {
			w = 2
		}
		f.putCell(row, col, cluster, style, w)
		col += w
	}
}

// putCell writes one cluster of the given display width, maintaining
// the wide-glyph invariant: no half of a wide glyph ever survives an
// overlapping write.
func (f *Frame) putCell(row, col int, cluster string, style Style, width int) {
	if col >= f.width || col+width <= 0 {
		return
	}
	if col < 0 {
		return
	}

	f.splitWideAt(row, col)
	idx := row*f.width + col

	if width == 2 {
		if col+1 >= f.width {
			// Wide glyph straddling the right edge: render a styled
			// blank instead of half a glyph
			f.cells[idx] = Cell{Text: " ", Style: style}
			f.cont[idx] = false
			return
		}
		f.splitWideAt(row, col+1)
		f.cells[idx] = Cell{Text: cluster, Style: style}
		f.cont[idx] = false
		f.cells[idx+1] = Cell{}
		f.cont[idx+1] = true
		return
	}

	f.cells[idx] = Cell{Text: cluster, Style: style}
	f.cont[idx] = false
}

// splitWideAt blanks both halves of any wide glyph occupying the given
// column, whether the column is its anchor or its continuation.
func (f *Frame) splitWideAt(row, col int) {
	idx := row*f.width + col
	if f.cont[idx] && col > 0 {
		f.cells[idx-1] = Cell{}
		f.cells[idx] = Cell{}
		f.cont[idx] = false
	}
	if col+1 < f.width && f.cont[idx+1] {
		f.cells[idx] = Cell{}
		f.cells[idx+1] = Cell{}
		f.cont[idx+1] = false
	}
}

// Cell returns the cell at a position, or a blank cell out of bounds
func (f *Frame) Cell(row, col int) Cell {
	if row < 0 || row >= f.height || col < 0 || col >= f.width {
		return Cell{}
	}
	return f.cells[row*f.width+col]
}

// Continuation reports whether a column holds the second half of a
// wide glyph
func (f *Frame) Continuation(row, col int) bool {
	if row < 0 || row >= f.height || col < 0 || col >= f.width {
		return false
	}
	return f.cont[row*f.width+col]
}

// RenderedRows renders each row to a single string: continuation
// markers are skipped, consecutive same-style cells coalesce into one
// run wrapped in the style's SGR sequence plus a reset, and trailing
// unstyled blanks are trimmed. An untouched row renders as "" — that
// emptiness is what lets the renderer's diff skip it entirely.
func (f *Frame) RenderedRows() []string {
	rows := make([]string, f.height)
	var b bytes.Buffer
	for r := 0; r < f.height; r++ {
		base := r * f.width

		last := -1
		for c := 0; c < f.width; c++ {
			if f.cont[base+c] {
				continue
			}
			cell := f.cells[base+c]
			if cell.Text != "" || !cell.Style.IsZero() {
				last = c
			}
		}
		if last < 0 {
			rows[r] = ""
			continue
		}

		b.Reset()
		var cur Style
		styled := false
		for c := 0; c <= last; c++ {
			if f.cont[base+c] {
				continue
			}
			cell := f.cells[base+c]
			if cell.Style != cur {
				if styled {
					b.WriteString(csiReset)
				}
				cur = cell.Style
				styled = !cur.IsZero()
				if styled {
					cur.appendSGR(&b)
				}
			}
			if cell.Text == "" {
				b.WriteByte(' ')
			} else {
				b.WriteString(cell.Text)
			}
		}
		if styled {
			b.WriteString(csiReset)
		}
		rows[r] = b.String()
	}
	return rows
}

// Plain returns a row's text without styling, useful in tests and for
// damage inspection
func (f *Frame) Plain(row int) string {
	if row < 0 || row >= f.height {
		return ""
	}
	var sb strings.Builder
	base := row * f.width
	for c := 0; c < f.width; c++ {
		if f.cont[base+c] {
			continue
		}
		if t := f.cells[base+c].Text; t != "" {
			sb.WriteString(t)
		} else {
			sb.WriteByte(' ')
		}
	}
	return strings.TrimRight(sb.String(), " ")
}
