// Package ui draws the reader's screens into a renderer frame. All
// drawing uses absolute coordinates; layout is computed here, never by
// the terminal engine.
package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/uniseg"
	"github.com/sahilm/fuzzy"

	"folio/config"
	"folio/content"
	"folio/epub"
	"folio/store"
	"folio/terminal"
)

// View renders the active screen for a given state snapshot
type View struct {
	Cfg config.Config
}

// Draw writes one full screen between StartFrame and EndFrame calls
// owned by the event loop
func (v View) Draw(r *terminal.Renderer, st store.State, lines []content.Line, toc []epub.TOCEntry, w, h int) {
	if w < 1 || h < 1 {
		return
	}
	switch st.Mode {
	case store.ModeTOC:
		v.drawReader(r, st, lines, w, h)
		v.drawTOC(r, st, toc, w, h)
	case store.ModeHelp:
		v.drawHelp(r, w, h)
		v.drawStatus(r, st, w, h)
	default:
		v.drawReader(r, st, lines, w, h)
	}
}

// TextWidth is the wrap width for the current window
func (v View) TextWidth(w int) int {
	tw := w - 2*v.Cfg.Margin
	if v.Cfg.MaxTextWidth > 0 && tw > v.Cfg.MaxTextWidth {
		tw = v.Cfg.MaxTextWidth
	}
	if tw < 8 {
		tw = 8
	}
	return tw
}

// PageSize is the number of text rows above the status bar
func PageSize(h int) int {
	if h <= 1 {
		return 1
	}
	return h - 1
}

func (v View) drawReader(r *terminal.Renderer, st store.State, lines []content.Line, w, h int) {
	page := PageSize(h)
	left := v.leftMargin(w)
	for row := 0; row < page; row++ {
		i := st.LineOffset + row
		if i >= len(lines) {
			break
		}
		r.Write(row, left+lines[i].Indent, lines[i].Text)
	}
	v.drawStatus(r, st, w, h)
}

func (v View) leftMargin(w int) int {
	tw := v.TextWidth(w)
	left := (w - tw) / 2
	if left < 0 {
		left = 0
	}
	return left
}

func (v View) drawStatus(r *terminal.Renderer, st store.State, w, h int) {
	row := h - 1
	style := paletteSGR(38, v.Cfg.Theme.StatusFg) + paletteSGR(48, v.Cfg.Theme.StatusBg)

	leftText := st.BookTitle
	if st.Status != "" {
		leftText = st.Status
	}

	pct := 0
	if st.LineCount > 1 {
		pct = st.LineOffset * 100 / (st.LineCount - 1)
	}
	rightText := fmt.Sprintf("ch %d/%d  %d%%", st.ChapterIndex+1, st.ChapterCount, pct)
	if st.ChapterCount == 0 {
		rightText = ""
	}

	gap := w - content.DisplayWidth(leftText) - content.DisplayWidth(rightText) - 2
	if gap < 1 {
		leftText = truncate(leftText, w-content.DisplayWidth(rightText)-3)
		gap = 1
	}
	bar := " " + leftText + strings.Repeat(" ", gap) + rightText + " "
	r.Write(row, 0, style+pad(bar, w)+"\x1b[0m")
}

// drawTOC paints the filterable chapter overlay over the reader
func (v View) drawTOC(r *terminal.Renderer, st store.State, toc []epub.TOCEntry, w, h int) {
	boxW := w * 3 / 4
	if boxW < 20 {
		boxW = minInt(w, 20)
	}
	boxH := h * 3 / 4
	if boxH < 5 {
		boxH = minInt(h, 5)
	}
	x := (w - boxW) / 2
	y := (h - boxH) / 2

	accent := paletteSGR(38, v.Cfg.Theme.AccentFg)
	matches := FilterTOC(toc, st.TOCFilter)

	// Filter line
	r.Write(y, x, accent+pad("/ "+st.TOCFilter, boxW)+"\x1b[0m")

	visible := boxH - 1
	top := 0
	if st.TOCSelection >= visible {
		top = st.TOCSelection - visible + 1
	}
	for i := 0; i < visible; i++ {
		mi := top + i
		row := y + 1 + i
		if mi >= len(matches) {
			r.Write(row, x, strings.Repeat(" ", boxW))
			continue
		}
		e := toc[matches[mi]]
		label := strings.Repeat("  ", e.Depth) + e.Title
		label = truncate(label, boxW-2)
		if mi == st.TOCSelection {
			r.Write(row, x, "\x1b[7m"+pad("> "+label, boxW)+"\x1b[0m")
		} else {
			r.Write(row, x, pad("  "+label, boxW))
		}
	}
}

func (v View) drawHelp(r *terminal.Renderer, w, h int) {
	heading := paletteSGR(38, v.Cfg.Theme.HeadingFg)
	bindings := []string{
		heading + "folio keys" + "\x1b[0m",
		"",
		"  j / k, arrows     scroll line",
		"  space / b         page down / up",
		"  g / G             top / bottom of chapter",
		"  n / p             next / previous chapter",
		"  t                 table of contents",
		"  ?                 this help",
		"  q                 quit",
	}
	left := v.leftMargin(w)
	for i, b := range bindings {
		if i >= PageSize(h) {
			break
		}
		r.Write(i, left, b)
	}
}

// FilterTOC returns indexes into toc matching the fuzzy filter, all
// entries (in order) when the filter is empty
func FilterTOC(toc []epub.TOCEntry, filter string) []int {
	if filter == "" {
		out := make([]int, len(toc))
		for i := range toc {
			out[i] = i
		}
		return out
	}
	titles := make([]string, len(toc))
	for i, e := range toc {
		titles[i] = e.Title
	}
	matches := fuzzy.Find(filter, titles)
	out := make([]int, len(matches))
	for i, m := range matches {
		out[i] = m.Index
	}
	return out
}

// paletteSGR builds a 38/48;5;n sequence, empty for the terminal
// default (-1)
func paletteSGR(ground, idx int) string {
	if idx < 0 || idx > 255 {
		return ""
	}
	return fmt.Sprintf("\x1b[%d;5;%dm", ground, idx)
}

// pad right-pads or truncates to exactly width display columns
func pad(s string, width int) string {
	w := content.DisplayWidth(s)
	if w > width {
		return truncate(s, width)
	}
	return s + strings.Repeat(" ", width-w)
}

// truncate cuts to at most width columns, appending an ellipsis when
// something was dropped
func truncate(s string, width int) string {
	if width < 1 {
		return ""
	}
	if content.DisplayWidth(s) <= width {
		return s
	}
	var b strings.Builder
	w := 0
	for len(s) > 0 {
		if s[0] == 0x1b {
			if j := strings.IndexByte(s, 'm'); j >= 0 {
				b.WriteString(s[:j+1])
				s = s[j+1:]
				continue
			}
			break
		}
		cluster, rest, _, _ := uniseg.FirstGraphemeClusterInString(s, -1)
		cw := content.DisplayWidth(cluster)
		if w+cw > width-1 {
			break
		}
		b.WriteString(cluster)
		w += cw
		s = rest
	}
	b.WriteString("…")
	return b.String()
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
