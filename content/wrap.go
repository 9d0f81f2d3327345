package content

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// Line is one laid-out screen line ready for a frame write
type Line struct {
	Text   string // embedded SGR runs included
	Indent int    // columns of left margin
}

// Layout wraps blocks to the given content width. Block separation is
// a blank line; headings get one above and below. Width below 8 is
// clamped so pathological windows still produce output.
func Layout(blocks []Block, width int) []Line {
	if width < 8 {
		width = 8
	}
	var out []Line
	blank := func() {
		if len(out) > 0 && out[len(out)-1].Text != "" {
			out = append(out, Line{})
		}
	}

	for _, b := range blocks {
		switch b.Kind {
		case BlockHeading:
			blank()
			for _, l := range wrapStyled(b.Text, width) {
				out = append(out, Line{Text: l})
			}
			out = append(out, Line{})

		case BlockParagraph:
			blank()
			for _, l := range wrapStyled(b.Text, width) {
				out = append(out, Line{Text: l})
			}

		case BlockListItem:
			blank()
			indent := 2 * b.Level
			inner := width - indent - 2
			if inner < 8 {
				inner = 8
			}
			for i, l := range wrapStyled(b.Text, inner) {
				if i == 0 {
					out = append(out, Line{Text: "• " + l, Indent: indent})
				} else {
					out = append(out, Line{Text: l, Indent: indent + 2})
				}
			}

		case BlockQuote:
			blank()
			indent := 2 * b.Level
			inner := width - indent - 2
			if inner < 8 {
				inner = 8
			}
			for _, l := range wrapStyled(b.Text, inner) {
				out = append(out, Line{Text: sgrDim + "│ " + sgrReset + l, Indent: indent})
			}

		case BlockCode:
			blank()
			for _, l := range Highlight(b.Text, b.Lang) {
				out = append(out, Line{Text: l, Indent: 2})
			}

		case BlockRule:
			blank()
			out = append(out, Line{Text: sgrDim + strings.Repeat("─", width) + sgrReset})
		}
	}

	// Trim a trailing separator
	for len(out) > 0 && out[len(out)-1].Text == "" {
		out = out[:len(out)-1]
	}
	return out
}

// ExpandTabs rewrites tabs as spaces to the next multiple of stop,
// column-aware per line. Code blocks run through this before
// highlighting so the configured tab stop wins over the frame's.
func ExpandTabs(text string, stop int) string {
	if stop < 1 {
		stop = 8
	}
	if !strings.ContainsRune(text, '\t') {
		return text
	}
	var b strings.Builder
	col := 0
	for _, r := range text {
		switch r {
		case '\n':
			b.WriteByte('\n')
			col = 0
		case '\t':
			n := stop - col%stop
			for i := 0; i < n; i++ {
				b.WriteByte(' ')
			}
			col += n
		default:
			b.WriteRune(r)
			col += clusterWidth(string(r))
		}
	}
	return b.String()
}

// DisplayWidth measures a string's terminal width, skipping SGR runs
func DisplayWidth(s string) int {
	w := 0
	for len(s) > 0 {
		if s[0] == 0x1b {
			if j := strings.IndexByte(s, 'm'); j >= 0 {
				s = s[j+1:]
				continue
			}
			return w
		}
		cluster, rest, _, _ := uniseg.FirstGraphemeClusterInString(s, -1)
		w += clusterWidth(cluster)
		s = rest
	}
	return w
}

func clusterWidth(cluster string) int {
	w := runewidth.StringWidth(cluster)
	if w > 2 {
		w = 2
	}
	return w
}

// wrapStyled greedily word-wraps text that carries embedded SGR runs.
// Continuation lines re-open the style state active at the break so
// each line renders correctly as an independent frame write.
func wrapStyled(text string, width int) []string {
	words := splitStyledWords(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	var line strings.Builder
	lineW := 0
	carry := "" // style prefix for the next line

	flushLine := func() {
		lines = append(lines, line.String())
		line.Reset()
		lineW = 0
	}

	for _, w := range words {
		sep := 0
		if lineW > 0 {
			sep = 1
		}
		if lineW > 0 && lineW+sep+w.width > width {
			flushLine()
			line.WriteString(carry)
			sep = 0
		}
		if sep == 1 {
			line.WriteByte(' ')
			lineW++
		}

		if w.width <= width {
			line.WriteString(w.text)
			lineW += w.width
		} else {
			// A single word wider than the line hard-breaks by cluster
			rem := w.text
			for len(rem) > 0 {
				cluster, cw, isSGR := nextSegment(rem)
				if !isSGR && lineW+cw > width && lineW > 0 {
					flushLine()
					line.WriteString(carry)
				}
				line.WriteString(cluster)
				lineW += cw
				if isSGR {
					carry = foldCarry(carry, cluster)
				}
				rem = rem[len(cluster):]
			}
		}
		carry = foldCarry(carry, w.sgr)
	}
	if lineW > 0 || line.Len() > 0 {
		flushLine()
	}
	return lines
}

type styledWord struct {
	text  string
	width int
	sgr   string // concatenated SGR runs inside the word, in order
}

// splitStyledWords splits on spaces that sit outside escape sequences
func splitStyledWords(text string) []styledWord {
	var words []styledWord
	var cur strings.Builder
	var curSGR strings.Builder
	curW := 0

	emit := func() {
		if cur.Len() > 0 {
			words = append(words, styledWord{cur.String(), curW, curSGR.String()})
			cur.Reset()
			curSGR.Reset()
			curW = 0
		}
	}

	for len(text) > 0 {
		seg, w, isSGR := nextSegment(text)
		switch {
		case isSGR:
			cur.WriteString(seg)
			curSGR.WriteString(seg)
		case seg == " ":
			emit()
		default:
			cur.WriteString(seg)
			curW += w
		}
		text = text[len(seg):]
	}
	emit()
	return words
}

// nextSegment returns the next SGR run or grapheme cluster
func nextSegment(s string) (seg string, width int, isSGR bool) {
	if s[0] == 0x1b {
		if j := strings.IndexByte(s, 'm'); j >= 0 {
			return s[:j+1], 0, true
		}
		return s, 0, true // truncated escape, swallow the tail
	}
	cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(s, -1)
	return cluster, clusterWidth(cluster), false
}

// foldCarry appends an SGR run to the carried style prefix. A full
// reset discards everything before it.
func foldCarry(carry, sgr string) string {
	if sgr == "" {
		return carry
	}
	joined := carry + sgr
	if i := strings.LastIndex(joined, sgrReset); i >= 0 {
		return joined[i+len(sgrReset):]
	}
	if i := strings.LastIndex(joined, "\x1b[m"); i >= 0 {
		return joined[i+len("\x1b[m"):]
	}
	return joined
}
