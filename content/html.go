// Package content converts chapter HTML into styled text blocks and
// lays them out as width-wrapped lines. Inline styling is expressed as
// embedded SGR runs so the frame's style accumulator is the single
// styling pipeline.
package content

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// BlockKind classifies a content block for layout
type BlockKind uint8

const (
	BlockParagraph BlockKind = iota
	BlockHeading
	BlockListItem
	BlockQuote
	BlockCode
	BlockRule
)

// Block is one flow element. Text contains embedded SGR sequences for
// inline styling; Code blocks keep their newlines, everything else is
// a single logical line that wraps at layout time.
type Block struct {
	Kind  BlockKind
	Level int // heading level, list nesting depth
	Text  string
	Lang  string // code blocks: declared language, may be empty
}

const (
	sgrBold      = "\x1b[1m"
	sgrItalic    = "\x1b[3m"
	sgrUnderline = "\x1b[4m"
	sgrDim       = "\x1b[2m"
	sgrReset     = "\x1b[0m"
)

// Parse converts chapter HTML to blocks. It never fails: malformed
// markup degrades to whatever text the tokenizer can salvage.
func Parse(raw []byte) []Block {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return []Block{{Kind: BlockParagraph, Text: strings.TrimSpace(string(raw))}}
	}
	p := &parser{}
	p.walk(doc)
	p.flush()
	return p.blocks
}

type parser struct {
	blocks []Block

	cur      strings.Builder
	kind     BlockKind
	level    int
	lang     string
	quote    int // blockquote nesting
	listDep  int
	open     bool
	pendingS bool // collapse whitespace between inline chunks
}

func (p *parser) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		p.text(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "head", "title":
			return
		case "h1", "h2", "h3", "h4", "h5", "h6":
			p.flush()
			p.begin(BlockHeading, int(n.Data[1]-'0'))
			p.cur.WriteString(sgrBold)
			p.walkChildren(n)
			p.cur.WriteString(sgrReset)
			p.flush()
			return
		case "p", "div", "section", "article", "figcaption":
			p.flush()
			p.walkChildren(n)
			p.flush()
			return
		case "blockquote":
			p.flush()
			p.quote++
			p.walkChildren(n)
			p.quote--
			p.flush()
			return
		case "ul", "ol":
			p.flush()
			p.listDep++
			p.walkChildren(n)
			p.listDep--
			p.flush()
			return
		case "li":
			p.flush()
			p.begin(BlockListItem, p.listDep)
			p.walkChildren(n)
			p.flush()
			return
		case "pre":
			p.flush()
			p.preBlock(n)
			return
		case "hr":
			p.flush()
			p.blocks = append(p.blocks, Block{Kind: BlockRule})
			return
		case "br":
			// Soft break inside a paragraph: keep it a space, the
			// wrapper decides line breaks
			p.pendingS = true
			return
		case "b", "strong":
			p.inline(sgrBold, "22", n)
			return
		case "i", "em", "cite":
			p.inline(sgrItalic, "23", n)
			return
		case "u", "a":
			p.inline(sgrUnderline, "24", n)
			return
		case "code", "tt", "kbd", "samp":
			p.inline(sgrDim, "22", n)
			return
		}
	}
	p.walkChildren(n)
}

func (p *parser) walkChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c)
	}
}

// inline wraps child content in an SGR attribute, closing with the
// matching clear parameter rather than a full reset so nesting works
func (p *parser) inline(open, clear string, n *html.Node) {
	p.ensureOpen()
	if p.pendingS && p.cur.Len() > 0 {
		p.cur.WriteByte(' ')
	}
	p.pendingS = false
	p.cur.WriteString(open)
	p.walkChildren(n)
	p.cur.WriteString("\x1b[" + clear + "m")
}

func (p *parser) text(s string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if len(s) > 0 && p.open {
			p.pendingS = true
		}
		return
	}
	p.ensureOpen()
	if leadingSpace(s) && p.cur.Len() > 0 {
		p.pendingS = true
	}
	for i, f := range fields {
		if i > 0 || p.pendingS {
			p.cur.WriteByte(' ')
		}
		p.pendingS = false
		p.cur.WriteString(f)
	}
	if trailingSpace(s) {
		p.pendingS = true
	}
}

func leadingSpace(s string) bool {
	return len(s) > 0 && (s[0] == ' ' || s[0] == '\n' || s[0] == '\t' || s[0] == '\r')
}

func trailingSpace(s string) bool {
	c := s[len(s)-1]
	return c == ' ' || c == '\n' || c == '\t' || c == '\r'
}

func (p *parser) ensureOpen() {
	if !p.open {
		kind := BlockParagraph
		level := 0
		if p.quote > 0 {
			kind = BlockQuote
			level = p.quote
		}
		p.begin(kind, level)
	}
}

func (p *parser) begin(kind BlockKind, level int) {
	p.cur.Reset()
	p.kind = kind
	p.level = level
	p.lang = ""
	p.open = true
	p.pendingS = false
}

func (p *parser) flush() {
	if !p.open {
		return
	}
	text := strings.TrimSpace(p.cur.String())
	p.open = false
	p.cur.Reset()
	if text == "" || onlySGR(text) {
		return
	}
	if p.kind == BlockQuote || (p.quote > 0 && p.kind == BlockParagraph) {
		p.blocks = append(p.blocks, Block{
			Kind:  BlockQuote,
			Level: max(p.quote, 1),
			Text:  sgrDim + text + sgrReset,
		})
		return
	}
	p.blocks = append(p.blocks, Block{Kind: p.kind, Level: p.level, Text: text})
}

// preBlock captures verbatim text, preserving newlines, and picks up a
// language hint from class="language-xxx" on the pre or a nested code
func (p *parser) preBlock(n *html.Node) {
	lang := classLanguage(n)
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode {
			if lang == "" {
				lang = classLanguage(n)
			}
			if n.Data == "br" {
				b.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	text := strings.Trim(b.String(), "\n")
	if text == "" {
		return
	}
	p.blocks = append(p.blocks, Block{Kind: BlockCode, Text: text, Lang: lang})
}

func classLanguage(n *html.Node) string {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if l, ok := strings.CutPrefix(c, "language-"); ok {
				return l
			}
			if l, ok := strings.CutPrefix(c, "lang-"); ok {
				return l
			}
		}
	}
	return ""
}

// onlySGR reports whether the string is escape sequences with no
// printable content
func onlySGR(s string) bool {
	for i := 0; i < len(s); {
		if s[i] != 0x1b {
			return false
		}
		j := strings.IndexByte(s[i:], 'm')
		if j < 0 {
			return false
		}
		i += j + 1
	}
	return true
}
