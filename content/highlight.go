package content

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/go-enry/go-enry/v2"
)

// Highlight colors a code block's lines with 256-color SGR runs. The
// declared language wins; otherwise enry classifies the content, with
// chroma's own analyser as the last resort. Unknown languages come
// back as plain lines.
func Highlight(code, lang string) []string {
	lexer := pickLexer(code, lang)
	if lexer == nil {
		return strings.Split(code, "\n")
	}
	lexer = chroma.Coalesce(lexer)

	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return strings.Split(code, "\n")
	}

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}

	var b strings.Builder
	for tok := it(); tok != chroma.EOF; tok = it() {
		entry := style.Get(tok.Type)
		seq := entrySGR(entry)
		for i, line := range strings.Split(tok.Value, "\n") {
			if i > 0 {
				b.WriteByte('\n')
			}
			if line == "" {
				continue
			}
			if seq != "" {
				b.WriteString(seq)
				b.WriteString(line)
				b.WriteString(sgrReset)
			} else {
				b.WriteString(line)
			}
		}
	}
	return strings.Split(b.String(), "\n")
}

func pickLexer(code, lang string) chroma.Lexer {
	if lang != "" {
		if l := lexers.Get(lang); l != nil {
			return l
		}
	}
	if detected := enry.GetLanguage("", []byte(code)); detected != "" && detected != "Text" {
		if l := lexers.Get(detected); l != nil {
			return l
		}
	}
	if l := lexers.Analyse(code); l != nil {
		return l
	}
	return nil
}

// entrySGR renders a chroma style entry as a 256-color SGR sequence
func entrySGR(e chroma.StyleEntry) string {
	var parts []string
	if e.Bold == chroma.Yes {
		parts = append(parts, "1")
	}
	if e.Italic == chroma.Yes {
		parts = append(parts, "3")
	}
	if e.Underline == chroma.Yes {
		parts = append(parts, "4")
	}
	if e.Colour.IsSet() {
		parts = append(parts, "38;5;"+itoa(int(paletteIndex(e.Colour))))
	}
	if len(parts) == 0 {
		return ""
	}
	return "\x1b[" + strings.Join(parts, ";") + "m"
}

// paletteIndex maps a truecolor value onto the xterm 6x6x6 cube
func paletteIndex(c chroma.Colour) uint8 {
	r := cubeChannel(c.Red())
	g := cubeChannel(c.Green())
	b := cubeChannel(c.Blue())
	return 16 + 36*r + 6*g + b
}

func cubeChannel(v uint8) uint8 {
	if v < 48 {
		return 0
	}
	if v < 115 {
		return 1
	}
	return uint8((int(v) - 35) / 40)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [4]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
