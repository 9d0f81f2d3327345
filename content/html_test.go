package content

import (
	"strings"
	"testing"
)

func TestParseParagraphs(t *testing.T) {
	blocks := Parse([]byte("<html><body><p>First.</p><p>Second\n  paragraph.</p></body></html>"))
	if len(blocks) != 2 {
		t.Fatalf("blocks = %+v", blocks)
	}
	if blocks[0].Text != "First." {
		t.Fatalf("block 0 = %q", blocks[0].Text)
	}
	if blocks[1].Text != "Second paragraph." {
		t.Fatalf("whitespace not collapsed: %q", blocks[1].Text)
	}
}

func TestParseHeading(t *testing.T) {
	blocks := Parse([]byte("<h2>Title</h2><p>Body</p>"))
	if len(blocks) != 2 || blocks[0].Kind != BlockHeading || blocks[0].Level != 2 {
		t.Fatalf("blocks = %+v", blocks)
	}
	if !strings.Contains(blocks[0].Text, "\x1b[1m") {
		t.Fatalf("heading not bold: %q", blocks[0].Text)
	}
}

func TestParseInlineStyles(t *testing.T) {
	blocks := Parse([]byte("<p>a <strong>bold</strong> and <em>slanted</em> word</p>"))
	if len(blocks) != 1 {
		t.Fatalf("blocks = %+v", blocks)
	}
	text := blocks[0].Text
	if !strings.Contains(text, "\x1b[1mbold\x1b[22m") {
		t.Fatalf("strong run wrong: %q", text)
	}
	if !strings.Contains(text, "\x1b[3mslanted\x1b[23m") {
		t.Fatalf("em run wrong: %q", text)
	}
}

func TestParseLink(t *testing.T) {
	blocks := Parse([]byte(`<p>see <a href="x.html">here</a></p>`))
	if !strings.Contains(blocks[0].Text, "\x1b[4mhere\x1b[24m") {
		t.Fatalf("link not underlined: %q", blocks[0].Text)
	}
}

func TestParseList(t *testing.T) {
	blocks := Parse([]byte("<ul><li>one</li><li>two<ul><li>nested</li></ul></li></ul>"))
	var items []Block
	for _, b := range blocks {
		if b.Kind == BlockListItem {
			items = append(items, b)
		}
	}
	if len(items) != 3 {
		t.Fatalf("items = %+v", items)
	}
	if items[0].Level != 1 || items[2].Level != 2 {
		t.Fatalf("nesting levels = %d, %d", items[0].Level, items[2].Level)
	}
	if items[2].Text != "nested" {
		t.Fatalf("nested item = %q", items[2].Text)
	}
}

func TestParseBlockquote(t *testing.T) {
	blocks := Parse([]byte("<blockquote><p>quoted words</p></blockquote>"))
	if len(blocks) != 1 || blocks[0].Kind != BlockQuote {
		t.Fatalf("blocks = %+v", blocks)
	}
	if !strings.Contains(blocks[0].Text, "quoted words") {
		t.Fatalf("quote text = %q", blocks[0].Text)
	}
}

func TestParsePre(t *testing.T) {
	blocks := Parse([]byte(`<pre><code class="language-go">func main() {
	println("hi")
}</code></pre>`))
	if len(blocks) != 1 || blocks[0].Kind != BlockCode {
		t.Fatalf("blocks = %+v", blocks)
	}
	if blocks[0].Lang != "go" {
		t.Fatalf("lang = %q", blocks[0].Lang)
	}
	if !strings.Contains(blocks[0].Text, "\n\tprintln") {
		t.Fatalf("newlines not preserved: %q", blocks[0].Text)
	}
}

func TestParseRule(t *testing.T) {
	blocks := Parse([]byte("<p>a</p><hr/><p>b</p>"))
	if len(blocks) != 3 || blocks[1].Kind != BlockRule {
		t.Fatalf("blocks = %+v", blocks)
	}
}

func TestParseSkipsScriptAndStyle(t *testing.T) {
	blocks := Parse([]byte("<style>p{}</style><script>x()</script><p>kept</p>"))
	if len(blocks) != 1 || blocks[0].Text != "kept" {
		t.Fatalf("blocks = %+v", blocks)
	}
}

func TestParseEmptyInput(t *testing.T) {
	if blocks := Parse(nil); len(blocks) != 0 {
		t.Fatalf("blocks from empty input = %+v", blocks)
	}
}
