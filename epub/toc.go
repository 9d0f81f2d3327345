package epub

import (
	"bytes"
	"path"
	"strings"

	"golang.org/x/net/html"
)

// parseNav extracts the toc nav from an EPUB3 navigation document.
// Nesting depth of the ol/li structure becomes TOCEntry.Depth.
func parseNav(raw []byte, baseDir string) []TOCEntry {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil
	}
	nav := findTocNav(doc)
	if nav == nil {
		return nil
	}
	var out []TOCEntry
	// The nav's own top-level ol is depth 0
	collectNavLinks(nav, baseDir, -1, &out)
	return out
}

func findTocNav(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "nav" {
		for _, a := range n.Attr {
			// epub:type="toc"; some books write role="doc-toc" instead
			if (a.Key == "epub:type" || a.Key == "type" || a.Key == "role") &&
				strings.Contains(a.Val, "toc") {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findTocNav(c); found != nil {
			return found
		}
	}
	return nil
}

func collectNavLinks(n *html.Node, baseDir string, depth int, out *[]TOCEntry) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.ElementNode && c.Data == "a":
			href := attr(c, "href")
			title := strings.TrimSpace(nodeText(c))
			if href != "" && title != "" {
				d := depth
				if d < 0 {
					d = 0
				}
				*out = append(*out, TOCEntry{
					Title: title,
					Href:  resolveHref(baseDir, href),
					Depth: d,
				})
			}
		case c.Type == html.ElementNode && (c.Data == "ol" || c.Data == "ul"):
			collectNavLinks(c, baseDir, depth+1, out)
		default:
			collectNavLinks(c, baseDir, depth, out)
		}
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// NCX structures (EPUB 2 fallback)

type ncxXML struct {
	NavMap struct {
		Points []ncxPoint `xml:"navPoint"`
	} `xml:"navMap"`
}

type ncxPoint struct {
	Label struct {
		Text string `xml:"text"`
	} `xml:"navLabel"`
	Content struct {
		Src string `xml:"src,attr"`
	} `xml:"content"`
	Children []ncxPoint `xml:"navPoint"`
}

func parseNCX(raw []byte, baseDir string) []TOCEntry {
	var ncx ncxXML
	if err := decodeXML(raw, &ncx); err != nil {
		return nil
	}
	var out []TOCEntry
	var walk func(points []ncxPoint, depth int)
	walk = func(points []ncxPoint, depth int) {
		for _, p := range points {
			title := strings.TrimSpace(p.Label.Text)
			if title != "" && p.Content.Src != "" {
				out = append(out, TOCEntry{
					Title: title,
					Href:  resolveHref(baseDir, p.Content.Src),
					Depth: depth,
				})
			}
			walk(p.Children, depth+1)
		}
	}
	walk(ncx.NavMap.Points, 0)
	return out
}

func resolveHref(baseDir, href string) string {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	href = unescapeHref(href)
	if baseDir == "." || baseDir == "" {
		return path.Clean(href)
	}
	return path.Clean(path.Join(baseDir, href))
}
