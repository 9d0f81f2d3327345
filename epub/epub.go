// Package epub reads EPUB 2 and EPUB 3 containers: the zip envelope,
// the OPF package document, the spine, and the table of contents from
// either an EPUB3 nav document or an NCX file.
package epub

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// Book is an opened EPUB. Chapter content is read lazily from the
// archive; Close releases the underlying file.
type Book struct {
	Path     string
	Title    string
	Author   string
	Language string

	Spine []SpineItem
	TOC   []TOCEntry

	rc       *zip.ReadCloser
	files    map[string]*zip.File
	manifest map[string]manifestItem
	opfDir   string
}

// SpineItem is one reading-order entry
type SpineItem struct {
	ID   string
	Href string // archive path, resolved against the OPF directory
}

// TOCEntry is one table-of-contents row
type TOCEntry struct {
	Title string
	Href  string // archive path, fragment stripped
	Depth int
}

type containerXML struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type manifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

type packageXML struct {
	Metadata struct {
		Title    []string `xml:"title"`
		Creator  []string `xml:"creator"`
		Language []string `xml:"language"`
	} `xml:"metadata"`
	Manifest struct {
		Items []manifestItem `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		TocID    string `xml:"toc,attr"`
		ItemRefs []struct {
			IDRef  string `xml:"idref,attr"`
			Linear string `xml:"linear,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

// Open reads the container and package documents and builds the spine
// and TOC. The archive stays open for chapter reads until Close.
func Open(bookPath string) (*Book, error) {
	rc, err := zip.OpenReader(bookPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", bookPath, err)
	}

	b := &Book{
		Path:     bookPath,
		rc:       rc,
		files:    make(map[string]*zip.File, len(rc.File)),
		manifest: make(map[string]manifestItem),
	}
	for _, f := range rc.File {
		b.files[f.Name] = f
	}

	if err := b.load(); err != nil {
		rc.Close()
		return nil, err
	}
	return b, nil
}

func (b *Book) load() error {
	raw, err := b.readFile("META-INF/container.xml")
	if err != nil {
		return fmt.Errorf("container.xml: %w", err)
	}
	var c containerXML
	if err := decodeXML(raw, &c); err != nil {
		return fmt.Errorf("container.xml: %w", err)
	}
	if len(c.Rootfiles) == 0 || c.Rootfiles[0].FullPath == "" {
		return fmt.Errorf("container.xml: no rootfile")
	}

	opfPath := c.Rootfiles[0].FullPath
	b.opfDir = path.Dir(opfPath)
	raw, err = b.readFile(opfPath)
	if err != nil {
		return fmt.Errorf("package document: %w", err)
	}
	var pkg packageXML
	if err := decodeXML(raw, &pkg); err != nil {
		return fmt.Errorf("package document: %w", err)
	}

	if len(pkg.Metadata.Title) > 0 {
		b.Title = strings.TrimSpace(pkg.Metadata.Title[0])
	}
	if b.Title == "" {
		b.Title = path.Base(bookBase(b.Path))
	}
	if len(pkg.Metadata.Creator) > 0 {
		b.Author = strings.TrimSpace(pkg.Metadata.Creator[0])
	}
	if len(pkg.Metadata.Language) > 0 {
		b.Language = strings.TrimSpace(pkg.Metadata.Language[0])
	}

	for _, it := range pkg.Manifest.Items {
		b.manifest[it.ID] = it
	}

	for _, ref := range pkg.Spine.ItemRefs {
		if ref.Linear == "no" {
			continue
		}
		it, ok := b.manifest[ref.IDRef]
		if !ok {
			continue
		}
		b.Spine = append(b.Spine, SpineItem{
			ID:   it.ID,
			Href: b.resolve(it.Href),
		})
	}
	if len(b.Spine) == 0 {
		return fmt.Errorf("package document: empty spine")
	}

	b.loadTOC(pkg.Spine.TocID)
	return nil
}

// loadTOC prefers the EPUB3 nav document, falling back to NCX. A book
// with neither is still readable; the TOC is just empty.
func (b *Book) loadTOC(ncxID string) {
	for _, it := range b.manifest {
		if strings.Contains(it.Properties, "nav") {
			if raw, err := b.readFile(b.resolve(it.Href)); err == nil {
				if toc := parseNav(raw, b.opfDir); len(toc) > 0 {
					b.TOC = toc
					return
				}
			}
		}
	}
	if it, ok := b.manifest[ncxID]; ok {
		if raw, err := b.readFile(b.resolve(it.Href)); err == nil {
			b.TOC = parseNCX(raw, b.opfDir)
		}
	}
}

// Chapter returns the decoded UTF-8 content of one spine item
func (b *Book) Chapter(index int) ([]byte, error) {
	if index < 0 || index >= len(b.Spine) {
		return nil, fmt.Errorf("chapter %d out of range (spine has %d)", index, len(b.Spine))
	}
	raw, err := b.readFile(b.Spine[index].Href)
	if err != nil {
		return nil, fmt.Errorf("chapter %d: %w", index, err)
	}
	return toUTF8(raw)
}

// SpineIndex maps a TOC href back to its spine position, -1 if the
// target is not a spine document
func (b *Book) SpineIndex(href string) int {
	for i, it := range b.Spine {
		if it.Href == href {
			return i
		}
	}
	return -1
}

func (b *Book) Close() error {
	if b.rc == nil {
		return nil
	}
	err := b.rc.Close()
	b.rc = nil
	return err
}

func (b *Book) readFile(name string) ([]byte, error) {
	f, ok := b.files[name]
	if !ok {
		return nil, fmt.Errorf("%s: not in archive", name)
	}
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// resolve joins a manifest href onto the OPF directory and strips any
// fragment
func (b *Book) resolve(href string) string {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	href = unescapeHref(href)
	if b.opfDir == "." || b.opfDir == "" {
		return path.Clean(href)
	}
	return path.Clean(path.Join(b.opfDir, href))
}

func unescapeHref(s string) string {
	// Only %20 shows up in practice; full unescaping would also touch
	// legitimate percent signs in filenames
	return strings.ReplaceAll(s, "%20", " ")
}

func bookBase(p string) string {
	return strings.TrimSuffix(path.Base(p), path.Ext(p))
}

// decodeXML decodes with charset conversion for documents that declare
// a non-UTF-8 encoding
func decodeXML(raw []byte, v any) error {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.CharsetReader = charset.NewReaderLabel
	return dec.Decode(v)
}

// toUTF8 converts chapter bytes to UTF-8. A charset declared in the
// XML prolog or a meta tag wins; otherwise the sniffer decides.
func toUTF8(raw []byte) ([]byte, error) {
	if label := declaredCharset(raw); label != "" && !strings.EqualFold(label, "utf-8") {
		enc, err := htmlindex.Get(label)
		if err == nil && enc != nil {
			out, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), enc.NewDecoder()))
			if err != nil {
				return nil, fmt.Errorf("decode %s: %w", label, err)
			}
			return out, nil
		}
	}
	r, err := charset.NewReader(bytes.NewReader(raw), "text/html")
	if err != nil {
		return raw, nil // undetectable: pass through, the tokenizer copes
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("charset conversion: %w", err)
	}
	return out, nil
}

// declaredCharset pulls encoding="..." from an XML prolog in the first
// kilobyte, if present
func declaredCharset(raw []byte) string {
	head := raw
	if len(head) > 1024 {
		head = head[:1024]
	}
	i := bytes.Index(head, []byte("encoding="))
	if i < 0 {
		return ""
	}
	rest := head[i+len("encoding="):]
	if len(rest) < 2 || (rest[0] != '"' && rest[0] != '\'') {
		return ""
	}
	quote := rest[0]
	end := bytes.IndexByte(rest[1:], quote)
	if end < 0 {
		return ""
	}
	return string(rest[1 : 1+end])
}
