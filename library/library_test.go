package library

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func openTemp(t *testing.T) *Library {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "folio.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestAddAndLookupBook(t *testing.T) {
	l := openTemp(t)
	id, err := l.AddBook("/books/a.epub", "Alpha", "Someone", "h1")
	if err != nil {
		t.Fatal(err)
	}
	if id == 0 {
		t.Fatal("zero id")
	}
	r, err := l.Book("/books/a.epub")
	if err != nil {
		t.Fatal(err)
	}
	if r.ID != id || r.Title != "Alpha" || r.Author != "Someone" || r.Hash != "h1" {
		t.Fatalf("record = %+v", r)
	}
}

func TestAddBookUpsertKeepsID(t *testing.T) {
	l := openTemp(t)
	id1, err := l.AddBook("/books/a.epub", "Alpha", "", "h1")
	if err != nil {
		t.Fatal(err)
	}
	id2, err := l.AddBook("/books/a.epub", "Alpha (fixed)", "Someone", "h2")
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 {
		t.Fatalf("upsert changed id: %d -> %d", id1, id2)
	}
	r, err := l.Book("/books/a.epub")
	if err != nil {
		t.Fatal(err)
	}
	if r.Title != "Alpha (fixed)" || r.Hash != "h2" {
		t.Fatalf("upsert did not update: %+v", r)
	}
}

func TestBooksOrdering(t *testing.T) {
	l := openTemp(t)
	if _, err := l.AddBook("/books/a.epub", "A", "", "h"); err != nil {
		t.Fatal(err)
	}
	if _, err := l.AddBook("/books/b.epub", "B", "", "h"); err != nil {
		t.Fatal(err)
	}
	books, err := l.Books()
	if err != nil {
		t.Fatal(err)
	}
	if len(books) != 2 {
		t.Fatalf("books = %+v", books)
	}
	// Same second: id tiebreak puts the later insert first
	if books[0].Title != "B" {
		t.Fatalf("ordering = %q, %q", books[0].Title, books[1].Title)
	}
}

func TestPositionRoundTrip(t *testing.T) {
	l := openTemp(t)
	id, err := l.AddBook("/books/a.epub", "A", "", "h")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := l.LoadPosition(id); !errors.Is(err, ErrNoPosition) {
		t.Fatalf("fresh book position err = %v", err)
	}

	if err := l.SavePosition(id, 3, 120); err != nil {
		t.Fatal(err)
	}
	p, err := l.LoadPosition(id)
	if err != nil {
		t.Fatal(err)
	}
	if p.SpineIndex != 3 || p.LineOffset != 120 {
		t.Fatalf("position = %+v", p)
	}

	// Save again overwrites
	if err := l.SavePosition(id, 4, 0); err != nil {
		t.Fatal(err)
	}
	p, err = l.LoadPosition(id)
	if err != nil {
		t.Fatal(err)
	}
	if p.SpineIndex != 4 || p.LineOffset != 0 {
		t.Fatalf("overwritten position = %+v", p)
	}
}

func TestLookupMissingBook(t *testing.T) {
	l := openTemp(t)
	if _, err := l.Book("/no/such.epub"); err == nil {
		t.Fatal("missing book lookup succeeded")
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(filepath.Join(dir, "nested", "deep", "folio.db"))
	if err != nil {
		t.Fatal(err)
	}
	l.Close()
	if _, err := os.Stat(filepath.Join(dir, "nested", "deep")); err != nil {
		t.Fatal(err)
	}
}

func TestHashFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(p, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}
	h1, err := HashFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if len(h1) != 64 {
		t.Fatalf("hash = %q", h1)
	}
	if err := os.WriteFile(p, []byte("changed"), 0o644); err != nil {
		t.Fatal(err)
	}
	h2, err := HashFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if h1 == h2 {
		t.Fatal("hash did not change with content")
	}
	if _, err := HashFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("hashing a missing file succeeded")
	}
}
