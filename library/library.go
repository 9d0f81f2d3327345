// Package library persists the book manifest and per-book reading
// positions in a SQLite database.
package library

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS books (
	id       INTEGER PRIMARY KEY,
	path     TEXT NOT NULL UNIQUE,
	title    TEXT NOT NULL,
	author   TEXT NOT NULL DEFAULT '',
	hash     TEXT NOT NULL,
	added_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS positions (
	book_id     INTEGER PRIMARY KEY REFERENCES books(id) ON DELETE CASCADE,
	spine_index INTEGER NOT NULL,
	line_offset INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);
`

// Library is the SQLite-backed store. Single-connection use from the
// event loop; no internal locking.
type Library struct {
	db *sql.DB
}

// BookRecord is one manifest row
type BookRecord struct {
	ID      int64
	Path    string
	Title   string
	Author  string
	Hash    string
	AddedAt time.Time
}

// Position is a saved reading location
type Position struct {
	SpineIndex int
	LineOffset int
	UpdatedAt  time.Time
}

// ErrNoPosition is returned when a book has never been read
var ErrNoPosition = errors.New("no saved position")

// Open creates or opens the database, applying the schema and WAL mode
func Open(path string) (*Library, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("library dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open library: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("library pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("library schema: %w", err)
	}
	return &Library{db: db}, nil
}

func (l *Library) Close() error {
	return l.db.Close()
}

// AddBook upserts the manifest row for a book path and returns its id.
// A changed hash (the file was replaced) updates the row in place.
func (l *Library) AddBook(path, title, author, hash string) (int64, error) {
	_, err := l.db.Exec(`
		INSERT INTO books (path, title, author, hash, added_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title = excluded.title,
			author = excluded.author,
			hash = excluded.hash`,
		path, title, author, hash, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("add book: %w", err)
	}
	var id int64
	if err := l.db.QueryRow(`SELECT id FROM books WHERE path = ?`, path).Scan(&id); err != nil {
		return 0, fmt.Errorf("add book: %w", err)
	}
	return id, nil
}

// Book looks up a manifest row by path
func (l *Library) Book(path string) (BookRecord, error) {
	var r BookRecord
	var added int64
	err := l.db.QueryRow(`
		SELECT id, path, title, author, hash, added_at
		FROM books WHERE path = ?`, path).
		Scan(&r.ID, &r.Path, &r.Title, &r.Author, &r.Hash, &added)
	if err != nil {
		return BookRecord{}, fmt.Errorf("lookup %s: %w", path, err)
	}
	r.AddedAt = time.Unix(added, 0)
	return r, nil
}

// Books lists the manifest, most recently added first
func (l *Library) Books() ([]BookRecord, error) {
	rows, err := l.db.Query(`
		SELECT id, path, title, author, hash, added_at
		FROM books ORDER BY added_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var out []BookRecord
	for rows.Next() {
		var r BookRecord
		var added int64
		if err := rows.Scan(&r.ID, &r.Path, &r.Title, &r.Author, &r.Hash, &added); err != nil {
			return nil, fmt.Errorf("list books: %w", err)
		}
		r.AddedAt = time.Unix(added, 0)
		out = append(out, r)
	}
	return out, rows.Err()
}

// SavePosition records where reading stopped
func (l *Library) SavePosition(bookID int64, spineIndex, lineOffset int) error {
	_, err := l.db.Exec(`
		INSERT INTO positions (book_id, spine_index, line_offset, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(book_id) DO UPDATE SET
			spine_index = excluded.spine_index,
			line_offset = excluded.line_offset,
			updated_at = excluded.updated_at`,
		bookID, spineIndex, lineOffset, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save position: %w", err)
	}
	return nil
}

// LoadPosition restores the saved location, ErrNoPosition if none
func (l *Library) LoadPosition(bookID int64) (Position, error) {
	var p Position
	var updated int64
	err := l.db.QueryRow(`
		SELECT spine_index, line_offset, updated_at
		FROM positions WHERE book_id = ?`, bookID).
		Scan(&p.SpineIndex, &p.LineOffset, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Position{}, ErrNoPosition
	}
	if err != nil {
		return Position{}, fmt.Errorf("load position: %w", err)
	}
	p.UpdatedAt = time.Unix(updated, 0)
	return p, nil
}

// HashFile fingerprints a book file so a replaced file with the same
// path is detectable
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
