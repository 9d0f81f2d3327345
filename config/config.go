// Package config loads the reader's JSON configuration, with defaults
// for anything absent and live reload through fsnotify.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Config is the on-disk configuration. All fields are optional in the
// file; zero values take the defaults.
type Config struct {
	// Timeouts in milliseconds for the input decoder
	EscapeTimeoutMs   int `json:"escape_timeout_ms"`
	SequenceTimeoutMs int `json:"sequence_timeout_ms"`

	TabStop int  `json:"tab_stop"`
	Mouse   bool `json:"mouse"`

	// Margin columns on each side of the text column
	Margin int `json:"margin"`
	// MaxTextWidth caps the text column; 0 means use the full window
	MaxTextWidth int `json:"max_text_width"`

	LibraryPath string `json:"library_path"`
	LogPath     string `json:"log_path"`

	Theme Theme `json:"theme"`
}

// Theme holds 256-palette color indices; -1 selects the terminal
// default
type Theme struct {
	StatusFg  int `json:"status_fg"`
	StatusBg  int `json:"status_bg"`
	HeadingFg int `json:"heading_fg"`
	AccentFg  int `json:"accent_fg"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		EscapeTimeoutMs:   50,
		SequenceTimeoutMs: 500,
		TabStop:           8,
		Mouse:             true,
		Margin:            2,
		MaxTextWidth:      88,
		LibraryPath:       defaultStatePath("library.db"),
		LogPath:           defaultStatePath("folio.log"),
		Theme: Theme{
			StatusFg:  -1,
			StatusBg:  237,
			HeadingFg: 110,
			AccentFg:  214,
		},
	}
}

// EscapeTimeout converts the configured value, falling back on
// non-positive input
func (c Config) EscapeTimeout() time.Duration {
	if c.EscapeTimeoutMs <= 0 {
		return 50 * time.Millisecond
	}
	return time.Duration(c.EscapeTimeoutMs) * time.Millisecond
}

func (c Config) SequenceTimeout() time.Duration {
	if c.SequenceTimeoutMs <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.SequenceTimeoutMs) * time.Millisecond
}

// Path returns the config file location, honoring XDG_CONFIG_HOME
func Path() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "folio", "config.json")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(home, ".config", "folio", "config.json")
}

func defaultStatePath(name string) string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "folio", name)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".local", "state", "folio", name)
}

// Load reads the file at path, layering it over the defaults. A
// missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Default(), fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.sanitize()
	return cfg, nil
}

func (c *Config) sanitize() {
	if c.TabStop < 1 || c.TabStop > 16 {
		c.TabStop = 8
	}
	if c.Margin < 0 || c.Margin > 16 {
		c.Margin = 2
	}
	if c.MaxTextWidth < 0 {
		c.MaxTextWidth = 0
	}
}

// Watch reloads the config whenever the file changes and delivers the
// result on the returned channel. Editors that replace the file
// (rename-over) are handled by re-watching the parent directory. The
// watcher stops when done is closed.
func Watch(path string, done <-chan struct{}) (<-chan Config, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	out := make(chan Config, 1)
	go func() {
		defer w.Close()
		defer close(out)
		var pending <-chan time.Time
		for {
			select {
			case <-done:
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Name != path {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				// Debounce editor write bursts
				pending = time.After(100 * time.Millisecond)
			case <-pending:
				pending = nil
				cfg, err := Load(path)
				if err != nil {
					continue // keep the last good config
				}
				select {
				case out <- cfg:
				default:
					// Drop if the loop is behind; next event retries
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return out, nil
}
