package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}
	def := Default()
	if cfg.TabStop != def.TabStop || cfg.SequenceTimeoutMs != def.SequenceTimeoutMs {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadPartialFileLayersOverDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(p, []byte(`{"sequence_timeout_ms": 250, "mouse": false}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SequenceTimeoutMs != 250 || cfg.Mouse {
		t.Fatalf("cfg = %+v", cfg)
	}
	// Unspecified fields keep defaults
	if cfg.TabStop != 8 || cfg.EscapeTimeoutMs != 50 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadMalformedFails(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(p, []byte(`{not json`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(p); err == nil {
		t.Fatal("malformed config loaded")
	}
}

func TestSanitizeRejectsAbsurdValues(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(p, []byte(`{"tab_stop": 200, "margin": -3}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TabStop != 8 || cfg.Margin != 2 {
		t.Fatalf("sanitize failed: %+v", cfg)
	}
}

func TestTimeoutConversion(t *testing.T) {
	c := Config{EscapeTimeoutMs: 75, SequenceTimeoutMs: 0}
	if c.EscapeTimeout() != 75*time.Millisecond {
		t.Fatalf("escape timeout = %v", c.EscapeTimeout())
	}
	if c.SequenceTimeout() != 500*time.Millisecond {
		t.Fatalf("zero sequence timeout = %v", c.SequenceTimeout())
	}
}

func TestWatchDeliversReload(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "config.json")
	if err := os.WriteFile(p, []byte(`{"tab_stop": 4}`), 0o644); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	defer close(done)
	ch, err := Watch(p, done)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(p, []byte(`{"tab_stop": 2}`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-ch:
		if cfg.TabStop != 2 {
			t.Fatalf("reloaded cfg = %+v", cfg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload delivered")
	}
}

func TestWatchIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "config.json")
	if err := os.WriteFile(p, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	defer close(done)
	ch, err := Watch(p, done)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-ch:
		t.Fatalf("sibling write delivered config %+v", cfg)
	case <-time.After(300 * time.Millisecond):
	}
}
