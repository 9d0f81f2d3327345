package terminal

import (
	"strings"
	"testing"
)

func TestFirstFrameEmitsRows(t *testing.T) {
	sink := &BufferSink{}
	r := NewRenderer(sink)
	r.StartFrame(10, 2)
	r.Write(0, 0, "hi")
	if err := r.EndFrame(); err != nil {
		t.Fatal(err)
	}
	out := sink.String()
	if !strings.Contains(out, "\x1b[1;1H\x1b[2Khi") {
		t.Fatalf("output %q missing move+erase+content for row 0", out)
	}
	// Row 1 is unknown on the first pass and gets cleared too
	if !strings.Contains(out, "\x1b[2;1H\x1b[2K") {
		t.Fatalf("output %q missing clear for untouched row 1", out)
	}
}

func TestIdenticalFrameEmitsNothing(t *testing.T) {
	sink := &BufferSink{}
	r := NewRenderer(sink)

	r.StartFrame(10, 2)
	r.Write(0, 0, "hello")
	if err := r.EndFrame(); err != nil {
		t.Fatal(err)
	}

	sink.Reset()
	r.StartFrame(10, 2)
	r.Write(0, 0, "hello")
	if err := r.EndFrame(); err != nil {
		t.Fatal(err)
	}
	if got := sink.Len(); got != 0 {
		t.Fatalf("identical frame wrote %d bytes: %q", got, sink.String())
	}
}

func TestOnlyChangedRowsEmit(t *testing.T) {
	sink := &BufferSink{}
	r := NewRenderer(sink)

	r.StartFrame(20, 3)
	r.Write(0, 0, "alpha")
	r.Write(1, 0, "beta")
	r.EndFrame()

	sink.Reset()
	r.StartFrame(20, 3)
	r.Write(0, 0, "alpha")
	r.Write(1, 0, "BETA")
	r.EndFrame()

	out := sink.String()
	if strings.Contains(out, "\x1b[1;1H") {
		t.Fatalf("unchanged row 0 was rewritten: %q", out)
	}
	if !strings.Contains(out, "\x1b[2;1H\x1b[2KBETA") {
		t.Fatalf("changed row 1 missing from output: %q", out)
	}
	if strings.Contains(out, "\x1b[3;1H") {
		t.Fatalf("unchanged row 2 was rewritten: %q", out)
	}
}

func TestRowBecomingBlankEmitsBareClear(t *testing.T) {
	sink := &BufferSink{}
	r := NewRenderer(sink)

	r.StartFrame(10, 1)
	r.Write(0, 0, "gone")
	r.EndFrame()

	sink.Reset()
	r.StartFrame(10, 1)
	r.EndFrame()

	if got := sink.String(); got != "\x1b[1;1H\x1b[2K" {
		t.Fatalf("blanked row output = %q", got)
	}
}

func TestResizeInvalidatesCache(t *testing.T) {
	sink := &BufferSink{}
	r := NewRenderer(sink)

	r.StartFrame(10, 2)
	r.Write(0, 0, "same")
	r.EndFrame()

	sink.Reset()
	r.StartFrame(12, 2) // width change: every row must rewrite
	r.Write(0, 0, "same")
	r.EndFrame()

	out := sink.String()
	if !strings.Contains(out, "\x1b[1;1H") || !strings.Contains(out, "\x1b[2;1H") {
		t.Fatalf("resize did not rewrite all rows: %q", out)
	}
}

func TestRawAlwaysEmitted(t *testing.T) {
	sink := &BufferSink{}
	r := NewRenderer(sink)

	r.StartFrame(10, 1)
	r.Write(0, 0, "x")
	r.Raw(SyncUpdateBegin)
	r.EndFrame()

	// Identical frame: only the raw sequence goes out
	sink.Reset()
	r.StartFrame(10, 1)
	r.Write(0, 0, "x")
	r.Raw(SyncUpdateBegin)
	r.EndFrame()

	if got := sink.String(); got != SyncUpdateBegin {
		t.Fatalf("got %q, want only the raw sequence", got)
	}

	// Raw is frame-scoped: not re-sent when not queued
	sink.Reset()
	r.StartFrame(10, 1)
	r.Write(0, 0, "x")
	r.EndFrame()
	if sink.Len() != 0 {
		t.Fatalf("stale raw sequence leaked: %q", sink.String())
	}
}

func TestRawPrecedesRowOutput(t *testing.T) {
	sink := &BufferSink{}
	r := NewRenderer(sink)
	r.StartFrame(10, 1)
	r.Write(0, 0, "y")
	r.Raw(SyncUpdateBegin)
	r.EndFrame()

	out := sink.String()
	if !strings.HasPrefix(out, SyncUpdateBegin) {
		t.Fatalf("raw sequence not first: %q", out)
	}
}

func TestInvalidateForcesRewrite(t *testing.T) {
	sink := &BufferSink{}
	r := NewRenderer(sink)
	r.StartFrame(10, 1)
	r.Write(0, 0, "z")
	r.EndFrame()

	r.Invalidate()
	sink.Reset()
	r.StartFrame(10, 1)
	r.Write(0, 0, "z")
	r.EndFrame()
	if sink.Len() == 0 {
		t.Fatal("invalidated cache produced no rewrite")
	}
}

func TestMarkDirtySingleRow(t *testing.T) {
	sink := &BufferSink{}
	r := NewRenderer(sink)
	r.StartFrame(10, 2)
	r.Write(0, 0, "a")
	r.Write(1, 0, "b")
	r.EndFrame()

	r.MarkDirty(1)
	sink.Reset()
	r.StartFrame(10, 2)
	r.Write(0, 0, "a")
	r.Write(1, 0, "b")
	r.EndFrame()

	out := sink.String()
	if strings.Contains(out, "\x1b[1;1H") {
		t.Fatalf("clean row 0 rewritten: %q", out)
	}
	if !strings.Contains(out, "\x1b[2;1H\x1b[2Kb") {
		t.Fatalf("dirty row 1 not rewritten: %q", out)
	}
}

func TestWriteDirectBypassesCache(t *testing.T) {
	sink := &BufferSink{}
	r := NewRenderer(sink)
	r.StartFrame(10, 1)
	r.Write(0, 0, "cached")
	r.EndFrame()

	sink.Reset()
	if err := r.WriteDirect(0, 2, "now"); err != nil {
		t.Fatal(err)
	}
	if got := sink.String(); got != "\x1b[1;3Hnow" {
		t.Fatalf("direct write = %q", got)
	}

	// The cache still believes the old content; an identical frame
	// emits nothing, which is exactly the documented hazard
	sink.Reset()
	r.StartFrame(10, 1)
	r.Write(0, 0, "cached")
	r.EndFrame()
	if sink.Len() != 0 {
		t.Fatalf("cache unexpectedly dirtied: %q", sink.String())
	}
}

func TestEndToEndScenario(t *testing.T) {
	// Smoke scenario: decode a mixed input stream, draw, redraw unchanged
	d := NewDecoder()
	d.Feed([]byte("\x1b[1;5D"))
	tok, ok := d.NextToken(t0)
	if !ok || tok.Kind != TokenCSI || tok.Text != "\x1b[1;5D" {
		t.Fatalf("ctrl-left: %v %q", tok.Kind, tok.Text)
	}
	d.Feed([]byte{0xc3, 0xa9})
	tok, _ = d.NextToken(t0)
	if tok.Kind != TokenChar || tok.Text != "é" {
		t.Fatalf("é: %v %q", tok.Kind, tok.Text)
	}
	d.Feed([]byte("\x1b[<0;10;5M"))
	tok, _ = d.NextToken(t0)
	if tok.Kind != TokenCSI || tok.Text != "\x1b[<0;10;5M" {
		t.Fatalf("mouse: %v %q", tok.Kind, tok.Text)
	}

	sink := &BufferSink{}
	r := NewRenderer(sink)
	r.StartFrame(10, 2)
	r.Write(0, 0, "hello")
	r.EndFrame()
	if sink.Len() == 0 {
		t.Fatal("first frame wrote nothing")
	}

	sink.Reset()
	r.StartFrame(10, 2)
	r.Write(0, 0, "hello")
	r.EndFrame()
	if sink.Len() != 0 {
		t.Fatalf("second identical frame wrote %q", sink.String())
	}
}
