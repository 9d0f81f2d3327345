package terminal

import (
	"bytes"
)

// Renderer reconciles successive Frames against what was last flushed
// to the sink, emitting escape output only for rows whose rendered
// string changed. The cache holds one rendered string per physical
// row; a nil entry means the row's on-screen content is unknown and
// must be rewritten.
type Renderer struct {
	sink Sink

	frame  *Frame
	prev   []*string
	width  int
	height int

	raw bytes.Buffer // frame-scoped, emitted first and unconditionally
	out bytes.Buffer
}

// NewRenderer creates a renderer writing to the given sink
func NewRenderer(sink Sink) *Renderer {
	return &Renderer{sink: sink}
}

// StartFrame begins a render pass at the given dimensions. A dimension
// change discards the previous-row cache wholesale, forcing every row
// to be rewritten regardless of content equality.
func (r *Renderer) StartFrame(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	if width != r.width || height != r.height || r.prev == nil {
		r.width = width
		r.height = height
		r.prev = make([]*string, height)
		r.frame = NewFrame(width, height)
	} else {
		r.frame.Clear()
	}
	r.raw.Reset()
}

// Frame exposes the active frame, nil outside a pass
func (r *Renderer) Frame() *Frame {
	return r.frame
}

// Write places styled text into the active frame (see Frame.Write).
// A no-op before the first StartFrame.
func (r *Renderer) Write(row, col int, text string) {
	if r.frame == nil {
		return
	}
	r.frame.Write(row, col, text)
}

// Raw queues a non-cell control sequence (e.g. a synchronized-update
// marker) for this frame. Raw sequences are emitted ahead of all row
// output and are re-sent every frame they are queued, bypassing the
// diff entirely.
func (r *Renderer) Raw(seq string) {
	r.raw.WriteString(seq)
}

// EndFrame diffs the frame against the cached previous rows and
// flushes the minimal update through the sink in one write. For each
// changed row it emits cursor-move, erase-line, then the row content
// if any. An unchanged frame produces zero bytes beyond queued raw
// sequences.
func (r *Renderer) EndFrame() error {
	if r.frame == nil {
		return nil
	}

	r.out.Reset()
	if r.raw.Len() > 0 {
		r.out.Write(r.raw.Bytes())
		r.raw.Reset()
	}

	rows := r.frame.RenderedRows()
	for i := range rows {
		if i < len(r.prev) && r.prev[i] != nil && *r.prev[i] == rows[i] {
			continue
		}
		appendCursorPos(&r.out, i, 0)
		r.out.WriteString(csiEraseLine)
		if rows[i] != "" {
			r.out.WriteString(rows[i])
		}
		if i < len(r.prev) {
			s := rows[i]
			r.prev[i] = &s
		}
	}

	if r.out.Len() > 0 {
		if _, err := r.sink.Write(r.out.Bytes()); err != nil {
			return err
		}
	}
	return r.sink.Flush()
}

// Invalidate discards the previous-row cache; the next EndFrame
// rewrites every row. Call after anything else has written to the
// terminal behind the renderer's back.
func (r *Renderer) Invalidate() {
	for i := range r.prev {
		r.prev[i] = nil
	}
}

// MarkDirty invalidates a single row of the cache
func (r *Renderer) MarkDirty(row int) {
	if row >= 0 && row < len(r.prev) {
		r.prev[row] = nil
	}
}

// WriteDirect immediately writes text at a position, bypassing the
// frame and the previous-row cache: cursor-move plus the text, flushed
// now. This exists for call sites that intentionally want an uncached
// write, e.g. painting a single scrolled-in line after a hardware
// scroll shift. It desynchronizes the cache for the affected rows —
// the caller is responsible for MarkDirty afterward.
func (r *Renderer) WriteDirect(row, col int, text string) error {
	var b bytes.Buffer
	appendCursorPos(&b, row, col)
	b.WriteString(text)
	if _, err := r.sink.Write(b.Bytes()); err != nil {
		return err
	}
	return r.sink.Flush()
}
