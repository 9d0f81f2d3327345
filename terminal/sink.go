package terminal

import (
	"bufio"
	"bytes"
	"io"
	"os"
)

// Sink is the engine's entire output boundary: write bytes, flush.
// The engine never reads from or probes the sink.
type Sink interface {
	io.Writer
	Flush() error
}

// writerSink buffers writes to an arbitrary writer
type writerSink struct {
	w *bufio.Writer
}

// NewStdoutSink returns a sink over standard output with a large
// buffer so a full-screen redraw coalesces into few syscalls
func NewStdoutSink() Sink {
	return &writerSink{w: bufio.NewWriterSize(os.Stdout, 128*1024)}
}

// NewWriterSink wraps any writer as a Sink
func NewWriterSink(w io.Writer) Sink {
	return &writerSink{w: bufio.NewWriterSize(w, 128*1024)}
}

func (s *writerSink) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

func (s *writerSink) Flush() error {
	return s.w.Flush()
}

// BufferSink collects output in memory for tests
type BufferSink struct {
	bytes.Buffer
	Flushes int
}

// Flush counts flushes and never fails
func (s *BufferSink) Flush() error {
	s.Flushes++
	return nil
}
