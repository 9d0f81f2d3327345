// Package terminal provides direct ANSI terminal I/O without terminfo.
//
// The package has two halves. The input half is Decoder, an incremental
// tokenizer that turns a raw, possibly fragmented byte stream into
// discrete tokens (characters, escape sequences, mouse reports), with
// monotonic-deadline disambiguation of a lone ESC press versus the
// start of an escape sequence. The output half is Frame, a styled cell
// grid with wide-glyph handling, and Renderer, which diffs consecutive
// frames row by row and writes only the changed rows to a Sink.
//
// Both halves are pure transformations over caller-supplied bytes and
// timestamps: nothing here blocks, reads stdin, or calls the clock.
// Console and SizeProbe cover the host-side concerns (raw mode, mouse
// reporting, window size) for unix-like systems with xterm-compatible
// terminals.
package terminal
