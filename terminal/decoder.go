package terminal

import (
	"time"
)

const (
	// DefaultEscapeTimeout is the wait after a lone ESC before it is
	// reported as an Escape token rather than a sequence start
	DefaultEscapeTimeout = 50 * time.Millisecond

	// DefaultSequenceTimeout bounds any other incomplete multi-byte
	// sequence. Guards against terminals that send truncated or
	// non-standard sequences. Tunable via WithSequenceTimeout.
	DefaultSequenceTimeout = 500 * time.Millisecond
)

const (
	byteESC     = 0x1b
	byteCSI8    = 0x9b // 8-bit CSI introducer
	byteST8     = 0x9c // 8-bit string terminator
	byteBEL     = 0x07
	replacement = "�"
)

// Decoder incrementally tokenizes raw terminal input. Bytes are
// appended with Feed; NextToken produces at most one token per call
// without blocking. Timestamps are supplied by the caller, so the
// decoder never reads a clock and is deterministic under test. Use a
// monotonic source (time.Now carries one); wall-clock adjustments must
// not affect disambiguation.
//
// Invariant: every fed byte is consumed into exactly one token.
type Decoder struct {
	buf []byte

	// pendingSince is the time the buffered prefix first failed to
	// form a token. Zero when no partial sequence is pending. Reset by
	// Feed: new bytes mean a new chance to parse.
	pendingSince time.Time

	escTimeout time.Duration
	seqTimeout time.Duration
}

// DecoderOption configures a Decoder
type DecoderOption func(*Decoder)

// WithEscapeTimeout sets the lone-ESC disambiguation window
func WithEscapeTimeout(d time.Duration) DecoderOption {
	return func(dec *Decoder) {
		if d > 0 {
			dec.escTimeout = d
		}
	}
}

// WithSequenceTimeout sets the incomplete-sequence degrade window
func WithSequenceTimeout(d time.Duration) DecoderOption {
	return func(dec *Decoder) {
		if d > 0 {
			dec.seqTimeout = d
		}
	}
}

// NewDecoder creates a decoder with default timeouts
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{
		buf:        make([]byte, 0, 256),
		escTimeout: DefaultEscapeTimeout,
		seqTimeout: DefaultSequenceTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Feed appends raw bytes. Never fails; a nil or empty slice is a no-op.
// Arrival granularity is irrelevant: one byte at a time and one large
// chunk produce identical token streams.
func (d *Decoder) Feed(p []byte) {
	if len(p) == 0 {
		return
	}
	d.buf = append(d.buf, p...)
	d.pendingSince = time.Time{}
}

// Buffered reports how many bytes await tokenization
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// NextToken attempts to produce one token from buffered bytes. It
// returns false when more bytes are needed; the pending window starts
// at that moment. If now is past the pending deadline the first
// buffered byte is degraded to the best single-token interpretation
// and the rest re-parses from scratch on the next call.
func (d *Decoder) NextToken(now time.Time) (Token, bool) {
	if len(d.buf) == 0 {
		d.pendingSince = time.Time{}
		return Token{}, false
	}

	tok, n := d.parse()
	if n > 0 {
		d.consume(n)
		d.pendingSince = time.Time{}
		return tok, true
	}

	if d.pendingSince.IsZero() {
		d.pendingSince = now
		return Token{}, false
	}
	if now.Sub(d.pendingSince) >= d.window() {
		tok = d.degrade()
		d.pendingSince = time.Time{}
		return tok, true
	}
	return Token{}, false
}

// PendingTimeout reports how long the caller may block before calling
// NextToken again to force a timeout degrade. False means nothing is
// pending and the caller may block indefinitely.
func (d *Decoder) PendingTimeout(now time.Time) (time.Duration, bool) {
	if d.pendingSince.IsZero() || len(d.buf) == 0 {
		return 0, false
	}
	rem := d.pendingSince.Add(d.window()).Sub(now)
	if rem < 0 {
		rem = 0
	}
	return rem, true
}

// window selects the active timeout: short for a sole buffered ESC,
// long for any other incomplete sequence
func (d *Decoder) window() time.Duration {
	if len(d.buf) == 1 && d.buf[0] == byteESC {
		return d.escTimeout
	}
	return d.seqTimeout
}

// degrade consumes exactly the first buffered byte
func (d *Decoder) degrade() Token {
	b := d.buf[0]
	d.consume(1)
	switch b {
	case byteESC:
		return Token{Kind: TokenEscape, Text: "\x1b"}
	case byteCSI8:
		// Canonical stub so downstream sees the ESC [ form
		return Token{Kind: TokenCSI, Text: "\x1b["}
	default:
		return Token{Kind: TokenReplacement, Text: replacement}
	}
}

// consume removes n tokenized bytes from the front of the buffer
func (d *Decoder) consume(n int) {
	if n >= len(d.buf) {
		d.buf = d.buf[:0]
		return
	}
	copy(d.buf, d.buf[n:])
	d.buf = d.buf[:len(d.buf)-n]
}

// parse attempts one token from the buffer head. Returns consumed byte
// count, 0 meaning incomplete.
func (d *Decoder) parse() (Token, int) {
	switch d.buf[0] {
	case byteESC:
		return d.parseEscape()
	case byteCSI8:
		body, n := scanCSI(d.buf, 1)
		if n == 0 {
			return Token{}, 0
		}
		return Token{Kind: TokenCSI, Text: "\x1b[" + body}, n
	default:
		return d.parseChar(0, TokenChar)
	}
}

// parseEscape handles everything after a leading ESC
func (d *Decoder) parseEscape() (Token, int) {
	if len(d.buf) < 2 {
		return Token{}, 0
	}
	switch d.buf[1] {
	case byteESC:
		// Double ESC: consume one, emit Escape. Deliberately not
		// collapsed into Alt+Escape so that pressing Escape twice
		// stays distinguishable.
		return Token{Kind: TokenEscape, Text: "\x1b"}, 1
	case '[':
		body, n := scanCSI(d.buf, 2)
		if n == 0 {
			return Token{}, 0
		}
		return Token{Kind: TokenCSI, Text: "\x1b[" + body}, n
	case 'O':
		if len(d.buf) < 3 {
			return Token{}, 0
		}
		return Token{Kind: TokenSS3, Text: string(d.buf[:3])}, 3
	case ']', 'P', 'X', '^', '_':
		// String sequence. Only OSC (ESC ]) may end with BEL.
		n := scanString(d.buf, d.buf[1] == ']')
		if n == 0 {
			return Token{}, 0
		}
		return Token{Kind: TokenString, Text: string(d.buf[:n])}, n
	default:
		// Alt+character: one UTF-8 cluster after the ESC
		tok, n := d.parseChar(1, TokenAltChar)
		if n == 0 {
			return Token{}, 0
		}
		return tok, n
	}
}

// parseChar decodes one UTF-8 encoded character at offset, validating
// continuation ranges and rejecting overlong and surrogate encodings.
// Invalid input consumes a single byte and yields a replacement token,
// guaranteeing forward progress on corrupt streams.
func (d *Decoder) parseChar(offset int, kind TokenKind) (Token, int) {
	s, size, ok, incomplete := decodeUTF8(d.buf[offset:])
	if incomplete {
		return Token{}, 0
	}
	if !ok {
		return Token{Kind: TokenReplacement, Text: replacement}, offset + size
	}
	return Token{Kind: kind, Text: s}, offset + size
}

// scanCSI scans for a CSI final byte (0x40-0x7E) starting at offset
// (the byte after the introducer). Returns the body including the
// final byte and the total bytes consumed, 0 if incomplete. The scan
// is byte-wise and makes no ASCII assumption about embedded content.
func scanCSI(buf []byte, offset int) (string, int) {
	for i := offset; i < len(buf); i++ {
		if buf[i] >= 0x40 && buf[i] <= 0x7e {
			return string(buf[offset : i+1]), i + 1
		}
	}
	return "", 0
}

// scanString scans for a string-sequence terminator: ST (0x9C or
// ESC \) always, BEL only when allowBEL. Returns total bytes consumed
// including the terminator, 0 if incomplete.
func scanString(buf []byte, allowBEL bool) int {
	for i := 2; i < len(buf); i++ {
		switch buf[i] {
		case byteBEL:
			if allowBEL {
				return i + 1
			}
		case byteST8:
			return i + 1
		case byteESC:
			if i+1 >= len(buf) {
				return 0
			}
			if buf[i+1] == '\\' {
				return i + 2
			}
			// ESC followed by anything else is sequence content
		}
	}
	return 0
}

// decodeUTF8 decodes one character from the front of p. It reports
// ok=false with size=1 for any malformed prefix, and incomplete=true
// when a valid prefix simply needs more bytes.
func decodeUTF8(p []byte) (s string, size int, ok bool, incomplete bool) {
	if len(p) == 0 {
		return "", 0, false, true
	}
	b := p[0]
	if b < 0x80 {
		return string(p[:1]), 1, true, false
	}

	var n int
	var lo, hi byte = 0x80, 0xbf
	switch {
	case b >= 0xc2 && b <= 0xdf:
		n = 2
	case b == 0xe0:
		n, lo = 3, 0xa0 // reject overlong
	case b >= 0xe1 && b <= 0xec:
		n = 3
	case b == 0xed:
		n, hi = 3, 0x9f // reject surrogates
	case b >= 0xee && b <= 0xef:
		n = 3
	case b == 0xf0:
		n, lo = 4, 0x90 // reject overlong
	case b >= 0xf1 && b <= 0xf3:
		n = 4
	case b == 0xf4:
		n, hi = 4, 0x8f // reject > U+10FFFF
	default:
		// 0x80-0xC1 and 0xF5-0xFF can never start a character
		return "", 1, false, false
	}

	if len(p) < n {
		// Validate the continuation bytes we do have so corrupt input
		// fails now instead of waiting for a timeout
		for i := 1; i < len(p); i++ {
			min, max := byte(0x80), byte(0xbf)
			if i == 1 {
				min, max = lo, hi
			}
			if p[i] < min || p[i] > max {
				return "", 1, false, false
			}
		}
		return "", 0, false, true
	}
	for i := 1; i < n; i++ {
		min, max := byte(0x80), byte(0xbf)
		if i == 1 {
			min, max = lo, hi
		}
		if p[i] < min || p[i] > max {
			return "", 1, false, false
		}
	}
	return string(p[:n]), n, true, false
}
