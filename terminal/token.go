package terminal

// TokenKind distinguishes decoded input token categories
type TokenKind uint8

const (
	// TokenChar is one printable character (ASCII or multi-byte UTF-8)
	TokenChar TokenKind = iota

	// TokenAltChar is a character preceded by a lone ESC (Alt+key)
	TokenAltChar

	// TokenCSI is a complete control sequence in canonical ESC [ form.
	// 8-bit CSI (0x9B) input is normalized to the ESC [ prefix so
	// downstream matching has one representation.
	TokenCSI

	// TokenSS3 is ESC O plus one byte (alternate cursor-key encoding)
	TokenSS3

	// TokenString is an OSC/DCS/SOS/PM/APC sequence including its
	// introducer and terminator
	TokenString

	// TokenEscape is a bare ESC with no follow-up within the
	// disambiguation window, or one half of a double ESC press
	TokenEscape

	// TokenReplacement is emitted for invalid UTF-8 or a sequence that
	// timed out mid-parse
	TokenReplacement
)

// Token is one decoded input unit. Text holds the decoded character for
// TokenChar/TokenAltChar and the full raw sequence bytes otherwise.
type Token struct {
	Kind TokenKind
	Text string
}

// String returns a human-readable kind name for diagnostics
func (k TokenKind) String() string {
	switch k {
	case TokenChar:
		return "Char"
	case TokenAltChar:
		return "AltChar"
	case TokenCSI:
		return "CSI"
	case TokenSS3:
		return "SS3"
	case TokenString:
		return "String"
	case TokenEscape:
		return "Escape"
	case TokenReplacement:
		return "Replacement"
	default:
		return "Unknown"
	}
}
