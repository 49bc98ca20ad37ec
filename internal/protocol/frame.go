package protocol

// frameScanner detects where one JSON value ends in a byte stream that
// carries no length prefix or delimiter. It tracks brace/bracket depth,
// ignoring structural characters that appear inside quoted strings and
// honoring backslash escapes so a literal `"` or `{` in string content
// never skews the count.
//
// The scanner is resumable: feed it successive chunks as they arrive
// off the socket. Getting the quote/escape tracking right is what keeps
// the receiver from either blocking forever on a frame it already has
// or parsing a truncated one.
type frameScanner struct {
	depth    int
	inString bool
	escaped  bool
	started  bool // saw the first opening brace/bracket
	complete bool
	badByte  bool // non-whitespace byte before any opener: can never frame
}

// feed consumes bytes until the current frame completes, returning how
// many bytes of b belong to the frame (including the closing brace).
// After complete is set, remaining bytes belong to the next frame and
// must stay buffered by the caller.
func (s *frameScanner) feed(b []byte) int {
	for i, c := range b {
		if s.complete || s.badByte {
			return i
		}

		if s.inString {
			switch {
			case s.escaped:
				s.escaped = false
			case c == '\\':
				s.escaped = true
			case c == '"':
				s.inString = false
			}
			continue
		}

		switch c {
		case '"':
			s.inString = true
		case '{', '[':
			s.started = true
			s.depth++
		case '}', ']':
			s.depth--
			if s.started && s.depth <= 0 {
				s.complete = true
				return i + 1
			}
		case ' ', '\t', '\r', '\n':
			// interstitial whitespace
		default:
			if !s.started {
				// Top-level scalars have no structural close; the
				// protocol only ever carries objects, so this stream
				// can never frame.
				s.badByte = true
				return i
			}
		}
	}
	return len(b)
}

// reset clears all scanner state for the next frame.
func (s *frameScanner) reset() {
	*s = frameScanner{}
}
