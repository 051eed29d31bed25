package lang

// Lookahead is implemented by token streams that can peek beyond the
// current token.
type Lookahead interface {
	// PeekAt returns the token n positions past the current one without
	// consuming anything. PeekAt(0) is the current token.
	PeekAt(n int) Token
}

// Stream is a cursor over a token slice with arbitrary lookahead.
//
// The zero Stream is an empty stream positioned at end of input.
// A Stream must not be used concurrently.
type Stream struct {
	toks []Token
	pos  int
}

// NewStream returns a Stream over toks.
// The slice must end with a [KindEOF] token, as returned by [Tokenize];
// a missing terminator is appended.
func NewStream(toks []Token) *Stream {
	if n := len(toks); n == 0 || toks[n-1].Kind != KindEOF {
		var end Position
		if n > 0 {
			end = toks[n-1].Pos
		}

		toks = append(toks[:n:n], Token{Kind: KindEOF, Pos: end})
	}

	return &Stream{toks: toks}
}

// NewStreamFromString tokenizes src (through the token cache) and returns a
// Stream over the result.
func NewStreamFromString(src string) (*Stream, error) {
	toks, err := TokenizeCached(src)
	if err != nil {
		return nil, err
	}

	return NewStream(toks), nil
}

// Peek returns the current token without consuming it.
func (s *Stream) Peek() Token { return s.PeekAt(0) }

// PeekAt returns the token n positions past the current one.
// Positions past the end yield the EOF token.
func (s *Stream) PeekAt(n int) Token {
	if len(s.toks) == 0 {
		return Token{Kind: KindEOF}
	}

	i := s.pos + n
	if i >= len(s.toks) {
		i = len(s.toks) - 1
	}

	if i < 0 {
		i = 0
	}

	return s.toks[i]
}

// Next consumes and returns the current token.
// At end of input it keeps returning the EOF token.
func (s *Stream) Next() Token {
	tok := s.Peek()
	if tok.Kind != KindEOF {
		s.pos++
	}

	return tok
}

// PeekPrev returns the most recently consumed token.
// Before any token is consumed it returns an [KindIllegal] token located at
// the start of the first token.
func (s *Stream) PeekPrev() Token {
	if s.pos == 0 {
		return Token{Pos: s.PeekAt(0).Pos}
	}

	return s.toks[s.pos-1]
}

// Done reports whether the stream is positioned at end of input.
func (s *Stream) Done() bool { return s.Peek().Kind == KindEOF }

// SkipPast consumes tokens up to and including the first token of kind k,
// or up to end of input. It reports whether such a token was consumed.
func (s *Stream) SkipPast(k Kind) bool {
	for !s.Done() {
		if s.Next().Kind == k {
			return true
		}
	}

	return false
}
