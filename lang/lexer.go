package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Tokenize scans src and returns its tokens, terminated by a single
// [KindEOF] token. Whitespace and comments (//, # and /* */) are skipped.
//
// The keywords true and false scan as [KindBool]; inf and nan, optionally
// signed, scan as [KindFloat]. Every other word is a [KindIdent].
func Tokenize(src string) ([]Token, error) {
	lx := lexer{input: []byte(src), line: 1, col: 1}

	var toks []Token

	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}

		toks = append(toks, tok)

		if tok.Kind == KindEOF {
			return toks, nil
		}
	}
}

type lexer struct {
	input []byte
	pos   int
	line  int
	col   int
}

var punct = map[rune]Kind{
	'{': KindLBrace,
	'}': KindRBrace,
	'(': KindLParen,
	')': KindRParen,
	'[': KindLBracket,
	']': KindRBracket,
	',': KindComma,
	';': KindSemicolon,
	'=': KindAssign,
}

func (lx *lexer) next() (Token, error) {
	if err := lx.skipWhitespaceAndComments(); err != nil {
		return Token{}, err
	}

	start := lx.position()

	if lx.eof() {
		return Token{Kind: KindEOF, Pos: start}, nil
	}

	ch := lx.peek()

	if k, ok := punct[ch]; ok {
		lx.advance()

		return lx.token(k, start), nil
	}

	switch {
	case ch == '"':
		return lx.scanString(start)

	case isNumberStart(ch, lx.peekAt(1)) || lx.signedKeyword():
		return lx.scanNumber(start)

	case isIdentifierStart(ch):
		return lx.scanWord(start), nil
	}

	return Token{}, ErrLex.WithPosition(start).
		With(slog.String("char", string(ch))).
		Wrapf("unexpected character %q", ch)
}

func (lx *lexer) token(k Kind, start Position) Token {
	return Token{
		Kind: k,
		Text: string(lx.input[start.Offset:lx.pos]),
		Pos:  start,
	}
}

func (lx *lexer) scanWord(start Position) Token {
	for !lx.eof() && isIdentifierContinue(lx.peek()) {
		lx.advance()
	}

	tok := lx.token(KindIdent, start)

	switch tok.Text {
	case "true", "false":
		tok.Kind = KindBool

	case "inf", "nan":
		tok.Kind = KindFloat
	}

	return tok
}

func (lx *lexer) scanString(start Position) (Token, error) {
	lx.advance() // skip opening quote

	for !lx.eof() {
		switch lx.peek() {
		case '\\':
			lx.advance()

			if !lx.eof() {
				lx.advance()
			}

			continue

		case '\n':
			return Token{}, ErrLex.WithPosition(start).
				Wrapf("newline in string literal")

		case '"':
			lx.advance()

			tok := lx.token(KindString, start)
			if _, err := strconv.Unquote(tok.Text); err != nil {
				return Token{}, ErrLex.WithPosition(start).
					Wrapf("malformed string literal %s: %w", tok.Text, err)
			}

			return tok, nil
		}

		lx.advance()
	}

	return Token{}, ErrLex.WithPosition(start).
		Wrapf("unterminated string literal")
}

// scanNumber scans a numeric literal with an optional sign: a decimal or
// 0x-prefixed hexadecimal integer (see [ParseInt]), or a floating point
// number accepted by strconv.ParseFloat.
func (lx *lexer) scanNumber(start Position) (Token, error) {
	if c := lx.peek(); c == '+' || c == '-' {
		lx.advance()
	}

	if keywordAt(lx.input[lx.pos:]) {
		for !lx.eof() && isIdentifierContinue(lx.peek()) {
			lx.advance()
		}

		return lx.token(KindFloat, start), nil
	}

	hex := lx.peek() == '0' && (lx.peekAt(1) == 'x' || lx.peekAt(1) == 'X')

	for !lx.eof() {
		c := lx.peek()

		switch {
		case c == '.' || c == '_' || isDigitOrLetter(c):
			prev := c
			lx.advance()

			if exponent(prev, hex) {
				if s := lx.peek(); s == '+' || s == '-' {
					lx.advance()
				}
			}

			continue
		}

		break
	}

	tok := lx.token(KindInt, start)

	kind, ok := classifyNumber(tok.Text)
	if !ok {
		return Token{}, ErrLex.WithPosition(start).
			Wrapf("malformed number %q", tok.Text)
	}

	tok.Kind = kind

	return tok, nil
}

func classifyNumber(s string) (Kind, bool) {
	if _, err := ParseInt(s); err == nil ||
		errors.Is(err, strconv.ErrRange) {
		return KindInt, true
	}

	if _, err := strconv.ParseFloat(s, 64); err == nil ||
		errors.Is(err, strconv.ErrRange) {
		return KindFloat, true
	}

	return KindIllegal, false
}

func exponent(c rune, hex bool) bool {
	if hex {
		return c == 'p' || c == 'P'
	}

	return c == 'e' || c == 'E'
}

// signedKeyword reports whether the input continues with a sign followed
// by inf or nan.
func (lx *lexer) signedKeyword() bool {
	rest := lx.input[lx.pos:]
	if len(rest) == 0 || (rest[0] != '+' && rest[0] != '-') {
		return false
	}

	return keywordAt(rest[1:])
}

// keywordAt reports whether b begins with the word inf or nan.
func keywordAt(b []byte) bool {
	for _, kw := range [...]string{"inf", "nan"} {
		if len(b) < len(kw) || string(b[:len(kw)]) != kw {
			continue
		}

		if len(b) == len(kw) {
			return true
		}

		r, _ := utf8.DecodeRune(b[len(kw):])

		return !isIdentifierContinue(r)
	}

	return false
}

func (lx *lexer) peek() rune {
	if lx.eof() {
		return 0
	}

	r, _ := utf8.DecodeRune(lx.input[lx.pos:])

	return r
}

// peekAt returns the rune n runes ahead of the current one.
func (lx *lexer) peekAt(n int) rune {
	pos := lx.pos

	for ; n > 0 && pos < len(lx.input); n-- {
		_, size := utf8.DecodeRune(lx.input[pos:])
		pos += size
	}

	if pos >= len(lx.input) {
		return 0
	}

	r, _ := utf8.DecodeRune(lx.input[pos:])

	return r
}

func (lx *lexer) advance() {
	if lx.eof() {
		return
	}

	r, size := utf8.DecodeRune(lx.input[lx.pos:])

	lx.pos += size
	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
}

func (lx *lexer) eof() bool {
	return lx.pos >= len(lx.input)
}

func (lx *lexer) position() Position {
	return Position{
		Offset: lx.pos,
		Line:   lx.line,
		Column: lx.col,
	}
}

func (lx *lexer) skipWhitespaceAndComments() error {
	for {
		for !lx.eof() && unicode.IsSpace(lx.peek()) {
			lx.advance()
		}

		if lx.eof() {
			return nil
		}

		switch {
		case lx.peek() == '#',
			lx.peek() == '/' && lx.peekAt(1) == '/':
			for !lx.eof() && lx.peek() != '\n' {
				lx.advance()
			}

		case lx.peek() == '/' && lx.peekAt(1) == '*':
			if err := lx.skipBlockComment(); err != nil {
				return err
			}

		default:
			return nil
		}
	}
}

func (lx *lexer) skipBlockComment() error {
	start := lx.position()

	lx.advance() // skip '/'
	lx.advance() // skip '*'

	for !lx.eof() {
		if lx.peek() == '*' && lx.peekAt(1) == '/' {
			lx.advance()
			lx.advance()

			return nil
		}

		lx.advance()
	}

	return ErrLex.WithPosition(start).Wrapf("unterminated block comment")
}

// Character classification

func isNumberStart(c, next rune) bool {
	switch {
	case c >= '0' && c <= '9':
		return true

	case c == '+' || c == '-':
		return (next >= '0' && next <= '9') || next == '.'

	case c == '.':
		return next >= '0' && next <= '9'
	}

	return false
}

func isDigitOrLetter(c rune) bool {
	return (c >= '0' && c <= '9') ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z')
}

func isIdentifierStart(r rune) bool {
	return unicode.In(r,
		unicode.L,  // Letter
		unicode.Nl, // Letter, Number
		unicode.Other_ID_Start,
	) || r == '_'
}

func isIdentifierContinue(r rune) bool {
	return unicode.In(r,
		unicode.L,  // Letter
		unicode.Nl, // Letter, Number
		unicode.Other_ID_Start,
		unicode.Mn, // Mark, Nonspacing
		unicode.Mc, // Mark, Spacing Combining
		unicode.Nd, // Number, Decimal Digit
		unicode.Pc, // Punctuation, Connector
		unicode.Other_ID_Continue,
	)
}

// IsIdentifier reports whether s is a valid identifier.
func IsIdentifier(s string) bool {
	for i, r := range s {
		if i == 0 && !isIdentifierStart(r) {
			return false
		}

		if !isIdentifierContinue(r) {
			return false
		}
	}

	return s != ""
}

// ParseInt parses an integer literal with an optional sign. Digits are
// decimal unless prefixed with 0x or 0X; a leading zero does not select
// octal, and digit separators are not accepted.
func ParseInt(s string) (int64, error) {
	sign, digits := "", s
	if len(digits) > 0 && (digits[0] == '+' || digits[0] == '-') {
		sign, digits = digits[:1], digits[1:]
	}

	if len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return strconv.ParseInt(sign+digits[2:], 16, 64)
	}

	return strconv.ParseInt(s, 10, 64)
}
