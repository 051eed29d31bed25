package lang

import (
	"strconv"
)

// Kind identifies the lexical class of a [Token].
type Kind int

const (
	// KindIllegal is the zero Kind and never produced by [Tokenize].
	KindIllegal Kind = iota

	// KindEOF marks the end of input.
	KindEOF

	// KindIdent is an identifier: a variable, type, member or keyword name.
	KindIdent

	// KindBool is a boolean literal (true or false).
	KindBool

	// KindInt is an integer literal, optionally signed.
	KindInt

	// KindFloat is a floating point literal, including inf and nan.
	KindFloat

	// KindString is a double-quoted string literal.
	KindString

	KindLBrace    // {
	KindRBrace    // }
	KindLParen    // (
	KindRParen    // )
	KindLBracket  // [
	KindRBracket  // ]
	KindComma     // ,
	KindSemicolon // ;
	KindAssign    // =
)

// String returns a human-readable name for the token kind.
func (k Kind) String() string {
	switch k {
	case KindEOF:
		return "EOF"

	case KindIdent:
		return "Ident"

	case KindBool:
		return "Bool"

	case KindInt:
		return "Int"

	case KindFloat:
		return "Float"

	case KindString:
		return "String"

	case KindLBrace:
		return "{"

	case KindRBrace:
		return "}"

	case KindLParen:
		return "("

	case KindRParen:
		return ")"

	case KindLBracket:
		return "["

	case KindRBracket:
		return "]"

	case KindComma:
		return ","

	case KindSemicolon:
		return ";"

	case KindAssign:
		return "="

	default:
		return "Illegal"
	}
}

// IsLiteral reports whether the kind is a primitive literal.
func (k Kind) IsLiteral() bool {
	return k == KindBool || k == KindInt || k == KindFloat || k == KindString
}

// Position is a location in source text.
type Position struct {
	Offset int // byte offset, 0-based
	Line   int // 1-based
	Column int // 1-based, counted in runes
}

// IsValid reports whether the position refers to a location in source.
func (p Position) IsValid() bool { return p.Line > 0 }

func (p Position) String() string {
	if !p.IsValid() {
		return "unknown position"
	}

	return "line " + strconv.Itoa(p.Line) + ", column " + strconv.Itoa(p.Column)
}

// Token is a lexical token with the exact source text it was scanned from.
type Token struct {
	Text string
	Pos  Position
	Kind Kind
}

// String returns the token text, or a placeholder for end of input.
func (t Token) String() string {
	if t.Kind == KindEOF {
		return "end of input"
	}

	return t.Text
}

// Quote returns the token formatted for diagnostics.
func (t Token) Quote() string {
	if t.Kind == KindEOF {
		return t.String()
	}

	return strconv.Quote(t.Text)
}

// Is reports whether t has kind k and, if text is non-empty, the given text.
func (t Token) Is(k Kind, text string) bool {
	return t.Kind == k && (text == "" || t.Text == text)
}

// Unquote returns the value of a string literal token.
func (t Token) Unquote() (string, error) {
	if t.Kind != KindString {
		return "", ErrLex.WithPosition(t.Pos).
			Wrapf("token %s is not a string literal", t.Quote())
	}

	s, err := strconv.Unquote(t.Text)
	if err != nil {
		return "", ErrLex.WithPosition(t.Pos).Wrap(err)
	}

	return s, nil
}
