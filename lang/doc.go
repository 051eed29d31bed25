// Package lang provides the lexical layer of the vartab language: tokens with
// source positions, a hand-written lexer, a lookahead token stream, and the
// structured [Error] type shared by the packages built on top of it.
//
// # Tokens
//
// The lexer recognizes identifiers, the literals
//
//	true false                 booleans
//	42 -7 010 0x1F             integers (decimal, or hexadecimal with 0x)
//	3.5 .5 1e-3 inf -inf nan   floating point numbers
//	"text\n"                   double-quoted strings with Go escapes
//
// and the punctuation { } ( ) [ ] , ; =. Whitespace and comments are
// skipped:
//
//	// line comment
//	# line comment
//	/* block comment */
//
// # Streams
//
// A [Stream] exposes the current token ([Stream.Peek]), consumes it
// ([Stream.Next]), recalls the previously consumed token ([Stream.PeekPrev])
// and looks further ahead ([Stream.PeekAt]). Tokenized sources are cached by
// content hash, see [TokenizeCached].
package lang
