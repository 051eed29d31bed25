package env

import (
	"github.com/ardnew/vartab/lang"
)

// inferType determines the type of the value starting at the current token.
func (e *Environment) inferType(ts TokenStream) (string, error) {
	la, _ := ts.(lang.Lookahead)

	peek := func(n int) (lang.Token, bool) {
		switch {
		case n == 0:
			return ts.Peek(), true

		case la != nil:
			return la.PeekAt(n), true
		}

		return lang.Token{}, false
	}

	return e.inferAt(peek, 0)
}

func (e *Environment) inferAt(
	peek func(int) (lang.Token, bool),
	n int,
) (string, error) {
	tok, ok := peek(n)
	if !ok {
		open, _ := peek(0)

		return "", ErrSyntax.WithPosition(open.Pos).
			Wrapf("cannot infer the element type of an array literal; declare its type")
	}

	switch tok.Kind {
	case lang.KindBool:
		return TypeBool, nil

	case lang.KindInt:
		return TypeInt, nil

	case lang.KindFloat:
		return TypeDouble, nil

	case lang.KindString:
		return TypeString, nil

	case lang.KindIdent:
		if typeName, ok := e.types[tok.Text]; ok {
			return typeName, nil
		}

		if tok.Text == nullName {
			return "", ErrSyntax.WithPosition(tok.Pos).
				Wrapf("cannot infer the type of %s; declare its type", nullName)
		}

		if h := e.opts.hierarchy; h != nil {
			if base, ok := h.BaseOf(tok.Text); ok {
				return base, nil
			}
		}

		return "", ErrUndefinedVariable.WithPosition(tok.Pos).
			Wrapf("%q is neither a variable nor a type", tok.Text)

	case lang.KindLBrace:
		if n >= e.opts.maxDepth {
			return "", ErrSyntax.WithPosition(tok.Pos).
				Wrapf("nesting exceeds maximum depth %d", e.opts.maxDepth)
		}

		elem, err := e.inferAt(peek, n+1)
		if err != nil {
			return "", err
		}

		return ArrayOf(elem), nil

	case lang.KindRBrace:
		return "", ErrSyntax.WithPosition(tok.Pos).
			Wrapf("cannot infer the element type of an empty array; declare its type")

	case lang.KindEOF:
		return "", ErrSyntax.WithPosition(tok.Pos).
			Wrapf("expected a value but found %s", tok.Quote())
	}

	return "", ErrSyntax.WithPosition(tok.Pos).
		Wrapf("expected a value but found %s", tok.Quote())
}
