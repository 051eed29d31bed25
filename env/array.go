package env

import (
	"log/slog"

	"github.com/ardnew/vartab/lang"
)

// ArrayBinding is the table for an array type.
type ArrayBinding struct {
	table

	elem string
}

// ElemType returns the element type name of the table.
func (b *ArrayBinding) ElemType() string { return b.elem }

// arrayState is the position of the array literal parser in
//
//	Array → '{' (Element (',' Element)*)? '}'
type arrayState int

const (
	expectOpenBrace arrayState = iota
	expectElementOrClose
	expectElement
	expectCommaOrClose
	arrayDone
)

// ReadAndSet binds name to an array read from ts: either a reference to a
// variable of the same array type or a brace-delimited literal.
//
// Each element is read by binding it to a temporary name in a scratch clone
// of the Environment, so an element may be anything a variable can be: a
// literal, a reference, a nested array or an object spec.
func (b *ArrayBinding) ReadAndSet(name string, ts TokenStream) error {
	if ok, err := b.resolveReference(name, ts); ok || err != nil {
		return err
	}

	var elems []Value

	// Elements are held until the array is bound (or abandoned).
	defer func() {
		for _, v := range elems {
			b.env.dropped(v)
		}
	}()

	for state := expectOpenBrace; state != arrayDone; {
		tok := ts.Peek()

		switch state {
		case expectOpenBrace:
			if tok.Kind != lang.KindLBrace {
				return b.syntax(name, tok, "expected '{' but found %s", tok.Quote())
			}

			ts.Next()

			state = expectElementOrClose

		case expectElementOrClose, expectElement:
			switch tok.Kind {
			case lang.KindRBrace:
				if state == expectElement {
					return b.syntax(name, tok, "expected array element after ','")
				}

				ts.Next()

				state = arrayDone

				continue

			case lang.KindEOF:
				return b.syntax(name, tok, "unterminated array literal")
			}

			v, err := b.readElement(name, len(elems), ts)
			if err != nil {
				return err
			}

			elems = append(elems, v)
			state = expectCommaOrClose

		case expectCommaOrClose:
			switch tok.Kind {
			case lang.KindComma:
				state = expectElement

			case lang.KindRBrace:
				state = arrayDone

			default:
				return b.syntax(name, tok, "expected ',' or '}' but found %s", tok.Quote())
			}

			ts.Next()
		}
	}

	b.set(name, Value{kind: KindArray, elem: b.elem, elems: elems})

	return nil
}

// readElement reads the element at index and returns it with an extra
// reference the caller must drop.
func (b *ArrayBinding) readElement(
	name string,
	index int,
	ts TokenStream,
) (v Value, err error) {
	start := ts.Peek()

	scratch, err := b.env.Scratch(start.Pos)
	if err != nil {
		return Value{}, err
	}

	defer func() {
		if cerr := scratch.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	tmp := elementName(name, index)

	if err := scratch.ReadAndSet(tmp, ts, b.elem); err != nil {
		return Value{}, err
	}

	// An element must hold a value even when the mismatch policy lets a
	// reference of another type through.
	if !scratch.Defined(tmp) {
		return Value{}, ErrTypeMismatch.WithPosition(start.Pos).
			With(slog.String("name", name), slog.Int("index", index),
				slog.String("reference", start.Text)).
			Wrapf("cannot initialize element %d of %q: %q is not a %s",
				index, name, start.Text, b.elem)
	}

	eb, err := scratch.GetBindingForType(b.elem)
	if err != nil {
		return Value{}, ErrInternal.WithPosition(start.Pos).Wrap(err)
	}

	v, ok := eb.Get(tmp)
	if !ok {
		return Value{}, ErrInternal.WithPosition(start.Pos).
			With(slog.String("name", name), slog.Int("index", index)).
			Wrapf("element %d of %q was not bound as %s", index, name, b.elem)
	}

	v = v.copy()
	v.retain()

	return v, nil
}

func (b *ArrayBinding) syntax(
	name string,
	tok lang.Token,
	format string,
	args ...any,
) error {
	return ErrSyntax.WithPosition(tok.Pos).
		With(slog.String("name", name), slog.String("type", b.typeName)).
		Wrapf(format, args...)
}

// Clone returns a copy of the table owned by e.
func (b *ArrayBinding) Clone(e *Environment) Binding {
	return &ArrayBinding{table: b.clone(e), elem: b.elem}
}
