package factory

import (
	"fmt"
	"log/slog"

	"github.com/ardnew/vartab/env"
	"github.com/ardnew/vartab/lang"
)

// specState is the position of the spec parser in
//
//	Spec   → Concrete '(' (Member (',' Member)*)? ')'
//	Member → name '(' value ')'
type specState int

const (
	expectMemberOrClose specState = iota
	expectMember
	expectCommaOrClose
	specDone
)

// Build implements [env.Builder]. Primitive types are read as literals;
// any other type is read as nullptr or a construction spec whose concrete
// type implements typeName.
func (r *Registry) Build(
	e *env.Environment,
	typeName string,
	ts env.TokenStream,
) (env.Value, error) {
	if env.IsPrimitive(typeName) {
		return env.PrimitiveBuilder{}.Build(e, typeName, ts)
	}

	tok := ts.Peek()
	if tok.Kind != lang.KindIdent {
		return env.Value{}, env.ErrSyntax.WithPosition(tok.Pos).
			With(slog.String("type", typeName)).
			Wrapf("expected %s construction spec but found %s", typeName, tok.Quote())
	}

	if tok.Text == "nullptr" {
		ts.Next()

		return env.ObjectValue(nil), nil
	}

	c, ok := r.lookup(tok.Text)
	if !ok {
		return env.Value{}, ErrUnknownConcrete.WithPosition(tok.Pos).
			With(slog.String("concrete", tok.Text)).
			Wrapf("%q is not a registered type", tok.Text)
	}

	if c.base != typeName {
		return env.Value{}, env.ErrTypeMismatch.WithPosition(tok.Pos).
			With(slog.String("concrete", c.name), slog.String("want", typeName)).
			Wrapf("%s is a %s, not a %s", c.name, c.base, typeName)
	}

	ts.Next()

	return c.build(e, tok.Pos, ts)
}

func (c *concrete) build(
	e *env.Environment,
	pos lang.Position,
	ts env.TokenStream,
) (v env.Value, err error) {
	if tok := ts.Peek(); tok.Kind != lang.KindLParen {
		return env.Value{}, c.syntax(tok, "expected '(' after %s but found %s",
			c.name, tok.Quote())
	}

	ts.Next()

	scratch, err := e.Scratch(pos)
	if err != nil {
		return env.Value{}, err
	}

	defer func() {
		if cerr := scratch.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	s := &Spec{
		values:   make(map[string]env.Value, len(c.members)),
		concrete: c.name,
		base:     c.base,
		pos:      pos,
	}

	for state := expectMemberOrClose; state != specDone; {
		tok := ts.Peek()

		switch state {
		case expectMemberOrClose, expectMember:
			switch tok.Kind {
			case lang.KindRParen:
				if state == expectMember {
					return env.Value{}, c.syntax(tok, "expected member after ','")
				}

				ts.Next()

				state = specDone

				continue

			case lang.KindEOF:
				return env.Value{}, c.syntax(tok, "unterminated %s spec", c.name)
			}

			if err := c.readMember(scratch, s, ts); err != nil {
				return env.Value{}, err
			}

			state = expectCommaOrClose

		case expectCommaOrClose:
			switch tok.Kind {
			case lang.KindComma:
				state = expectMember

			case lang.KindRParen:
				state = specDone

			default:
				return env.Value{}, c.syntax(tok, "expected ',' or ')' but found %s",
					tok.Quote())
			}

			ts.Next()
		}
	}

	for _, m := range c.members {
		if m.Required && !s.Has(m.Name) {
			return env.Value{}, ErrMissingMember.WithPosition(pos).
				With(slog.String("concrete", c.name), slog.String("member", m.Name)).
				Wrapf("%s requires member %q", c.name, m.Name)
		}
	}

	val, err := c.ctor(s)
	if err != nil {
		return env.Value{}, ErrConstruct.WithPosition(pos).
			With(slog.String("concrete", c.name)).
			Wrap(err)
	}

	obj := env.NewObject(c.name, c.base, val, s.members()...)

	e.Logger().Trace("construct",
		slog.String("object", obj.String()),
		slog.Any("members", s.order),
	)

	return env.ObjectValue(obj), nil
}

// readMember reads one name(value) initializer, binding the value to the
// member name in scratch.
func (c *concrete) readMember(
	scratch *env.Environment,
	s *Spec,
	ts env.TokenStream,
) error {
	tok := ts.Next()
	if tok.Kind != lang.KindIdent {
		return c.syntax(tok, "expected member name but found %s", tok.Quote())
	}

	i, ok := c.index[tok.Text]
	if !ok {
		return ErrUnknownMember.WithPosition(tok.Pos).
			With(slog.String("concrete", c.name), slog.String("member", tok.Text)).
			Wrapf("%s has no member %q", c.name, tok.Text)
	}

	if s.Has(tok.Text) {
		return c.syntax(tok, "member %q initialized twice", tok.Text)
	}

	if open := ts.Peek(); open.Kind != lang.KindLParen {
		return c.syntax(open, "expected '(' after member %q but found %s",
			tok.Text, open.Quote())
	}

	ts.Next()

	m := c.members[i]
	tmp := memberName(c.name, m.Name)

	if err := scratch.ReadAndSet(tmp, ts, m.Type); err != nil {
		return err
	}

	if end := ts.Peek(); end.Kind != lang.KindRParen {
		return c.syntax(end, "expected ')' after member %q but found %s",
			tok.Text, end.Quote())
	}

	ts.Next()

	// A reference ignored under MismatchIgnore leaves the member unset.
	if !scratch.Defined(tmp) {
		return nil
	}

	v, err := scratch.Get(tmp)
	if err != nil {
		return err
	}

	typeName, _ := scratch.GetType(tmp)

	// Later initializers may refer to the member by name.
	if err := scratch.Set(m.Name, typeName, v); err != nil {
		return err
	}

	scratch.Unset(tmp)

	s.values[m.Name] = v
	s.order = append(s.order, m.Name)

	return nil
}

// memberName returns the temporary name a member is bound to while it is
// parsed.
func memberName(concrete, member string) string {
	return fmt.Sprintf("____%s_%s____", concrete, member)
}

func (c *concrete) syntax(tok lang.Token, format string, args ...any) error {
	return env.ErrSyntax.WithPosition(tok.Pos).
		With(slog.String("concrete", c.name)).
		Wrapf(format, args...)
}
