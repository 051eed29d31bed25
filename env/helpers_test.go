package env

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/ardnew/vartab/lang"
)

func stream(t *testing.T, src string) *lang.Stream {
	t.Helper()

	s, err := lang.NewStreamFromString(src)
	if err != nil {
		t.Fatalf("tokenize %q: %v", src, err)
	}

	return s
}

func bind(t *testing.T, e *Environment, name, typeName, src string) error {
	t.Helper()

	return e.ReadAndSet(name, stream(t, src), typeName)
}

func mustBind(t *testing.T, e *Environment, name, typeName, src string) {
	t.Helper()

	if err := bind(t, e, name, typeName, src); err != nil {
		t.Fatalf("bind %s %s = %s: %v", typeName, name, src, err)
	}
}

func mustGet(t *testing.T, e *Environment, name string) Value {
	t.Helper()

	v, err := e.Get(name)
	if err != nil {
		t.Fatalf("Get(%q): %v", name, err)
	}

	return v
}

func errPos(t *testing.T, err error) lang.Position {
	t.Helper()

	var le *lang.Error
	if !errors.As(err, &le) {
		t.Fatalf("error %v (%T) is not a *lang.Error", err, err)
	}

	pos, ok := le.Position()
	if !ok {
		t.Fatalf("error %v has no position", err)
	}

	return pos
}

// plainStream hides the lookahead of a lang.Stream.
type plainStream struct{ s *lang.Stream }

func (p plainStream) Peek() lang.Token     { return p.s.Peek() }
func (p plainStream) Next() lang.Token     { return p.s.Next() }
func (p plainStream) PeekPrev() lang.Token { return p.s.PeekPrev() }

// farm is a type hierarchy with base Animal and concrete Cow and Pig.
type farm struct{}

func (farm) BaseOf(concrete string) (string, bool) {
	switch concrete {
	case "Cow", "Pig":
		return "Animal", true
	}

	return "", false
}

func (farm) IsBase(name string) bool { return name == "Animal" }

type animal struct {
	closes *atomic.Int64
	kind   string
	name   string
}

func (a *animal) Close() error {
	a.closes.Add(1)

	return nil
}

// farmBuilder builds Concrete("name") specs and nullptr, and primitives.
func farmBuilder(closes *atomic.Int64) BuilderFunc {
	return func(e *Environment, typeName string, ts TokenStream) (Value, error) {
		if IsPrimitive(typeName) {
			return PrimitiveBuilder{}.Build(e, typeName, ts)
		}

		tok := ts.Next()
		if tok.Text == nullName {
			return ObjectValue(nil), nil
		}

		base, ok := e.Hierarchy().BaseOf(tok.Text)
		if !ok || base != typeName {
			return Value{}, fmt.Errorf("%s is not a %s", tok.Text, typeName)
		}

		if ts.Next().Kind != lang.KindLParen {
			return Value{}, errors.New("expected (")
		}

		name, err := ts.Next().Unquote()
		if err != nil {
			return Value{}, err
		}

		if ts.Next().Kind != lang.KindRParen {
			return Value{}, errors.New("expected )")
		}

		a := &animal{closes: closes, kind: tok.Text, name: name}

		return ObjectValue(NewObject(tok.Text, base, a)), nil
	}
}

func newFarm(closes *atomic.Int64, opts ...Option) *Environment {
	return New(append([]Option{
		WithHierarchy(farm{}),
		WithBuilder(farmBuilder(closes)),
	}, opts...)...)
}
