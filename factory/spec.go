package factory

import (
	"log/slog"
	"slices"

	"github.com/ardnew/vartab/env"
	"github.com/ardnew/vartab/lang"
)

// Spec holds the member values of one construction spec. It is valid only
// for the duration of the [Constructor] call it is passed to.
type Spec struct {
	values   map[string]env.Value
	concrete string
	base     string
	order    []string
	pos      lang.Position
}

// Concrete returns the concrete type name being constructed.
func (s *Spec) Concrete() string { return s.concrete }

// Base returns the base type name of the concrete type.
func (s *Spec) Base() string { return s.base }

// Position returns the source position of the concrete type name.
func (s *Spec) Position() lang.Position { return s.pos }

// Names returns the initialized member names in source order.
func (s *Spec) Names() []string { return slices.Clone(s.order) }

// Has reports whether member name was initialized.
func (s *Spec) Has(name string) bool {
	_, ok := s.values[name]

	return ok
}

// Value returns the value of member name.
func (s *Spec) Value(name string) (env.Value, bool) {
	v, ok := s.values[name]

	return v, ok
}

// Object returns the object handle of member name, which is nil for
// nullptr.
func (s *Spec) Object(name string) (*env.Object, bool) {
	v, ok := s.values[name]
	if !ok {
		return nil, false
	}

	return v.AsObject()
}

// Get returns the native Go value (see [env.Value.Native]) of member name
// as a T. An uninitialized member yields the zero T and no error; use
// [Spec.Has] to tell the two apart.
func Get[T any](s *Spec, name string) (T, error) {
	var zero T

	v, ok := s.values[name]
	if !ok {
		return zero, nil
	}

	t, ok := v.Native().(T)
	if !ok && v.Native() != nil {
		return zero, ErrConstruct.WithPosition(s.pos).
			With(slog.String("concrete", s.concrete), slog.String("member", name)).
			Wrapf("member %q of %s is %s, not %T", name, s.concrete, v.Kind(), zero)
	}

	return t, nil
}

// members returns the member values in source order.
func (s *Spec) members() []env.Value {
	out := make([]env.Value, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.values[name])
	}

	return out
}
