package env

import (
	"log/slog"
)

// ScalarBinding is the table for a primitive or composite type.
type ScalarBinding struct {
	table
}

// ReadAndSet binds name to a value read from ts.
//
// If the current token names a bound variable, its value is copied (object
// handles are shared); a variable of another type is a type mismatch.
// Otherwise the Environment's Builder reads the value.
func (b *ScalarBinding) ReadAndSet(name string, ts TokenStream) error {
	if ok, err := b.resolveReference(name, ts); ok || err != nil {
		return err
	}

	start := ts.Peek()

	v, err := b.env.opts.builder.Build(b.env, b.typeName, ts)
	if err != nil {
		return builderError(err, start)
	}

	nv, ok := normalize(b.typeName, v)
	if !ok {
		return ErrBuild.WithPosition(start.Pos).
			With(slog.String("name", name), slog.String("kind", v.Kind().String())).
			Wrapf("builder returned %s for type %s", v.Literal(), b.typeName)
	}

	b.set(name, nv)

	return nil
}

// Clone returns a copy of the table owned by e.
func (b *ScalarBinding) Clone(e *Environment) Binding {
	return &ScalarBinding{table: b.clone(e)}
}
