package env

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ardnew/vartab/lang"
)

// Binding is the table of variables bound under one type name.
//
// The implementations are [*ScalarBinding] and [*ArrayBinding]; tables are
// obtained from an Environment, never constructed directly.
type Binding interface {
	// TypeName returns the type name of every value in the table.
	TypeName() string
	// Defined reports whether name is in the table.
	Defined(name string) bool
	// Get returns the value bound to name.
	Get(name string) (Value, bool)
	// Names returns the names in the table, sorted.
	Names() []string
	// ReadAndSet reads one value of the table's type and binds it to name.
	ReadAndSet(name string, ts TokenStream) error
	// Print writes one "<Type> <name> = <literal>;" line per variable.
	Print(w io.Writer) error
	// Clone returns a copy of the table owned by e.
	Clone(e *Environment) Binding

	set(name string, v Value)
	remove(name string)
	release() error
}

// newBinding returns an empty table for typeName owned by e.
func newBinding(e *Environment, typeName string) Binding {
	t := table{env: e, typeName: typeName, vars: make(map[string]Value)}

	switch kindOfType(typeName) {
	case KindArray:
		return &ArrayBinding{table: t, elem: ElemType(typeName)}

	default:
		return &ScalarBinding{table: t}
	}
}

// table is the storage shared by all bindings.
type table struct {
	env      *Environment
	vars     map[string]Value
	typeName string
}

func (t *table) TypeName() string { return t.typeName }

func (t *table) Defined(name string) bool {
	_, ok := t.vars[name]

	return ok
}

func (t *table) Get(name string) (Value, bool) {
	v, ok := t.vars[name]

	return v, ok
}

func (t *table) Names() []string { return sortedKeys(t.vars) }

func (t *table) Print(w io.Writer) error {
	for _, name := range sortedKeys(t.vars) {
		_, err := fmt.Fprintf(w, "%s %s = %s;\n",
			t.typeName, name, t.vars[name].Literal())
		if err != nil {
			return err
		}
	}

	return nil
}

func (t *table) set(name string, v Value) {
	v.retain()

	if old, ok := t.vars[name]; ok {
		t.env.dropped(old)
	}

	t.vars[name] = v
}

func (t *table) remove(name string) {
	if old, ok := t.vars[name]; ok {
		delete(t.vars, name)
		t.env.dropped(old)
	}
}

func (t *table) release() error {
	var errs []error

	for _, name := range sortedKeys(t.vars) {
		errs = append(errs, t.vars[name].release())
	}

	clear(t.vars)

	return errors.Join(errs...)
}

func (t *table) clone(e *Environment) table {
	c := table{env: e, typeName: t.typeName, vars: make(map[string]Value, len(t.vars))}

	for name, v := range t.vars {
		v = v.copy()
		v.retain()
		c.vars[name] = v
	}

	return c
}

// resolveReference binds name to a copy of the variable named by the
// current token, if that token is a bound variable. It reports whether the
// token was handled as a reference.
func (t *table) resolveReference(name string, ts TokenStream) (bool, error) {
	tok := ts.Peek()
	if tok.Kind != lang.KindIdent {
		return false, nil
	}

	ref, ok := t.env.types[tok.Text]
	if !ok {
		return false, nil
	}

	if ref != t.typeName {
		return true, t.env.mismatch(name, t.typeName, ref, ts)
	}

	v, ok := t.vars[tok.Text]
	if !ok {
		return true, ErrInternal.WithPosition(tok.Pos).
			With(slog.String("reference", tok.Text)).
			Wrapf("variable %q missing from the %s table", tok.Text, t.typeName)
	}

	ts.Next()
	t.set(name, v.copy())

	return true, nil
}

// normalize checks that v may be stored under the table type typeName and
// rewrites array element type names to the table's.
func normalize(typeName string, v Value) (Value, bool) {
	if v.kind != kindOfType(typeName) {
		return Value{}, false
	}

	switch v.kind {
	case KindObject:
		if v.obj != nil && v.obj.Base() != typeName {
			return Value{}, false
		}

	case KindArray:
		elem := ElemType(typeName)
		elems := make([]Value, len(v.elems))

		for i, e := range v.elems {
			ne, ok := normalize(elem, e)
			if !ok {
				return Value{}, false
			}

			elems[i] = ne
		}

		return Value{kind: KindArray, elem: elem, elems: elems}, true
	}

	return v, true
}

// builderError gives errors returned by a Builder a position and a
// sentinel when they lack them.
func builderError(err error, tok lang.Token) error {
	var le *lang.Error
	if errors.As(err, &le) {
		return err
	}

	return ErrBuild.WithPosition(tok.Pos).Wrap(err)
}
