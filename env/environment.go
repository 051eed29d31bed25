package env

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/ardnew/vartab/lang"
	"github.com/ardnew/vartab/log"
)

// Environment is a typed symbol table. It keeps one binding table per type
// name and remembers which table each variable lives in; a variable bound
// again under another type moves to that type's table.
//
// Composite types share a table with their base type, so a Cow is stored
// in the Animal table and a Cow[] in the Animal[] table.
//
// The zero Environment is empty and uses the default options. An
// Environment is not safe for concurrent use. Use [Environment.Clone] to
// hand an independent copy to another goroutine.
type Environment struct {
	bindings map[string]Binding // by table type name
	types    map[string]string  // variable name to table type name
	opts     options
	depth    int
}

// New returns an empty Environment.
func New(opts ...Option) *Environment {
	return &Environment{
		bindings: make(map[string]Binding),
		types:    make(map[string]string),
		opts:     makeOptions(opts...),
	}
}

// init prepares a zero Environment for use.
func (e *Environment) init() {
	if e.bindings == nil {
		e.bindings = make(map[string]Binding)
		e.types = make(map[string]string)
	}

	// Options built by makeOptions always carry a builder.
	if e.opts.builder == nil {
		e.opts = makeOptions()
	}
}

// Defined reports whether name is bound to a value of any type.
func (e *Environment) Defined(name string) bool {
	_, ok := e.types[name]

	return ok
}

// ReadAndSet reads one value from ts and binds it to name.
//
// If typeName is empty the type is inferred from the upcoming tokens:
// a variable reference has the variable's type, a construction spec
// Concrete(...) has the base type of Concrete, literals have their
// primitive type, and an array literal has the array type of its first
// element (which requires a stream implementing [lang.Lookahead]).
//
// On failure nothing is bound and the previous binding of name, if any, is
// kept.
func (e *Environment) ReadAndSet(name string, ts TokenStream, typeName string) error {
	e.init()

	if typeName == "" {
		inferred, err := e.inferType(ts)
		if err != nil {
			return err
		}

		typeName = inferred
	}

	b, err := e.GetBindingForType(typeName)
	if err != nil {
		return err
	}

	e.opts.logger.Trace("bind",
		slog.String("name", name),
		slog.String("type", b.TypeName()),
		slog.String("token", ts.Peek().String()),
		slog.Int("depth", e.depth),
	)

	if err := b.ReadAndSet(name, ts); err != nil {
		return err
	}

	// A reference ignored by MismatchIgnore binds nothing.
	if b.Defined(name) {
		e.moveTo(name, b)
	}

	return nil
}

// Set binds name to v under typeName without reading any tokens.
func (e *Environment) Set(name, typeName string, v Value) error {
	if !lang.IsIdentifier(name) {
		return ErrSyntax.With(slog.String("name", name)).
			Wrapf("invalid variable name %q", name)
	}

	b, err := e.GetBindingForType(typeName)
	if err != nil {
		return err
	}

	nv, ok := normalize(b.TypeName(), v)
	if !ok {
		return ErrTypeMismatch.With(slog.String("name", name)).
			Wrapf("%s value cannot be bound as %s", v.Kind(), typeName)
	}

	b.set(name, nv)
	e.moveTo(name, b)

	return nil
}

// Unset removes the binding of name and reports whether it existed.
func (e *Environment) Unset(name string) bool {
	typeName, ok := e.types[name]
	if !ok {
		return false
	}

	if b, ok := e.bindings[typeName]; ok {
		b.remove(name)
	}

	delete(e.types, name)

	return true
}

// moveTo records that name now lives in b, removing it from the table it
// was bound in before.
func (e *Environment) moveTo(name string, b Binding) {
	if prev, ok := e.types[name]; ok && prev != b.TypeName() {
		if old, ok := e.bindings[prev]; ok {
			old.remove(name)
		}
	}

	e.types[name] = b.TypeName()
}

// GetType returns the table type name of the variable name.
func (e *Environment) GetType(name string) (string, error) {
	typeName, ok := e.types[name]
	if !ok {
		return "", undefined(name)
	}

	return typeName, nil
}

// GetBinding returns the table holding the variable name.
func (e *Environment) GetBinding(name string) (Binding, error) {
	typeName, err := e.GetType(name)
	if err != nil {
		return nil, err
	}

	b, ok := e.bindings[typeName]
	if !ok {
		return nil, ErrInternal.With(slog.String("name", name)).
			Wrapf("no %s table for variable %q", typeName, name)
	}

	return b, nil
}

// GetBindingForType returns the table that stores values of typeName,
// creating it if needed. Concrete composite types, and arrays of them,
// resolve to the table of their base type.
func (e *Environment) GetBindingForType(typeName string) (Binding, error) {
	key, err := e.ResolveType(typeName)
	if err != nil {
		return nil, err
	}

	if b, ok := e.bindings[key]; ok {
		return b, nil
	}

	e.init()

	b := newBinding(e, key)
	e.bindings[key] = b

	return b, nil
}

// ResolveType returns the table type name for typeName: primitives and base
// types map to themselves, concrete types to their base, and array types to
// the array type of their resolved element type.
func (e *Environment) ResolveType(typeName string) (string, error) {
	elem, dims := typeName, 0
	for IsArrayType(elem) {
		elem, dims = ElemType(elem), dims+1
	}

	h := e.opts.hierarchy

	switch {
	case IsPrimitive(elem):

	case h == nil || !lang.IsIdentifier(elem):
		return "", unknownType(typeName)

	case h.IsBase(elem):

	default:
		base, ok := h.BaseOf(elem)
		if !ok {
			return "", unknownType(typeName)
		}

		elem = base
	}

	return elem + strings.Repeat(ArraySuffix, dims), nil
}

// Get returns the value bound to name.
func (e *Environment) Get(name string) (Value, error) {
	b, err := e.GetBinding(name)
	if err != nil {
		return Value{}, err
	}

	v, ok := b.Get(name)
	if !ok {
		return Value{}, ErrInternal.With(slog.String("name", name)).
			Wrapf("variable %q missing from the %s table", name, b.TypeName())
	}

	return v, nil
}

// Lookup returns the native Go value (see [Value.Native]) bound to name as
// a T.
func Lookup[T any](e *Environment, name string) (T, error) {
	var zero T

	v, err := e.Get(name)
	if err != nil {
		return zero, err
	}

	t, ok := v.Native().(T)
	if !ok {
		typeName, _ := e.GetType(name)

		return zero, ErrTypeMismatch.
			With(slog.String("name", name), slog.String("type", typeName)).
			Wrapf("variable %q of type %s is not a %T", name, typeName, zero)
	}

	return t, nil
}

// Clone returns an independent copy of e. Tables are copied; object handles
// are shared, and the copy holds its own reference to each of them.
func (e *Environment) Clone() *Environment {
	c := &Environment{
		bindings: make(map[string]Binding, len(e.bindings)),
		types:    maps.Clone(e.types),
		opts:     e.opts,
		depth:    e.depth,
	}

	if c.types == nil {
		c.types = make(map[string]string)
	}

	for typeName, b := range e.bindings {
		c.bindings[typeName] = b.Clone(c)
	}

	return c
}

// Scratch returns a clone of e one nesting level deeper, for parsing a value
// nested inside another (an array element or an object member). It fails
// with [ErrSyntax] at pos when the nesting limit is exceeded.
func (e *Environment) Scratch(pos lang.Position) (*Environment, error) {
	e.init()

	if e.depth >= e.opts.maxDepth {
		return nil, ErrSyntax.WithPosition(pos).
			With(slog.Int("max_depth", e.opts.maxDepth)).
			Wrapf("nesting exceeds maximum depth %d", e.opts.maxDepth)
	}

	c := e.Clone()
	c.depth++

	return c, nil
}

// Depth returns the nesting level of e; zero for environments that are not
// scratch scopes.
func (e *Environment) Depth() int { return e.depth }

// Hierarchy returns the configured type hierarchy, which may be nil.
func (e *Environment) Hierarchy() Hierarchy { return e.opts.hierarchy }

// Logger returns the configured logger.
func (e *Environment) Logger() log.Logger { return e.opts.logger }

// Print writes every binding as a statement "<Type> <name> = <literal>;",
// one per line, ordered by type name and then variable name.
func (e *Environment) Print(w io.Writer) error {
	for _, typeName := range sortedKeys(e.bindings) {
		if err := e.bindings[typeName].Print(w); err != nil {
			return err
		}
	}

	return nil
}

// Len returns the number of bound variables.
func (e *Environment) Len() int { return len(e.types) }

// Names returns the bound variable names, sorted.
func (e *Environment) Names() []string { return sortedKeys(e.types) }

// Types returns the type names of the non-empty tables, sorted.
func (e *Environment) Types() []string {
	out := make([]string, 0, len(e.bindings))

	for _, typeName := range sortedKeys(e.bindings) {
		if len(e.bindings[typeName].Names()) > 0 {
			out = append(out, typeName)
		}
	}

	return out
}

// Snapshot returns every binding as a native Go value (see [Value.Native]).
func (e *Environment) Snapshot() map[string]any {
	out := make(map[string]any, len(e.types))

	for name := range e.types {
		if v, err := e.Get(name); err == nil {
			out[name] = v.Native()
		}
	}

	return out
}

// Close releases the references e holds on composite objects and empties
// it. Objects whose last reference is released are closed; their errors are
// joined in the result.
func (e *Environment) Close() error {
	var errs []error

	for _, typeName := range sortedKeys(e.bindings) {
		errs = append(errs, e.bindings[typeName].release())
	}

	clear(e.bindings)
	clear(e.types)

	return errors.Join(errs...)
}

// mismatch applies the mismatch policy to a reference to a variable of
// type got read as type want.
func (e *Environment) mismatch(name, want, got string, ts TokenStream) error {
	tok := ts.Peek()
	attrs := []slog.Attr{
		slog.String("name", name),
		slog.String("reference", tok.Text),
		slog.String("want", want),
		slog.String("got", got),
	}

	if e.opts.mismatch == MismatchIgnore {
		e.opts.logger.Debug("type mismatch ignored", attrs...)
		ts.Next()

		return nil
	}

	return ErrTypeMismatch.WithPosition(tok.Pos).With(attrs...).
		Wrapf("variable %q is of type %s but expecting %s", tok.Text, got, want)
}

// dropped releases a value removed from a table, logging close failures.
func (e *Environment) dropped(v Value) {
	if err := v.release(); err != nil {
		e.opts.logger.Warn("release", slog.Any("error", err))
	}
}

func undefined(name string) error {
	return ErrUndefinedVariable.With(slog.String("name", name)).
		Wrapf("%q is not defined", name)
}

func unknownType(typeName string) error {
	return ErrUnknownType.With(slog.String("type", typeName)).
		Wrapf("%q is not a known type", typeName)
}

// sortedKeys returns the keys of m in sorted order.
func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

// elementName returns the temporary name an array element is bound to while
// it is parsed.
func elementName(array string, index int) string {
	return fmt.Sprintf("____%s_%d____", array, index)
}
