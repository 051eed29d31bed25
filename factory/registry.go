package factory

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/ardnew/vartab/env"
	"github.com/ardnew/vartab/lang"
)

// Constructor builds the Go value wrapped by a new object from its
// initialized members. If the value implements [io.Closer] it is closed
// when the last Environment holding the object releases it.
type Constructor func(s *Spec) (any, error)

// Member declares one initializer a concrete type accepts.
type Member struct {
	// Name is the initializer name, an identifier.
	Name string
	// Type is the member type name. Empty means the type is inferred from
	// the initializer.
	Type string
	// Required members must be initialized in every spec.
	Required bool
}

type concrete struct {
	ctor    Constructor
	index   map[string]int
	name    string
	base    string
	members []Member
}

// Registry is the set of constructible concrete types. It implements
// [env.Builder] and [env.Hierarchy].
//
// A Registry is safe for concurrent use; types may be registered while
// Environments built on it are parsing.
type Registry struct {
	concretes map[string]*concrete
	bases     map[string]struct{}
	mu        sync.RWMutex
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		concretes: make(map[string]*concrete),
		bases:     make(map[string]struct{}),
	}
}

// Register adds the concrete type name implementing base.
//
// Both names must be identifiers that are not primitive type names, a base
// cannot also be a concrete type, and a concrete type is registered once.
func (r *Registry) Register(
	base, name string,
	ctor Constructor,
	members ...Member,
) error {
	fail := func(format string, args ...any) error {
		return ErrRegister.
			With(slog.String("base", base), slog.String("concrete", name)).
			Wrapf(format, args...)
	}

	switch {
	case !validTypeName(base):
		return fail("invalid base type name %q", base)

	case !validTypeName(name):
		return fail("invalid concrete type name %q", name)

	case base == name:
		return fail("type %q cannot be its own base", name)

	case ctor == nil:
		return fail("nil constructor for %s", name)
	}

	c := &concrete{
		ctor:    ctor,
		index:   make(map[string]int, len(members)),
		name:    name,
		base:    base,
		members: slices.Clone(members),
	}

	for i, m := range members {
		if !lang.IsIdentifier(m.Name) {
			return fail("invalid member name %q", m.Name)
		}

		if _, dup := c.index[m.Name]; dup {
			return fail("member %q declared twice", m.Name)
		}

		c.index[m.Name] = i
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.concretes[name]; ok {
		return fail("%s already registered", name)
	}

	if _, ok := r.bases[name]; ok {
		return fail("%s is already a base type", name)
	}

	if _, ok := r.concretes[base]; ok {
		return fail("%s is already a concrete type", base)
	}

	r.concretes[name] = c
	r.bases[base] = struct{}{}

	return nil
}

// MustRegister is like [Registry.Register] but panics on error.
func (r *Registry) MustRegister(
	base, name string,
	ctor Constructor,
	members ...Member,
) {
	if err := r.Register(base, name, ctor, members...); err != nil {
		panic(err)
	}
}

func validTypeName(name string) bool {
	return lang.IsIdentifier(name) && !env.IsPrimitive(name) && name != "nullptr"
}

// BaseOf returns the base type of the concrete type name.
func (r *Registry) BaseOf(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.concretes[name]
	if !ok {
		return "", false
	}

	return c.base, true
}

// IsBase reports whether name is the base type of a registered concrete
// type.
func (r *Registry) IsBase(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.bases[name]

	return ok
}

// Bases returns the base type names, sorted.
func (r *Registry) Bases() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.bases))
}

// Concretes returns the concrete type names implementing base, sorted.
// An empty base returns every concrete type.
func (r *Registry) Concretes(base string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string

	for name, c := range r.concretes {
		if base == "" || c.base == base {
			out = append(out, name)
		}
	}

	slices.Sort(out)

	return out
}

// Members returns the members declared by the concrete type name.
func (r *Registry) Members(name string) ([]Member, bool) {
	c, ok := r.lookup(name)
	if !ok {
		return nil, false
	}

	return slices.Clone(c.members), true
}

func (r *Registry) lookup(name string) (*concrete, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.concretes[name]

	return c, ok
}

// Options returns the Environment options that install r as builder and
// hierarchy.
func (r *Registry) Options() []env.Option {
	return []env.Option{env.WithHierarchy(r), env.WithBuilder(r)}
}

// NewEnvironment returns an empty Environment using r. The opts are applied
// after r's own options.
func (r *Registry) NewEnvironment(opts ...env.Option) *env.Environment {
	return env.New(append(r.Options(), opts...)...)
}

// Print writes one line per concrete type, grouped by base:
//
//	Animal: Cow(name string!, weight double)
//
// Required members are marked with '!'; inferred member types print as
// "auto".
func (r *Registry) Print(w io.Writer) error {
	for _, base := range r.Bases() {
		for _, name := range r.Concretes(base) {
			c, _ := r.lookup(name)

			members := make([]string, len(c.members))
			for i, m := range c.members {
				typeName := m.Type
				if typeName == "" {
					typeName = "auto"
				}

				members[i] = m.Name + " " + typeName
				if m.Required {
					members[i] += "!"
				}
			}

			_, err := fmt.Fprintf(w, "%s: %s(%s)\n",
				base, name, strings.Join(members, ", "))
			if err != nil {
				return err
			}
		}
	}

	return nil
}
