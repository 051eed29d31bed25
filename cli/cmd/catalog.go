package cmd

import (
	"os"
	"strings"
	"sync"

	"github.com/ardnew/mung"

	"github.com/ardnew/vartab/factory"
)

// VarBase is the base type of every object in the [Catalog].
const VarBase = "Var"

// Variable is the value of a Var object: a process environment variable
// to export or unset.
type Variable struct {
	Name  string
	Value string
	Unset bool
}

// Shell returns the POSIX shell statement applying v.
func (v Variable) Shell() string {
	if v.Unset {
		return "unset " + v.Name
	}

	return "export " + v.Name + "=" + shellQuote(v.Value)
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Catalog returns the object types known to every command:
//
//	Var: Export(name string!, value string!)
//	Var: PathList(name string!, items string[], inherit bool, existing bool)
//	Var: Unset(name string!)
//
// PathList joins items with the OS path list separator, prepended to the
// current value of name when inherit is set. With existing set, entries
// that are not directories are dropped.
var Catalog = sync.OnceValue(func() *factory.Registry {
	r := factory.NewRegistry()

	name := factory.Member{Name: "name", Type: "string", Required: true}

	r.MustRegister(VarBase, "Export", func(s *factory.Spec) (any, error) {
		n, err := factory.Get[string](s, "name")
		if err != nil {
			return nil, err
		}

		v, err := factory.Get[string](s, "value")

		return Variable{Name: n, Value: v}, err
	}, name, factory.Member{Name: "value", Type: "string", Required: true})

	r.MustRegister(VarBase, "PathList", newPathList,
		name,
		factory.Member{Name: "items", Type: "string[]"},
		factory.Member{Name: "inherit", Type: "bool"},
		factory.Member{Name: "existing", Type: "bool"},
	)

	r.MustRegister(VarBase, "Unset", func(s *factory.Spec) (any, error) {
		n, err := factory.Get[string](s, "name")

		return Variable{Name: n, Unset: true}, err
	}, name)

	return r
})

func newPathList(s *factory.Spec) (any, error) {
	n, err := factory.Get[string](s, "name")
	if err != nil {
		return nil, err
	}

	items, err := factory.Get[[]string](s, "items")
	if err != nil {
		return nil, err
	}

	inherit, err := factory.Get[bool](s, "inherit")
	if err != nil {
		return nil, err
	}

	existing, err := factory.Get[bool](s, "existing")
	if err != nil {
		return nil, err
	}

	var subject string
	if inherit {
		subject = os.Getenv(n)
	}

	delim := string(os.PathListSeparator)

	if existing {
		return Variable{Name: n, Value: mung.Make(
			mung.WithSubjectItems(subject),
			mung.WithDelim(delim),
			mung.WithPrefixItems(items...),
			mung.WithFilter(isDir),
		).String()}, nil
	}

	return Variable{Name: n, Value: mung.Make(
		mung.WithSubjectItems(subject),
		mung.WithDelim(delim),
		mung.WithPrefixItems(items...),
	).String()}, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

// variables returns the Variables held by v, a native binding value: a
// Variable or a slice containing Variables.
func variables(v any) []Variable {
	switch v := v.(type) {
	case Variable:
		return []Variable{v}

	case []any:
		var out []Variable
		for _, e := range v {
			out = append(out, variables(e)...)
		}

		return out
	}

	return nil
}
