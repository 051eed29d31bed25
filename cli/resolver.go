package cli

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/vartab/interp"
	"github.com/ardnew/vartab/log"
)

// resolve returns a [kong.ConfigurationLoader] that evaluates config files
// written in the vartab language.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolve(ctx), "/path/to/config")
//
// Every binding in the file configures the flag of the same name:
//   - Flag names with hyphens (e.g., "log-level") use underscores in the
//     config file (e.g., "log_level")
//   - Arrays configure repeatable flags
//   - Objects are ignored
//
// Example config file:
//
//	string log_level = "debug";
//	string log_format = "json";
//	bool log_pretty = true;
//	string[] include = { "/etc/vartab" };
//
// Command-line flags override config file values. A config file that fails
// to evaluate is logged and otherwise ignored.
func resolve(ctx context.Context) func(r io.Reader) (kong.Resolver, error) {
	return func(r io.Reader) (kong.Resolver, error) {
		in := interp.New(interp.WithLogger(log.Default()))
		defer in.Close()

		if err := in.Eval(ctx, r); err != nil {
			log.WarnContext(ctx, "ignoring config", slog.String("error", err.Error()))

			return config{}, nil
		}

		return makeConfig(in.Env().Snapshot()), nil
	}
}

// config implements [kong.Resolver] for vartab configs.
type config map[string]any

// makeConfig converts native binding values to the forms kong's mappers
// accept: numbers become strings and slices become []any.
func makeConfig(vars map[string]any) config {
	c := make(config, len(vars))

	for name, v := range vars {
		if v, ok := flagValue(v); ok {
			c[name] = v
		}
	}

	return c
}

func flagValue(v any) (any, bool) {
	switch v := v.(type) {
	case bool, string:
		return v, true

	case int64:
		return strconv.FormatInt(v, 10), true

	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}

	out := make([]any, 0, rv.Len())

	for i := range rv.Len() {
		e, ok := flagValue(rv.Index(i).Interface())
		if !ok {
			return nil, false
		}

		out = append(out, e)
	}

	return out, true
}

// Validate implements [kong.Resolver].
func (r config) Validate(*kong.Application) error {
	return nil
}

// Resolve implements [kong.Resolver].
func (r config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	// Kong flags use hyphens (e.g., "log-level") but vartab identifiers
	// cannot. Try both forms.
	if value, ok := r[flag.Name]; ok {
		return value, nil
	}

	if value, ok := r[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return value, nil
	}

	return nil, nil
}
