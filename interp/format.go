package interp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/vartab/env"
)

// Format is an output encoding of an Environment.
type Format int

const (
	// FormatNative prints one "<Type> <name> = <literal>;" statement per
	// binding. The output evaluates back to the same primitive bindings.
	FormatNative Format = iota
	// FormatJSON encodes the bindings as a JSON object.
	FormatJSON
	// FormatYAML encodes the bindings as a YAML mapping.
	FormatYAML
)

var formatName = [...]string{
	FormatNative: "native",
	FormatJSON:   "json",
	FormatYAML:   "yaml",
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatName) {
		return fmt.Sprintf("Format(%d)", int(f))
	}

	return formatName[f]
}

// Formats returns the names of the output formats.
func Formats() []string { return slices.Clone(formatName[:]) }

// ParseFormat returns the Format named s, ignoring case.
func ParseFormat(s string) (Format, error) {
	for f, name := range formatName {
		if strings.EqualFold(s, name) {
			return Format(f), nil
		}
	}

	return 0, ErrFormat.With(slog.String("format", s)).
		Wrapf("unknown format %q (want one of %s)", s, strings.Join(Formats(), ", "))
}

// Write encodes the bindings of the Environment to w. An indent of zero
// selects compact output for JSON and flow style for YAML.
func (in *Interpreter) Write(
	ctx context.Context,
	w io.Writer,
	f Format,
	indent int,
) error {
	var err error

	switch f {
	case FormatNative:
		err = in.env.Print(w)

	case FormatJSON:
		err = writeJSON(w, in.Export(), indent)

	case FormatYAML:
		err = writeYAML(ctx, w, in.exportOrdered(), indent)

	default:
		return ErrFormat.With(slog.Int("format", int(f))).
			Wrapf("unknown format %s", f)
	}

	if err != nil {
		return ErrFormat.With(slog.String("format", f.String())).Wrap(err)
	}

	return nil
}

// Export returns every binding as a plain value suitable for encoding.
// Objects become their "<Concrete#id>" tag (nil for nullptr); infinities
// and NaN become the strings "inf", "-inf" and "nan".
func (in *Interpreter) Export() map[string]any {
	e := in.env
	out := make(map[string]any, e.Len())

	for _, name := range e.Names() {
		if v, err := e.Get(name); err == nil {
			out[name] = exportValue(v)
		}
	}

	return out
}

func (in *Interpreter) exportOrdered() yaml.MapSlice {
	e := in.env
	out := make(yaml.MapSlice, 0, e.Len())

	for _, name := range e.Names() {
		if v, err := e.Get(name); err == nil {
			out = append(out, yaml.MapItem{Key: name, Value: exportValue(v)})
		}
	}

	return out
}

func exportValue(v env.Value) any {
	switch v.Kind() {
	case env.KindDouble:
		if f, _ := v.AsDouble(); math.IsInf(f, 0) || math.IsNaN(f) {
			return v.Literal()
		}

	case env.KindObject:
		if o, _ := v.AsObject(); o != nil {
			return o.String()
		}

		return nil

	case env.KindArray:
		elems := v.Elems()
		out := make([]any, len(elems))

		for i, e := range elems {
			out[i] = exportValue(e)
		}

		return out
	}

	return v.Native()
}

func writeJSON(w io.Writer, v any, indent int) error {
	var (
		data []byte
		err  error
	)

	if indent > 0 {
		data, err = json.MarshalIndent(v, "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

func writeYAML(ctx context.Context, w io.Writer, v any, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, v, opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(data))

	return err
}
