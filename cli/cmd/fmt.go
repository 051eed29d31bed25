package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/ardnew/vartab/interp"
)

// Fmt evaluates vartab sources and prints the bindings in a chosen format.
type Fmt struct {
	Native Native `cmd:"" default:"withargs" help:"Format as native vartab syntax (default)."`
	JSON   JSON   `cmd:""                    help:"Format as JSON."`
	YAML   YAML   `cmd:""                    help:"Format as YAML."`
}

// Native prints the bindings as vartab statements.
type Native struct {
	Files []string `arg:"" help:"Source files to evaluate after --source, or '-' for stdin" name:"file" optional:"" type:"existingfile"`
}

// Run executes the native command.
func (f *Native) Run(ctx context.Context) error {
	return format(ctx, os.Stdout, interp.FormatNative, 0, f.Files)
}

// JSON prints the bindings as a JSON object.
type JSON struct {
	Indent int `default:"2" help:"Indent width for JSON output (0 for compact)" short:"i"`

	Files []string `arg:"" help:"Source files to evaluate after --source, or '-' for stdin" name:"file" optional:"" type:"existingfile"`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) error {
	return format(ctx, os.Stdout, interp.FormatJSON, j.Indent, j.Files)
}

// YAML prints the bindings as a YAML mapping.
type YAML struct {
	Indent int `default:"2" help:"Indent width for YAML output (0 for flow style)" short:"i"`

	Files []string `arg:"" help:"Source files to evaluate after --source, or '-' for stdin" name:"file" optional:"" type:"existingfile"`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) error {
	return format(ctx, os.Stdout, interp.FormatYAML, y.Indent, y.Files)
}

func format(
	ctx context.Context,
	w io.Writer,
	f interp.Format,
	indent int,
	files []string,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	in, err := load(ctx, "fmt", files...)
	defer in.Close()

	if err != nil {
		return err
	}

	if err := in.Write(ctx, w, f, indent); err != nil {
		return ErrWriteOutput.With(slog.String("format", f.String())).Wrap(err)
	}

	return nil
}
