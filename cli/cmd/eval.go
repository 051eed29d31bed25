package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/vartab/interp"
	"github.com/ardnew/vartab/log"
)

// Eval evaluates vartab sources and prints the resulting bindings.
type Eval struct {
	Check bool `help:"Only report errors; print nothing" short:"c"`

	Files []string `arg:"" help:"Source files to evaluate after --source, or '-' for stdin" name:"file" optional:"" type:"existingfile"`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	in, err := load(ctx, "eval", e.Files...)
	defer in.Close()

	log.DebugContext(ctx, "evaluated",
		slog.Int("bindings", in.Env().Len()),
		slog.Bool("failed", err != nil),
	)

	// With --continue the bindings that did succeed are still printed.
	if e.Check || (err != nil && !settingsFrom(ctx).Continue) {
		return err
	}

	if werr := in.Write(ctx, os.Stdout, interp.FormatNative, 0); werr != nil {
		return ErrWriteOutput.Wrap(werr)
	}

	return err
}
