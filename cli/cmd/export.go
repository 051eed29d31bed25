package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ardnew/vartab/interp"
	"github.com/ardnew/vartab/log"
)

// Export evaluates vartab sources and prints a shell statement for every
// Var object bound, in variable name order. Use it as
//
//	eval "$(vartab export env.vt)"
type Export struct {
	Files []string `arg:"" help:"Source files to evaluate after --source, or '-' for stdin" name:"file" optional:"" type:"existingfile"`
}

// Run executes the export command.
func (x *Export) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	in, err := load(ctx, "export", x.Files...)
	defer in.Close()

	if err != nil {
		return err
	}

	return writeExports(ctx, os.Stdout, in)
}

func writeExports(ctx context.Context, w io.Writer, in *interp.Interpreter) error {
	e := in.Env()

	for _, name := range e.Names() {
		v, err := e.Get(name)
		if err != nil {
			continue
		}

		for _, variable := range variables(v.Native()) {
			log.TraceContext(ctx, "export",
				slog.String("binding", name),
				slog.String("variable", variable.Name),
			)

			if _, err := fmt.Fprintln(w, variable.Shell()); err != nil {
				return ErrWriteOutput.Wrap(err)
			}
		}
	}

	return nil
}
