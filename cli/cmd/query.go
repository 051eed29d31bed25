package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Query evaluates vartab sources and prints the result of an expression
// over the bindings.
type Query struct {
	JSON bool `help:"Print the result as JSON" short:"j"`

	Expression string   `arg:"" help:"Expression over the bindings and builtins, e.g. 'len(hosts) > 1'" name:"expr"`
	Files      []string `arg:"" help:"Source files to evaluate after --source, or '-' for stdin"         name:"file" optional:"" type:"existingfile"`
}

// Run executes the query command.
func (q *Query) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	in, err := load(ctx, "query", q.Files...)
	defer in.Close()

	if err != nil {
		return err
	}

	result, err := in.Query(ctx, q.Expression)
	if err != nil {
		return err
	}

	return printResult(os.Stdout, result, q.JSON)
}

func printResult(w io.Writer, result any, asJSON bool) error {
	if asJSON {
		if err := json.NewEncoder(w).Encode(result); err != nil {
			return ErrWriteOutput.Wrap(err)
		}

		return nil
	}

	if _, err := fmt.Fprintln(w, result); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}
