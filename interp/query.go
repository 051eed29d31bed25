package interp

import (
	"context"
	"log/slog"
	"maps"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Query evaluates an expr-lang expression over the bindings of the
// Environment and the built-ins (see [BuiltinNames]).
//
// Variables are visible by name as their native Go values: int64, float64,
// string, bool, slices for arrays, and the constructed value for objects.
func (in *Interpreter) Query(ctx context.Context, expression string) (any, error) {
	vars := in.QueryEnv()

	program, err := expr.Compile(expression, expr.Env(vars))
	if err != nil {
		return nil, ErrQuery.Wrap(err).With(slog.String("source", expression))
	}

	result, err := vm.Run(program, vars)
	if err != nil {
		return nil, ErrQuery.Wrap(err).With(slog.String("source", expression))
	}

	in.logger.TraceContext(ctx, "query",
		slog.String("source", expression),
		slog.Any("result", result),
	)

	return result, nil
}

// QueryEnv returns the variables visible to [Interpreter.Query].
func (in *Interpreter) QueryEnv() map[string]any {
	vars := makeBuiltins()
	vars["env"] = envFunc(buildProcessEnvMap(in.opts.processEnv))

	maps.Copy(vars, in.env.Snapshot())

	return vars
}
