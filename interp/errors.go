package interp

import (
	"github.com/ardnew/vartab/lang"
)

// Predefined errors (sentinel values).
var (
	// ErrStatement reports a malformed statement outside of the value being
	// bound: a bad type name, a missing '=' or a missing ';'.
	ErrStatement = lang.NewError("invalid statement")

	// ErrInclude reports an include that cannot be resolved, read, or that
	// forms a cycle.
	ErrInclude = lang.NewError("include failed")

	// ErrQuery reports an expression that fails to compile or run.
	ErrQuery = lang.NewError("query failed")

	// ErrFormat reports an unknown output format or an encoding failure.
	ErrFormat = lang.NewError("format failed")
)
