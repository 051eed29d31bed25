package env

import (
	"github.com/ardnew/vartab/lang"
)

// Predefined errors (sentinel values). Errors returned by this package
// match one of these with [errors.Is] and carry the source position of the
// offending token when one is known.
var (
	// ErrSyntax reports malformed input: a missing '{', a missing ',' or
	// '}', a trailing comma, end of input inside a literal, a literal of the
	// wrong kind, or a failed type inference.
	ErrSyntax = lang.NewError("syntax error")

	// ErrUndefinedVariable reports a lookup of a name that is not bound.
	ErrUndefinedVariable = lang.NewError("undefined variable")

	// ErrTypeMismatch reports a reference to a variable bound under a
	// different type than the one being read.
	ErrTypeMismatch = lang.NewError("type mismatch")

	// ErrInternal reports a broken invariant, such as an array element that
	// was not bound after a successful element parse.
	ErrInternal = lang.NewError("internal error")

	// ErrUnknownType reports a type name that is neither primitive nor known
	// to the configured type hierarchy.
	ErrUnknownType = lang.NewError("unknown type")

	// ErrBuild reports a failure of the configured Builder that is not a
	// syntax error.
	ErrBuild = lang.NewError("build failed")

	// ErrClose reports a failure to close a composite object after its last
	// reference was released.
	ErrClose = lang.NewError("close failed")
)
