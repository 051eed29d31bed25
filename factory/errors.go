package factory

import (
	"github.com/ardnew/vartab/lang"
)

// Predefined errors (sentinel values).
var (
	// ErrRegister reports an invalid or conflicting registration.
	ErrRegister = lang.NewError("invalid registration")

	// ErrUnknownConcrete reports a construction spec naming a type that is
	// not registered.
	ErrUnknownConcrete = lang.NewError("unknown concrete type")

	// ErrUnknownMember reports an initializer for a member the concrete
	// type does not declare.
	ErrUnknownMember = lang.NewError("unknown member")

	// ErrMissingMember reports a construction spec that omits a required
	// member.
	ErrMissingMember = lang.NewError("missing required member")

	// ErrConstruct reports a failure of a registered Constructor.
	ErrConstruct = lang.NewError("construction failed")
)
