package env

import (
	"github.com/ardnew/vartab/log"
)

// MismatchPolicy decides what happens when a value names a variable bound
// under a different type than the one being read.
type MismatchPolicy int

const (
	// MismatchError fails the bind with [ErrTypeMismatch].
	MismatchError MismatchPolicy = iota

	// MismatchIgnore logs the mismatch at debug level, consumes the
	// reference and leaves the target unbound. The bind reports success.
	MismatchIgnore
)

func (p MismatchPolicy) String() string {
	if p == MismatchIgnore {
		return "ignore"
	}

	return "error"
}

// DefaultMaxDepth is the default limit on array literal nesting.
const DefaultMaxDepth = 100

// Option configures an [Environment].
type Option func(*options)

type options struct {
	builder   Builder
	hierarchy Hierarchy
	logger    log.Logger
	mismatch  MismatchPolicy
	maxDepth  int
}

func makeOptions(opts ...Option) options {
	o := options{
		builder:  PrimitiveBuilder{},
		maxDepth: DefaultMaxDepth,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return o
}

// WithBuilder sets the Builder used for non-array values.
// A nil Builder restores [PrimitiveBuilder].
func WithBuilder(b Builder) Option {
	return func(o *options) {
		if b == nil {
			b = PrimitiveBuilder{}
		}

		o.builder = b
	}
}

// WithHierarchy sets the composite type hierarchy. Without one, only
// primitive types and arrays of them are known.
func WithHierarchy(h Hierarchy) Option {
	return func(o *options) { o.hierarchy = h }
}

// WithLogger sets the logger. Binds are logged at trace level.
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMismatchPolicy sets the handling of type-mismatched references.
func WithMismatchPolicy(p MismatchPolicy) Option {
	return func(o *options) { o.mismatch = p }
}

// WithMaxDepth sets the maximum nesting depth of array literals.
// Values less than 1 restore [DefaultMaxDepth].
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		if depth < 1 {
			depth = DefaultMaxDepth
		}

		o.maxDepth = depth
	}
}
