package interp

import (
	"github.com/ardnew/vartab/env"
	"github.com/ardnew/vartab/factory"
	"github.com/ardnew/vartab/log"
)

// DefaultMaxIncludeDepth is the default limit on nested includes.
// Users may modify this before creating an Interpreter.
var DefaultMaxIncludeDepth = 32

// SearchPathEnv is the environment variable holding extra include
// directories, separated by [os.PathListSeparator].
const SearchPathEnv = "VARTAB_PATH"

// Option configures an [Interpreter].
type Option func(*Interpreter)

// WithLogger sets the structured logger. Statements are logged at debug
// level, includes at info level. The logger is also passed to the
// Environment.
func WithLogger(logger log.Logger) Option {
	return func(in *Interpreter) {
		in.logger = logger
	}
}

// WithContinueOnError makes evaluation skip to the next ';' after a failed
// statement instead of stopping. All errors are returned joined.
func WithContinueOnError(cont bool) Option {
	return func(in *Interpreter) {
		in.opts.continueOnError = cont
	}
}

// WithSearchPath prepends dirs to the include search path.
func WithSearchPath(dirs ...string) Option {
	return func(in *Interpreter) {
		in.opts.searchPath = append(in.opts.searchPath, dirs...)
	}
}

// WithMaxIncludeDepth sets the maximum nesting of includes.
func WithMaxIncludeDepth(depth int) Option {
	return func(in *Interpreter) {
		in.opts.maxIncludeDepth = depth
	}
}

// WithRegistry installs the object factory used to construct composite
// values.
func WithRegistry(r *factory.Registry) Option {
	return func(in *Interpreter) {
		in.registry = r
	}
}

// WithEnvOptions passes options to the Environment. They are applied after
// the registry and logger options.
func WithEnvOptions(opts ...env.Option) Option {
	return func(in *Interpreter) {
		in.opts.envOptions = append(in.opts.envOptions, opts...)
	}
}

// WithProcessEnv sets the "KEY=VALUE" list behind the env() query
// function. Without it the process environment is used.
func WithProcessEnv(environ []string) Option {
	return func(in *Interpreter) {
		in.opts.processEnv = environ
	}
}

type options struct {
	envOptions      []env.Option
	searchPath      []string
	processEnv      []string
	maxIncludeDepth int
	continueOnError bool
}

func applyDefaults(in *Interpreter) {
	in.opts.maxIncludeDepth = DefaultMaxIncludeDepth
}

func applyOptions(in *Interpreter, opts ...Option) {
	for _, opt := range opts {
		if opt != nil {
			opt(in)
		}
	}
}
