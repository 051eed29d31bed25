package interp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/ardnew/mung"
	"github.com/klauspost/readahead"

	"github.com/ardnew/vartab/env"
	"github.com/ardnew/vartab/factory"
	"github.com/ardnew/vartab/lang"
	"github.com/ardnew/vartab/log"
)

// Interpreter evaluates statements into an Environment it owns.
//
// An Interpreter is not safe for concurrent use.
type Interpreter struct {
	env      *env.Environment
	registry *factory.Registry
	logger   log.Logger
	includes []string // files being evaluated, outermost first
	opts     options
}

// New returns an Interpreter with an empty Environment.
func New(opts ...Option) *Interpreter {
	in := &Interpreter{}

	applyDefaults(in)
	applyOptions(in, opts...)

	envOpts := []env.Option{env.WithLogger(in.logger)}
	if in.registry != nil {
		envOpts = append(envOpts, in.registry.Options()...)
	}

	in.env = env.New(append(envOpts, in.opts.envOptions...)...)

	return in
}

// Env returns the Environment statements are bound in.
func (in *Interpreter) Env() *env.Environment { return in.env }

// Registry returns the object factory, which may be nil.
func (in *Interpreter) Registry() *factory.Registry { return in.registry }

// Close releases the Environment.
func (in *Interpreter) Close() error { return in.env.Close() }

// EvalString evaluates the statements in src.
func (in *Interpreter) EvalString(ctx context.Context, src string) error {
	return in.eval(ctx, src, "")
}

// Eval evaluates the statements read from r. Relative includes are
// resolved against the working directory.
func (in *Interpreter) Eval(ctx context.Context, r io.Reader) error {
	data, err := readAll(r)
	if err != nil {
		return lang.ErrReadInput.Wrap(err).
			With(slog.String("source", "reader"))
	}

	in.logger.TraceContext(ctx, "read input",
		slog.Int("source_bytes", len(data)),
		slog.Bool("read_ahead", true),
	)

	return in.eval(ctx, string(data), "")
}

// EvalFile evaluates the statements in the file at path. Relative includes
// are resolved against the file's directory first.
func (in *Interpreter) EvalFile(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return lang.ErrReadInput.Wrap(err).With(slog.String("file", path))
	}

	return in.evalFile(ctx, abs)
}

func (in *Interpreter) evalFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return lang.ErrReadInput.Wrap(err).With(slog.String("file", path))
	}

	defer f.Close()

	data, err := readAll(f)
	if err != nil {
		return lang.ErrReadInput.Wrap(err).With(slog.String("file", path))
	}

	in.includes = append(in.includes, path)
	defer func() { in.includes = in.includes[:len(in.includes)-1] }()

	in.logger.DebugContext(ctx, "evaluate file",
		slog.String("file", path),
		slog.Int("source_bytes", len(data)),
		slog.Int("include_depth", len(in.includes)-1),
	)

	return in.eval(ctx, string(data), path)
}

// readAll reads r through an asynchronous read-ahead buffer.
func readAll(r io.Reader) ([]byte, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	return io.ReadAll(ra)
}

func (in *Interpreter) eval(ctx context.Context, src, file string) error {
	s, err := lang.NewStreamFromString(src)
	if err != nil {
		return inFile(err, file)
	}

	var errs []error

	for !s.Done() {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}

		err := in.statement(ctx, s, file)
		if err == nil {
			continue
		}

		err = inFile(err, file)
		if !in.opts.continueOnError {
			return err
		}

		in.logger.WarnContext(ctx, "skip statement", slog.Any("error", err))

		errs = append(errs, err)

		// A statement that failed after its ';' (a failed include) has
		// already been consumed.
		if s.PeekPrev().Kind != lang.KindSemicolon {
			s.SkipPast(lang.KindSemicolon)
		}
	}

	return errors.Join(errs...)
}

// inFile attaches the source file name to err.
func inFile(err error, file string) error {
	var le *lang.Error
	if file == "" || !errors.As(err, &le) || le != err {
		return err
	}

	return le.With(slog.String("file", file))
}

// statement evaluates one statement
//
//	Statement → [Type] name '=' Value ';' | include "path" ';' | ';'
//	Type      → name ('[' ']')*
func (in *Interpreter) statement(
	ctx context.Context,
	s *lang.Stream,
	file string,
) error {
	tok := s.Peek()

	switch {
	case tok.Kind == lang.KindSemicolon:
		s.Next()

		return nil

	case tok.Is(lang.KindIdent, "include") && s.PeekAt(1).Kind == lang.KindString:
		return in.include(ctx, s, file)
	}

	typeName, name, err := readHead(s)
	if err != nil {
		return err
	}

	if err := in.env.ReadAndSet(name.Text, s, typeName); err != nil {
		return err
	}

	if err := expectEnd(s, "value of "+name.Quote()); err != nil {
		return err
	}

	bound, _ := in.env.GetType(name.Text)

	in.logger.DebugContext(ctx, "statement",
		slog.String("name", name.Text),
		slog.String("type", bound),
		slog.Bool("inferred", typeName == ""),
		slog.String("position", name.Pos.String()),
	)

	return nil
}

// readHead reads the type name (empty if omitted), the variable name and
// the '=' of a binding statement.
func readHead(s *lang.Stream) (string, lang.Token, error) {
	first := s.Next()
	if first.Kind != lang.KindIdent {
		return "", first, ErrStatement.WithPosition(first.Pos).
			Wrapf("expected type or variable name but found %s", first.Quote())
	}

	if s.Peek().Kind == lang.KindAssign {
		s.Next()

		return "", first, nil
	}

	typeName := first.Text

	for s.Peek().Kind == lang.KindLBracket {
		s.Next()

		if tok := s.Peek(); tok.Kind != lang.KindRBracket {
			return "", first, ErrStatement.WithPosition(tok.Pos).
				Wrapf("expected ']' in type %s but found %s", typeName, tok.Quote())
		}

		s.Next()

		typeName += env.ArraySuffix
	}

	name := s.Next()
	if name.Kind != lang.KindIdent {
		return "", name, ErrStatement.WithPosition(name.Pos).
			Wrapf("expected variable name after type %s but found %s",
				typeName, name.Quote())
	}

	if tok := s.Peek(); tok.Kind != lang.KindAssign {
		return "", name, ErrStatement.WithPosition(tok.Pos).
			Wrapf("expected '=' after %s but found %s", name.Quote(), tok.Quote())
	}

	s.Next()

	return typeName, name, nil
}

func expectEnd(s *lang.Stream, what string) error {
	tok := s.Peek()
	if tok.Kind != lang.KindSemicolon {
		return ErrStatement.WithPosition(tok.Pos).
			Wrapf("expected ';' after %s but found %s", what, tok.Quote())
	}

	s.Next()

	return nil
}

func (in *Interpreter) include(
	ctx context.Context,
	s *lang.Stream,
	file string,
) error {
	kw := s.Next()
	arg := s.Next()

	if err := expectEnd(s, "include"); err != nil {
		return err
	}

	name, err := arg.Unquote()
	if err != nil {
		return ErrInclude.WithPosition(arg.Pos).Wrap(err)
	}

	path, err := in.resolve(name, file)
	if err != nil {
		return ErrInclude.WithPosition(arg.Pos).
			With(slog.String("include", name)).
			Wrap(err)
	}

	switch {
	case slices.Contains(in.includes, path):
		return ErrInclude.WithPosition(kw.Pos).
			With(slog.String("include", path)).
			Wrapf("include cycle through %s", path)

	case len(in.includes) >= in.opts.maxIncludeDepth:
		return ErrInclude.WithPosition(kw.Pos).
			With(slog.String("include", path)).
			Wrapf("includes nested deeper than %d", in.opts.maxIncludeDepth)
	}

	in.logger.InfoContext(ctx, "include", slog.String("file", path))

	if err := in.evalFile(ctx, path); err != nil {
		return ErrInclude.WithPosition(kw.Pos).
			With(slog.String("include", path)).
			Wrap(err)
	}

	return nil
}

// resolve returns the absolute path of the include name written in file.
// Relative names are tried against the directory of file (or the working
// directory), then each directory of the search path.
func (in *Interpreter) resolve(name, file string) (string, error) {
	if filepath.IsAbs(name) {
		if !fileIsRegular(name) {
			return "", os.ErrNotExist
		}

		return filepath.Clean(name), nil
	}

	dir := getCwd()
	if file != "" {
		dir = filepath.Dir(file)
	}

	for _, d := range append([]string{dir}, in.SearchPath()...) {
		if p := filepath.Join(d, name); fileIsRegular(p) {
			return pathAbs(p), nil
		}
	}

	return "", os.ErrNotExist
}

// SearchPath returns the include search path: the directories configured
// with [WithSearchPath] followed by those listed in [SearchPathEnv].
// Directories that do not exist are omitted.
func (in *Interpreter) SearchPath() []string {
	joined := mung.Make(
		mung.WithSubjectItems(os.Getenv(SearchPathEnv)),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(in.opts.searchPath...),
		mung.WithFilter(fileIsDir),
	).String()

	return filepath.SplitList(joined)
}
