package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/vartab/env"
	"github.com/ardnew/vartab/interp"
	"github.com/ardnew/vartab/log"
)

// ContextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// Settings holds the evaluation flags shared by every command that reads
// vartab sources.
type Settings struct {
	Include  []string `help:"Add a directory to the include search path" placeholder:"DIR"                  short:"I" type:"existingdir"`
	Continue bool     `help:"Keep evaluating after a failed statement"`
	Mismatch string   `default:"error"                                  enum:"error,ignore"                  help:"Action on a reference of the wrong type (${enum})"`
	MaxDepth int      `default:"${maxDepth}"                            help:"Maximum nesting depth of values"`
}

type settingsKey struct{}

// Vars returns the kong variables referenced by the Settings flags.
func (Settings) Vars() kong.Vars {
	return kong.Vars{"maxDepth": strconv.Itoa(env.DefaultMaxDepth)}
}

// Group returns the kong flag group of the Settings flags.
func (Settings) Group() kong.Group {
	return kong.Group{Key: "eval", Title: "Evaluation options"}
}

// WithSettings returns a new context.Context containing s.
func WithSettings(ctx context.Context, s Settings) context.Context {
	return context.WithValue(ctx, settingsKey{}, s)
}

// settingsFrom returns the Settings stored in ctx by WithSettings, or the
// defaults.
func settingsFrom(ctx context.Context) Settings {
	s, ok := ctx.Value(settingsKey{}).(Settings)
	if !ok {
		s = Settings{Mismatch: "error", MaxDepth: env.DefaultMaxDepth}
	}

	return s
}

func (s Settings) policy() env.MismatchPolicy {
	if s.Mismatch == env.MismatchIgnore.String() {
		return env.MismatchIgnore
	}

	return env.MismatchError
}

// newInterpreter returns an Interpreter configured from the Settings in ctx,
// with the [Catalog] types registered.
func newInterpreter(ctx context.Context) *interp.Interpreter {
	s := settingsFrom(ctx)

	return interp.New(
		interp.WithLogger(log.Default()),
		interp.WithRegistry(Catalog()),
		interp.WithContinueOnError(s.Continue),
		interp.WithSearchPath(s.Include...),
		interp.WithEnvOptions(
			env.WithMismatchPolicy(s.policy()),
			env.WithMaxDepth(s.MaxDepth),
		),
	)
}

// load evaluates the global sources in ctx followed by files, or stdin if
// there are none. The returned Interpreter is never nil and holds whatever
// was bound before an error.
func load(ctx context.Context, command string, files ...string) (*interp.Interpreter, error) {
	in := newInterpreter(ctx)

	srcs := sourceFilesFrom(ctx, files...)
	if srcs == nil {
		srcs = buildSourceFiles([]string{stdinSource})
	}

	log.TraceContext(ctx, "load sources",
		slog.String("command", command),
		slog.Any("files", srcs.Paths()),
		slog.Bool("stdin", srcs.Stdin() != nil),
	)

	if err := srcs.Eval(ctx, in); err != nil {
		return in, ErrEvaluate.With(slog.String("command", command)).Wrap(err)
	}

	return in, nil
}

type (
	sourceFilesKey struct{}
	sourceFiles    struct {
		paths []string
		stdin io.Reader
	}

	// SourceFiles is an ordered, deduplicated list of vartab sources.
	SourceFiles interface {
		IsZero() bool
		Paths() []string
		Stdin() io.Reader
		Eval(ctx context.Context, in *interp.Interpreter) error
	}
)

// IsZero reports whether there are no source files.
func (s *sourceFiles) IsZero() bool { return len(s.paths) == 0 && s.stdin == nil }

// Paths returns the resolved paths of the regular source files in order.
func (s *sourceFiles) Paths() []string { return slices.Clone(s.paths) }

// Stdin returns os.Stdin if stdin was included as a source, or nil otherwise.
func (s *sourceFiles) Stdin() io.Reader { return s.stdin }

// Eval evaluates every source file into in, then stdin if present.
// Files are evaluated by path so their includes resolve relative to them.
// With continue-on-error enabled every source is evaluated and the errors
// are joined.
func (s *sourceFiles) Eval(ctx context.Context, in *interp.Interpreter) error {
	cont := settingsFrom(ctx).Continue

	var errs []error

	for _, path := range s.paths {
		if err := in.EvalFile(ctx, path); err != nil {
			if !cont {
				return err
			}

			errs = append(errs, err)
		}
	}

	if s.stdin != nil {
		if err := in.Eval(ctx, s.stdin); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// WithSourceFiles returns a new context.Context containing the global source
// file arguments.
func WithSourceFiles(ctx context.Context, sources []string) context.Context {
	return context.WithValue(ctx, sourceFilesKey{}, slices.Clone(sources))
}

// sourceFilesFrom returns the global sources stored in ctx by
// WithSourceFiles followed by extra. Returns nil if there are none.
func sourceFilesFrom(ctx context.Context, extra ...string) SourceFiles {
	sources, _ := ctx.Value(sourceFilesKey{}).([]string)

	return buildSourceFiles(append(slices.Clone(sources), extra...))
}

// buildSourceFiles constructs a SourceFiles from the given source paths.
// It deduplicates files by resolving symlinks and comparing device/inode
// pairs. All occurrences of "-" are replaced with a single stdin source
// evaluated after all regular files.
func buildSourceFiles(sources []string) SourceFiles {
	if len(sources) == 0 {
		return nil
	}

	var srcs sourceFiles

	srcs.paths = make([]string, 0, len(sources))
	seen := make(map[fileKey]struct{})

	stdinKey, stdinOK := fileKey{}, false
	if stdinInfo, err := os.Stdin.Stat(); err == nil {
		stdinKey, stdinOK = makeFileKey(stdinInfo)
	}

	hasStdin := false

	for _, src := range sources {
		if src == stdinSource {
			hasStdin = true

			continue
		}

		path, key, ok := uniquePath(src, seen)
		if !ok {
			continue
		}

		// A named file that is stdin (e.g. /dev/stdin) is read once, last.
		if stdinOK && key == stdinKey {
			hasStdin = true

			continue
		}

		srcs.paths = append(srcs.paths, path)
	}

	if hasStdin {
		srcs.stdin = os.Stdin
	}

	if srcs.IsZero() {
		return nil
	}

	return &srcs
}

// uniquePath resolves path if its file hasn't been seen before.
// It resolves symlinks and uses device/inode to detect duplicates.
// Returns the resolved path, its key and true if successful, or false if the
// file is a duplicate or cannot be inspected.
func uniquePath(path string, seen map[fileKey]struct{}) (string, fileKey, bool) {
	// Resolve to absolute path to handle relative path duplicates.
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fileKey{}, false
	}

	// Resolve symlinks to their target.
	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return "", fileKey{}, false
	}

	// Get file info to extract device and inode.
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fileKey{}, false
	}

	key, ok := makeFileKey(info)
	if !ok {
		return "", fileKey{}, false
	}

	if _, exists := seen[key]; exists {
		return "", fileKey{}, false
	}

	seen[key] = struct{}{}

	return resolved, key, true
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: uint64(stat.Ino)}, true
}
