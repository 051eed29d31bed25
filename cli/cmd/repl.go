package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/ardnew/vartab/cli/cmd/repl"
	"github.com/ardnew/vartab/interp"
	"github.com/ardnew/vartab/log"
)

// Repl starts an interactive session over the bindings of the sources.
type Repl struct {
	Files []string `arg:"" help:"Source files to evaluate before the session starts" name:"file" optional:"" type:"existingfile"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return ErrNoTerminal
	}

	in := newInterpreter(ctx)
	defer in.Close()

	if srcs := sourceFilesFrom(ctx, r.Files...); srcs != nil {
		if srcs.Stdin() != nil {
			return ErrNoTerminal.With(slog.String("source", stdinSource))
		}

		if err := srcs.Eval(ctx, in); err != nil {
			if !settingsFrom(ctx).Continue {
				return ErrEvaluate.With(slog.String("command", "repl")).Wrap(err)
			}

			log.WarnContext(ctx, "starting with partial bindings", slog.Any("error", err))
		}
	}

	var cacheDir string
	if ktx := kongContextFrom(ctx); ktx != nil {
		cacheDir = ktx.Model.Vars()[CacheIdentifier]
	}

	log.DebugContext(ctx, "repl",
		slog.String("cache_dir", cacheDir),
		slog.Int("bindings", in.Env().Len()),
	)

	return repl.Run(ctx, repl.Session{
		Interp:   in,
		New:      func() *interp.Interpreter { return newInterpreter(ctx) },
		CacheDir: cacheDir,
		Logger:   log.Default(),
	})
}
