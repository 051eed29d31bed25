package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/vartab/env"
	"github.com/ardnew/vartab/log"
	"github.com/ardnew/vartab/profile"
)

// Init generates a default configuration file with current flag values.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	// Check if file exists and force not set
	_, err = os.Stat(confPath)
	if err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			With(slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	file, err := os.Create(confPath)
	if err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}
	defer file.Close()

	conf := i.buildConfig(ctx)
	defer conf.Close()

	err = conf.Print(file)
	if err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	log.DebugContext(
		ctx,
		"initialized configuration file",
		slog.String("path", confPath),
		slog.Int("settings", conf.Len()),
	)

	return nil
}

// buildConfig binds the current value of every configurable flag, named
// with underscores in place of hyphens.
func (i *Init) buildConfig(ctx context.Context) *env.Environment {
	ktx := kongContextFrom(ctx)
	conf := env.New()

	prefixIgnore := []string{"help", profile.Tag}

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(prefixIgnore, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		typeName, val, ok := flagValue(ktx, flag)
		if !ok {
			continue
		}

		name := strings.ReplaceAll(flag.Name, "-", "_")
		if err := conf.Set(name, typeName, val); err != nil {
			log.WarnContext(ctx, "skipping flag",
				slog.String("flag", flag.Name),
				slog.Any("error", err),
			)
		}
	}

	return conf
}

// flagValue returns the type name and value of a CLI flag, or false if it
// is unset or has no vartab representation.
func flagValue(ktx *kong.Context, flag *kong.Flag) (string, env.Value, bool) {
	switch v := ktx.FlagValue(flag).(type) {
	case nil:
		return "", env.Value{}, false

	case bool:
		return env.TypeBool, env.Bool(v), true

	case string:
		if v == "" {
			return "", env.Value{}, false
		}

		return env.TypeString, env.String(v), true

	case int:
		return env.TypeInt, env.Int(int64(v)), true

	case int64:
		return env.TypeInt, env.Int(v), true

	case float64:
		return env.TypeDouble, env.Double(v), true

	case []string:
		if len(v) == 0 {
			return "", env.Value{}, false
		}

		elems := make([]env.Value, len(v))
		for i, s := range v {
			elems[i] = env.String(s)
		}

		return env.ArrayOf(env.TypeString), env.Array(env.TypeString, elems...), true

	default:
		return env.TypeString, env.String(fmt.Sprint(v)), true
	}
}
