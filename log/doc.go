// Package log provides leveled structured logging on top of [log/slog].
//
// A [Logger] is configured once, at creation, with functional options:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("Kitchen"),
//		log.WithCaller(true))
//
// Logging methods take a message and typed [slog.Attr] values:
//
//	logger.Info("bound variable", slog.String("name", "x"))
//
// Each level has a context-aware variant (InfoContext, ...). The
// context-unaware variants use [DefaultContextProvider].
//
// # Levels
//
// [LevelTrace], [LevelDebug], [LevelInfo], [LevelWarn] and [LevelError].
// Trace sits below slog's Debug level and renders as "TRACE".
//
// # Output
//
// [FormatJSON] (default) and [FormatText]. With [WithPretty] enabled (the
// default) both are colorized for terminals.
//
// # Default logger
//
// The package-level functions ([Info], [DebugContext], ...) write through a
// default logger reconfigured with [Config].
//
// The zero Logger discards all output.
package log
