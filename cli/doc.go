// Package cli contains the command line interface for vartab.
//
// # Usage
//
// Sources are evaluated in order: every --source, then the file arguments
// of the command, then stdin when no file is given.
//
//	vartab eval base.vt local.vt
//	vartab fmt json --indent=4 base.vt
//	vartab query 'port + 1' base.vt
//	vartab export profile.vt
//	vartab repl base.vt
//
// # Configuration
//
// Flag defaults are read from the vartab file config.vt in the user config
// directory ([cmd.ConfigIdentifier]) and from config.json beside it. Binding
// names match flag names with hyphens written as underscores:
//
//	string log_level = "debug";
//	bool continue = true;
//	string[] include = { "/etc/vartab" };
//
// Use "vartab init" to write the current flags as a starting point.
//
// # Evaluation Options
//
//   - --include, -I: Add a directory to the include search path
//   - --continue: Skip failing statements instead of stopping
//   - --mismatch: Policy for typed references to another type (error, ignore)
//   - --max-depth: Maximum nesting of arrays and objects
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --log-caller: Include caller information in log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o vartab .
//
// Then --pprof-mode selects the profile and --pprof-dir its output
// directory (default: ~/.cache/vartab/pprof).
package cli
