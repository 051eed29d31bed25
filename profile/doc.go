// Package profile provides optional runtime profiling through
// [github.com/pkg/profile].
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof .
//
// Without the tag, [Modes] is empty and [Profiler.Start] returns a no-op
// [Stopper], so callers never need build tags of their own.
//
// # Modes
//
//	allocs block clock cpu goroutine heap mem mutex thread trace
//
// Each mode writes <mode>.pprof (trace.out for trace) into [Profiler.Path].
// Analyze the output with:
//
//	go tool pprof -http=: $(vartab --help | grep -o '/.*pprof')/cpu.pprof
//
// Builds with the tag also register the [net/http/pprof] handlers on
// [net/http.DefaultServeMux].
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
