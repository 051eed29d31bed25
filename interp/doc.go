// Package interp evaluates vartab source into an [env.Environment].
//
// A source is a sequence of statements
//
//	int retries = 3;                 // typed binding
//	timeout = 2.5;                   // type inferred from the value
//	string[] hosts = {"a", "b"};
//	Animal bessie = Cow(name("Bessie"));
//	include "common.vt";             // evaluate another file in place
//
// Include paths are resolved against the including file's directory and
// then the search path (see [WithSearchPath] and [SearchPathEnv]). Each file
// is evaluated at most once per include chain; cycles are errors.
//
// After evaluation the bindings can be printed back as statements, encoded
// as JSON or YAML ([Interpreter.Write]), or queried with expr-lang
// expressions ([Interpreter.Query]):
//
//	len(hosts) > 1 && retries * timeout < 10
package interp
