// Package env implements typed variable environments.
//
// An [Environment] binds names to values read from a token stream. Values
// are primitives (bool, int, double, string), composite objects built by a
// configurable [Builder], or arrays of either, nested to any depth:
//
//	int x = 2;
//	int[] v = {1, x, 3};
//	int[][] m = {{1}, {}, {2, 3}};
//	Animal pet = Cow(name("Bessie"));
//
// Each type name has its own [Binding] table; a variable belongs to exactly
// one table at a time. A concrete composite type shares the table of its
// abstract base, as reported by the [Hierarchy].
//
// Errors match the package sentinels ([ErrSyntax], [ErrUndefinedVariable],
// [ErrTypeMismatch], [ErrInternal], [ErrUnknownType], [ErrBuild],
// [ErrClose]) with [errors.Is], and carry the position of the offending
// token when one is known.
package env
