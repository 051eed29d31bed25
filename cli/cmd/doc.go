// Package cmd implements the vartab subcommands.
//
// Every command that reads vartab sources evaluates the global --source
// files first, then its own file arguments, or stdin when there are none.
// Sources are deduplicated by device and inode, so a file named twice (or
// through a symlink) is evaluated once. The shared evaluation flags are
// carried in [Settings].
//
// The interpreter each command builds knows the object types of [Catalog]:
//
//	Var Home = Export(name("HOME"), value("/home/me"));
//	Var Path = PathList(name("PATH"), items({"/opt/bin"}), inherit(true));
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path
	// of the configuration file.
	ConfigIdentifier = "config"
)
