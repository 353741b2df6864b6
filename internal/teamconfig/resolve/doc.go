// Package resolve locates the team configuration document for a run.
//
// A spec string selects the source: explicit repo: or local: prefixes pin one
// source, anything else cascades through candidate filenames across the local
// filesystem, the target repository, and an optional fallback repository,
// stopping at the first hit. Only not-found conditions cascade; any other
// failure aborts resolution.
package resolve
