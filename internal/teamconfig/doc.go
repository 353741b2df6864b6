// Package teamconfig parses declarative collaborator membership documents into
// a normalized desired-state model.
//
// Two input shapes are supported: flat username lists and structured YAML
// documents with collaborator entries, role groups, and team references. The
// parser is pure and performs no I/O; source resolution lives in the resolve
// subpackage.
package teamconfig
