// Package gitrepo contains helpers for interrogating Git repositories.
//
// It exposes RepositorySpec for owner/name repository identifiers and
// RepositoryRootLocator for finding the enclosing working tree root, both
// consumed by the configuration source resolver.
package gitrepo
