// Package release implements the local version bump workflow for the jupyter-chat monorepo.
//
// A bump checks the working tree is clean, reads the current version from the
// Python version files (or the root package.json), computes the next "+twdN"
// version, rewrites the version files, runs the JS workspace version bump and
// lockfile refresh, and finally rewrites the root package.json version.
// All reads and validations happen in Plan before anything is written.
package release
