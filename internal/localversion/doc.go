// Package localversion parses, renders and bumps local release identifiers.
//
// A local release identifier is an upstream version (major.minor.patch with an
// optional alpha, beta or rc pre-release) followed by an optional "+twdN" build
// tag that counts internal rebuilds of the same upstream version.
//
// The same identifier has two spellings:
//
//	Python (PEP 440): 0.19.90a1+twd2
//	NPM (semver):     0.19.90-alpha.1+twd2
//
// Conversion between the two is lossless; the build tag is carried verbatim.
package localversion
