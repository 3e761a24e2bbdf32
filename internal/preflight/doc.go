// Package preflight checks that the watched screenshot folder and the state
// directory are usable before the daemon starts, and reports the same
// results in `screenwatch status`.
package preflight
