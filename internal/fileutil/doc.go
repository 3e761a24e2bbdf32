// Package fileutil moves screenshot files between directories, falling back
// to a verified copy when a rename crosses file systems.
package fileutil
