// Package history records completed and failed rotations in a SQLite ledger
// under the state directory, so `screenwatch history` can list past backups.
package history
