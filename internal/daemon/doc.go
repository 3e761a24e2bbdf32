// Package daemon coordinates the long-running screenwatch process.
//
// It wires configuration, the folder watcher, rotation, notifications and the
// rotation history into a single lifecycle with flock-based locking to prevent
// multiple instances. The daemon consumes occupancy snapshots published by the
// watcher, logs the summary line, and rotates the folder when every slot is
// taken.
//
// Keep orchestration logic here: counting lives in watchdog and moving files
// lives in rotation.
package daemon
