// Package rotation moves every tracked screenshot out of the watched folder
// into a timestamped backup subfolder so the game can reuse slot numbers.
//
// A Rotator waits for the game to finish writing, creates
// "<prefix> (<timestamp>)" inside the watched folder, and moves matching
// files in lexicographic order. Individual move failures are logged and
// counted but do not abort the rotation. Each attempt is recorded in the
// history ledger when a Recorder is configured.
package rotation
