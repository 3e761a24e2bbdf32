// Package slots tracks which numbered screenshot slots are occupied in a watched
// directory.
//
// A Classifier maps file names such as gw042.jpg onto zero-based slot indexes and
// a Tracker keeps a fixed-capacity presence table with an incrementally
// maintained occupancy count. Neither type is safe for concurrent use; the
// watchdog monitor goroutine owns its tracker exclusively and publishes
// Snapshot values to other goroutines.
package slots
