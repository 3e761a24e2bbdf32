// Package watchdog runs the monitor goroutine that keeps slot occupancy in
// sync with a watched screenshot directory.
//
// A Controller moves through Stopped, Starting, Running, and Stopping. Each
// session opens a fresh dirnotify.Channel, performs a full directory scan to
// establish ground truth, then applies change batches to a private
// slots.Tracker and publishes one Snapshot per batch through a
// SharedSnapshot. Stop cancels the outstanding read and drains its completion
// before returning, so no batch is applied after Stop returns.
package watchdog
