// Package dirnotify wraps operating system directory change notification behind
// a single-outstanding-request Channel.
//
// A Channel is opened on one directory, armed to submit exactly one
// asynchronous read, and delivers the result as a Completion on a Go channel
// owned by the caller's monitor goroutine. Completed buffers use the packed,
// offset-chained record layout of FILE_NOTIFY_INFORMATION on every platform:
// the Windows backend receives it from ReadDirectoryChanges directly and the
// fsnotify backend encodes events into the same layout, so a single
// RecordIterator decodes both.
package dirnotify
