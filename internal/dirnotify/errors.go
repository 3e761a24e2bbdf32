package dirnotify

import "errors"

var (
	// ErrAborted is reported by the completion of a read cancelled by Cancel.
	ErrAborted = errors.New("dirnotify: operation aborted")
	// ErrNoDirectory is returned by Open for a blank path.
	ErrNoDirectory = errors.New("dirnotify: no directory to watch")
	// ErrNotOpen is returned by Arm before Open or after Cancel.
	ErrNotOpen = errors.New("dirnotify: channel not open")
	// ErrAlreadyArmed is returned by Arm while a read is outstanding.
	ErrAlreadyArmed = errors.New("dirnotify: read already outstanding")
	// ErrMalformedRecord marks a truncated or unparseable record in a buffer.
	ErrMalformedRecord = errors.New("dirnotify: malformed change record")
	// ErrNativeUnsupported is returned when the native backend is requested on
	// a platform without one.
	ErrNativeUnsupported = errors.New("dirnotify: native backend not supported on this platform")
)
