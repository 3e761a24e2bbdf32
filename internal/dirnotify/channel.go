package dirnotify

import (
	"fmt"
	"runtime"
	"strings"
)

// DefaultBufferSize matches the 64 KiB notification buffer the native API
// accepts for network shares.
const DefaultBufferSize = 64 * 1024

// MinBufferSize is the smallest accepted notification buffer.
const MinBufferSize = 4 * 1024

// Backend names a Channel implementation.
type Backend string

const (
	BackendAuto     Backend = "auto"
	BackendNative   Backend = "native"
	BackendFSNotify Backend = "fsnotify"
)

// Completion is the result of one armed read. On success Buffer holds Bytes
// bytes of packed records. Buffer aliases the channel's raw buffer and is only
// valid until the next Arm.
type Completion struct {
	Err    error
	Bytes  int
	Buffer []byte
}

// Channel is a directory change notification handle with at most one
// outstanding read.
type Channel interface {
	// Open binds the channel to dir. Calling Open on an open channel is a
	// no-op.
	Open(dir string) error
	// Arm submits one asynchronous read. Its result arrives on Completions.
	Arm() error
	// Armed reports whether a read is outstanding.
	Armed() bool
	// Completions delivers the result of each armed read.
	Completions() <-chan Completion
	// Cancel aborts any outstanding read and releases the handle. The
	// cancelled read completes with ErrAborted. Safe to call at any time.
	Cancel() error
}

// ParseBackend validates a backend name.
func ParseBackend(value string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(value))) {
	case "", BackendAuto:
		return BackendAuto, nil
	case BackendNative:
		return BackendNative, nil
	case BackendFSNotify:
		return BackendFSNotify, nil
	default:
		return "", fmt.Errorf("unknown notification backend %q (want auto, native or fsnotify)", value)
	}
}

// Resolve maps BackendAuto onto the concrete backend for this platform.
func (b Backend) Resolve() Backend {
	if b != BackendAuto && b != "" {
		return b
	}
	if runtime.GOOS == "windows" {
		return BackendNative
	}
	return BackendFSNotify
}

// New constructs an unopened channel for backend with a raw buffer of
// bufferSize bytes.
func New(backend Backend, bufferSize int) (Channel, error) {
	if bufferSize < MinBufferSize {
		bufferSize = MinBufferSize
	}
	switch backend.Resolve() {
	case BackendNative:
		return newNativeChannel(bufferSize)
	case BackendFSNotify:
		return newFSNotifyChannel(bufferSize), nil
	default:
		return nil, fmt.Errorf("unknown notification backend %q", backend)
	}
}
