//go:build windows

package dirnotify

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/windows"
)

const nativeNotifyFilter = windows.FILE_NOTIFY_CHANGE_LAST_WRITE |
	windows.FILE_NOTIFY_CHANGE_CREATION |
	windows.FILE_NOTIFY_CHANGE_FILE_NAME

// nativeChannel issues overlapped ReadDirectoryChanges requests. A helper
// goroutine waits on the request's event and forwards the result; the
// directory handle is only closed once no request is outstanding.
type nativeChannel struct {
	mu          sync.Mutex
	handle      windows.Handle
	event       windows.Handle
	overlapped  *windows.Overlapped
	raw         []byte
	armed       bool
	cancelled   bool
	completions chan Completion
}

func newNativeChannel(bufferSize int) (Channel, error) {
	return &nativeChannel{
		handle:      windows.InvalidHandle,
		raw:         make([]byte, bufferSize),
		completions: make(chan Completion, 1),
	}, nil
}

func (c *nativeChannel) Open(dir string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle != windows.InvalidHandle {
		return nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("open %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("open %s: not a directory", dir)
	}

	path, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return fmt.Errorf("open %s: %w", dir, err)
	}
	handle, err := windows.CreateFile(
		path,
		windows.FILE_LIST_DIRECTORY,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS|windows.FILE_FLAG_OVERLAPPED,
		0,
	)
	if err != nil {
		return fmt.Errorf("open %s: %w", dir, err)
	}
	event, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		_ = windows.CloseHandle(handle)
		return fmt.Errorf("create completion event: %w", err)
	}

	c.handle = handle
	c.event = event
	c.cancelled = false
	return nil
}

func (c *nativeChannel) Arm() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle == windows.InvalidHandle || c.cancelled {
		return ErrNotOpen
	}
	if c.armed {
		return ErrAlreadyArmed
	}
	if err := windows.ResetEvent(c.event); err != nil {
		return fmt.Errorf("reset completion event: %w", err)
	}

	c.overlapped = &windows.Overlapped{HEvent: c.event}
	err := windows.ReadDirectoryChanges(
		c.handle,
		&c.raw[0],
		uint32(len(c.raw)),
		false,
		nativeNotifyFilter,
		nil,
		c.overlapped,
		0,
	)
	if err != nil {
		return fmt.Errorf("read directory changes: %w", err)
	}

	c.armed = true
	go c.await(c.handle, c.event, c.overlapped)
	return nil
}

func (c *nativeChannel) Armed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed
}

func (c *nativeChannel) Completions() <-chan Completion {
	return c.completions
}

func (c *nativeChannel) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle == windows.InvalidHandle || c.cancelled {
		return nil
	}
	c.cancelled = true
	if c.armed {
		// await closes the handle after the aborted read completes.
		err := windows.CancelIoEx(c.handle, c.overlapped)
		if err != nil && !errors.Is(err, windows.ERROR_NOT_FOUND) {
			return fmt.Errorf("cancel directory read: %w", err)
		}
		return nil
	}
	return c.closeLocked()
}

func (c *nativeChannel) await(handle, event windows.Handle, ol *windows.Overlapped) {
	var comp Completion
	if _, err := windows.WaitForSingleObject(event, windows.INFINITE); err != nil {
		comp.Err = fmt.Errorf("wait for directory read: %w", err)
	} else {
		var n uint32
		err := windows.GetOverlappedResult(handle, ol, &n, false)
		switch {
		case errors.Is(err, windows.ERROR_OPERATION_ABORTED):
			comp.Err = ErrAborted
		case err != nil:
			comp.Err = err
		default:
			comp.Bytes = int(n)
			comp.Buffer = c.raw[:n]
		}
	}

	c.mu.Lock()
	c.armed = false
	if c.cancelled {
		_ = c.closeLocked()
		if comp.Err == nil {
			comp = Completion{Err: ErrAborted}
		}
	}
	c.mu.Unlock()

	c.completions <- comp
}

func (c *nativeChannel) closeLocked() error {
	var errs []error
	if c.event != 0 {
		errs = append(errs, windows.CloseHandle(c.event))
		c.event = 0
	}
	if c.handle != windows.InvalidHandle {
		errs = append(errs, windows.CloseHandle(c.handle))
		c.handle = windows.InvalidHandle
	}
	return errors.Join(errs...)
}
