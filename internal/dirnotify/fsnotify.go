package dirnotify

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// fsnotifyChannel adapts fsnotify to the single-read Channel contract. Each
// armed read waits for the first event, then packs whatever further events
// are already queued into the raw buffer as one batch.
type fsnotifyChannel struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	dir         string
	raw         []byte
	carry       *Record
	armed       bool
	completions chan Completion
}

func newFSNotifyChannel(bufferSize int) *fsnotifyChannel {
	return &fsnotifyChannel{
		raw:         make([]byte, bufferSize),
		completions: make(chan Completion, 1),
	}
}

func (c *fsnotifyChannel) Open(dir string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watcher != nil {
		return nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("open %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("open %s: not a directory", dir)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	c.watcher = w
	c.dir = dir
	return nil
}

func (c *fsnotifyChannel) Arm() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watcher == nil {
		return ErrNotOpen
	}
	if c.armed {
		return ErrAlreadyArmed
	}
	c.armed = true
	go c.await(c.watcher)
	return nil
}

func (c *fsnotifyChannel) Armed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed
}

func (c *fsnotifyChannel) Completions() <-chan Completion {
	return c.completions
}

func (c *fsnotifyChannel) Cancel() error {
	c.mu.Lock()
	w := c.watcher
	c.watcher = nil
	c.mu.Unlock()

	if w == nil {
		return nil
	}
	// Closing the watcher closes its event channels, which completes an
	// outstanding read with ErrAborted.
	return w.Close()
}

func (c *fsnotifyChannel) await(w *fsnotify.Watcher) {
	comp := c.collect(w)

	c.mu.Lock()
	c.armed = false
	c.mu.Unlock()

	c.completions <- comp
}

func (c *fsnotifyChannel) collect(w *fsnotify.Watcher) Completion {
	buf := c.raw[:0]

	if c.carry != nil {
		buf = AppendRecords(buf, *c.carry)
		c.carry = nil
	} else {
		for len(buf) == 0 {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return Completion{Err: ErrAborted}
				}
				if rec, keep := translate(ev); keep {
					buf = AppendRecords(buf, rec)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return Completion{Err: ErrAborted}
				}
				return Completion{Err: err}
			}
		}
	}

	// Batch whatever is already queued without blocking.
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return c.finish(buf)
			}
			rec, keep := translate(ev)
			if !keep {
				continue
			}
			if len(buf)+EncodedSize(rec) > len(c.raw) {
				c.carry = &rec
				return c.finish(buf)
			}
			buf = chain(buf, rec)
		default:
			return c.finish(buf)
		}
	}
}

func (c *fsnotifyChannel) finish(buf []byte) Completion {
	return Completion{Bytes: len(buf), Buffer: buf}
}

// chain links a new record after the last one in buf.
func chain(buf []byte, rec Record) []byte {
	last := lastRecordOffset(buf)
	size := len(buf) - last
	buf = AppendRecords(buf, rec)
	putNext(buf[last:], uint32(size))
	return buf
}

func lastRecordOffset(buf []byte) int {
	off := 0
	for {
		next := readNext(buf[off:])
		if next == 0 {
			return off
		}
		off += int(next)
	}
}

// translate maps an fsnotify event onto a record for a direct child of the
// watched directory. Attribute-only changes are dropped.
func translate(ev fsnotify.Event) (Record, bool) {
	name := filepath.Base(ev.Name)
	switch {
	case ev.Has(fsnotify.Remove):
		return Record{Name: name, Action: ActionRemoved}, true
	case ev.Has(fsnotify.Rename):
		return Record{Name: name, Action: ActionRenamedOldName}, true
	case ev.Has(fsnotify.Create):
		return Record{Name: name, Action: ActionAdded}, true
	case ev.Has(fsnotify.Write):
		return Record{Name: name, Action: ActionModified}, true
	default:
		return Record{}, false
	}
}

// IsOverflow reports whether err signals that the OS dropped events.
func IsOverflow(err error) bool {
	return errors.Is(err, fsnotify.ErrEventOverflow)
}
