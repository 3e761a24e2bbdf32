package watchdog_test

import (
	"sync"
	"testing"
	"time"

	"screenwatch/internal/dirnotify"
)

// fakeChannel is an in-memory dirnotify.Channel. Tests push batches with
// deliver, which waits for the controller to arm a read first.
type fakeChannel struct {
	mu        sync.Mutex
	openErr   error
	armErr    error
	dir       string
	open      bool
	armed     bool
	arms      int
	cancelled bool

	armedSignal chan struct{}
	completions chan dirnotify.Completion
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		armedSignal: make(chan struct{}, 16),
		completions: make(chan dirnotify.Completion, 1),
	}
}

func (f *fakeChannel) Open(dir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return f.openErr
	}
	f.open = true
	f.dir = dir
	return nil
}

func (f *fakeChannel) Arm() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.armErr != nil {
		return f.armErr
	}
	if !f.open {
		return dirnotify.ErrNotOpen
	}
	if f.armed {
		return dirnotify.ErrAlreadyArmed
	}
	f.armed = true
	f.arms++
	f.armedSignal <- struct{}{}
	return nil
}

func (f *fakeChannel) Armed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.armed
}

func (f *fakeChannel) Completions() <-chan dirnotify.Completion {
	return f.completions
}

func (f *fakeChannel) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = true
	f.open = false
	if f.armed {
		f.armed = false
		f.completions <- dirnotify.Completion{Err: dirnotify.ErrAborted}
	}
	return nil
}

func (f *fakeChannel) waitArmed(t *testing.T) {
	t.Helper()
	select {
	case <-f.armedSignal:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the controller to arm a read")
	}
}

func (f *fakeChannel) complete(t *testing.T, comp dirnotify.Completion) {
	t.Helper()
	f.waitArmed(t)
	f.mu.Lock()
	f.armed = false
	f.mu.Unlock()
	f.completions <- comp
}

func (f *fakeChannel) deliver(t *testing.T, records ...dirnotify.Record) {
	t.Helper()
	buf := dirnotify.AppendRecords(nil, records...)
	f.complete(t, dirnotify.Completion{Bytes: len(buf), Buffer: buf})
}

func (f *fakeChannel) stats() (arms int, armed, cancelled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.arms, f.armed, f.cancelled
}

// fakeFactory hands out a new fakeChannel per session.
type fakeFactory struct {
	mu       sync.Mutex
	channels []*fakeChannel
	prepare  func(*fakeChannel)
}

func (ff *fakeFactory) New() (dirnotify.Channel, error) {
	ch := newFakeChannel()
	if ff.prepare != nil {
		ff.prepare(ch)
	}
	ff.mu.Lock()
	ff.channels = append(ff.channels, ch)
	ff.mu.Unlock()
	return ch, nil
}

func (ff *fakeFactory) channel(t *testing.T, i int) *fakeChannel {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		ff.mu.Lock()
		if i < len(ff.channels) {
			ch := ff.channels[i]
			ff.mu.Unlock()
			return ch
		}
		ff.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("channel %d was never created", i)
	return nil
}

func (ff *fakeFactory) count() int {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	return len(ff.channels)
}
