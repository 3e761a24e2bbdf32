package watchdog

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"screenwatch/internal/dirnotify"
	"screenwatch/internal/logging"
	"screenwatch/internal/slots"
)

// ChannelFactory creates an unopened notification channel for one session.
type ChannelFactory func() (dirnotify.Channel, error)

// Options configures a Controller.
type Options struct {
	Classifier *slots.Classifier
	Logger     *slog.Logger
	// Backend and BufferSize select the channel when NewChannel is nil.
	Backend    dirnotify.Backend
	BufferSize int
	NewChannel ChannelFactory
	// OnDegraded is called from the monitor goroutine when a session stops
	// receiving changes. It must not block.
	OnDegraded func(dir string, health Health)
}

// Controller owns the monitor goroutine for at most one watch session.
type Controller struct {
	classifier *slots.Classifier
	newChannel ChannelFactory
	logger     *slog.Logger
	onDegraded func(string, Health)
	snapshot   *SharedSnapshot

	control sync.Mutex
	state   atomic.Int32

	mu      sync.Mutex
	current *session
	health  Health
}

type session struct {
	id   string
	dir  string
	stop chan struct{}
	done chan struct{}
}

// New constructs a stopped controller.
func New(opts Options) (*Controller, error) {
	classifier := opts.Classifier
	if classifier == nil {
		classifier = slots.DefaultClassifier()
	}
	factory := opts.NewChannel
	if factory == nil {
		backend := opts.Backend.Resolve()
		size := opts.BufferSize
		if size <= 0 {
			size = dirnotify.DefaultBufferSize
		}
		if backend == dirnotify.BackendNative {
			// Surface an unsupported backend at construction rather than as a
			// degraded session.
			probe, err := dirnotify.New(backend, size)
			if err != nil {
				return nil, fmt.Errorf("notification backend: %w", err)
			}
			_ = probe.Cancel()
		}
		factory = func() (dirnotify.Channel, error) {
			return dirnotify.New(backend, size)
		}
	}
	return &Controller{
		classifier: classifier,
		newChannel: factory,
		logger:     logging.NewComponentLogger(opts.Logger, "watchdog"),
		onDegraded: opts.OnDegraded,
		snapshot:   NewSharedSnapshot(),
	}, nil
}

// Start begins watching dir. Starting an active controller is a no-op.
// Failures to open or arm the directory are not returned; they leave the
// session degraded and are reported through Health.
func (c *Controller) Start(dir string) error {
	c.control.Lock()
	defer c.control.Unlock()

	switch c.State() {
	case StateStarting, StateRunning:
		return nil
	}
	dir = strings.TrimSpace(dir)

	s := &session{
		id:   uuid.NewString(),
		dir:  dir,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	c.mu.Lock()
	c.current = s
	c.health = Health{}
	c.mu.Unlock()

	c.state.Store(int32(StateStarting))
	go c.run(s)
	return nil
}

// Stop ends the active session and blocks until its outstanding read has
// drained. Stopping a stopped controller is a no-op.
func (c *Controller) Stop() {
	c.control.Lock()
	defer c.control.Unlock()

	if c.State() == StateStopped {
		return
	}
	c.mu.Lock()
	s := c.current
	c.mu.Unlock()
	if s == nil {
		return
	}

	c.state.Store(int32(StateStopping))
	close(s.stop)
	<-s.done
}

// State returns the lifecycle state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Running reports whether a session is active.
func (c *Controller) Running() bool {
	switch c.State() {
	case StateStarting, StateRunning:
		return true
	}
	return false
}

// Dir returns the directory of the current or most recent session.
func (c *Controller) Dir() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return ""
	}
	return c.current.dir
}

// SessionID returns the identifier of the current or most recent session.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return ""
	}
	return c.current.id
}

// Snapshot returns the published occupancy. The same SharedSnapshot is kept
// across sessions.
func (c *Controller) Snapshot() *SharedSnapshot {
	return c.snapshot
}

// Health reports whether the current session is degraded.
func (c *Controller) Health() Health {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.health
}

func (c *Controller) degrade(s *session, reason string, err error) {
	h := Health{Degraded: true, Reason: reason, Err: err, Since: time.Now()}
	c.mu.Lock()
	if c.current == s {
		c.health = h
	}
	c.mu.Unlock()
	if c.onDegraded != nil {
		c.onDegraded(s.dir, h)
	}
}

func (c *Controller) run(s *session) {
	defer close(s.done)
	defer c.state.Store(int32(StateStopped))

	c.state.CompareAndSwap(int32(StateStarting), int32(StateRunning))

	m := &monitor{
		ctl:     c,
		session: s,
		logger: c.logger.With(
			logging.String(logging.FieldSessionID, s.id),
			logging.String(logging.FieldWatchDir, s.dir),
		),
		tracker: slots.NewTracker(c.classifier.Capacity()),
	}
	m.loop()
}
