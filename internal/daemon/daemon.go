package daemon

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"screenwatch/internal/config"
	"screenwatch/internal/dirnotify"
	"screenwatch/internal/history"
	"screenwatch/internal/logging"
	"screenwatch/internal/notifications"
	"screenwatch/internal/rotation"
	"screenwatch/internal/slots"
	"screenwatch/internal/watchdog"
)

// ErrAlreadyRunning is returned when another process holds the instance lock.
var ErrAlreadyRunning = errors.New("another screenwatch instance is already running")

// Options configures a Daemon. Config is required; the rest default.
type Options struct {
	Config   *config.Config
	Logger   *slog.Logger
	History  *history.Store
	Notifier notifications.Service
	// NewChannel replaces the configured notification backend.
	NewChannel watchdog.ChannelFactory
}

// Daemon ties the watcher, rotation, notifications and history together and
// enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	history  *history.Store
	notifier notifications.Service
	watcher  *watchdog.Controller
	rotator  *rotation.Rotator
	degraded chan watchdog.Health

	lockPath string
	lock     *flock.Flock

	rotateMu sync.Mutex

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	State         watchdog.State
	WatchDir      string
	SessionID     string
	Snapshot      slots.Snapshot
	Health        watchdog.Health
	LockFilePath  string
	HistoryDBPath string
}

// New constructs a stopped daemon.
func New(opts Options) (*Daemon, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	classifier, err := NewClassifier(cfg)
	if err != nil {
		return nil, err
	}
	backend, err := dirnotify.ParseBackend(cfg.Watch.Backend)
	if err != nil {
		return nil, err
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		history:  opts.History,
		notifier: notifier,
		degraded: make(chan watchdog.Health, 1),
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	d.watcher, err = watchdog.New(watchdog.Options{
		Classifier: classifier,
		Logger:     logger,
		Backend:    backend,
		BufferSize: cfg.Watch.BufferSize,
		NewChannel: opts.NewChannel,
		OnDegraded: d.onDegraded,
	})
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	var recorder rotation.Recorder
	if opts.History != nil {
		recorder = opts.History
	}
	d.rotator = NewRotator(cfg, logger, classifier, recorder)
	return d, nil
}

// NewClassifier builds the slot classifier described by cfg.
func NewClassifier(cfg *config.Config) (*slots.Classifier, error) {
	classifier, err := slots.NewClassifier(cfg.Slots.Prefix, cfg.Slots.Extensions, cfg.Slots.Capacity)
	if err != nil {
		return nil, fmt.Errorf("slot classifier: %w", err)
	}
	return classifier, nil
}

// NewRotator builds the rotator described by cfg. recorder may be nil.
func NewRotator(cfg *config.Config, logger *slog.Logger, classifier *slots.Classifier, recorder rotation.Recorder) *rotation.Rotator {
	return rotation.New(rotation.Options{
		Classifier: classifier,
		DirPrefix:  cfg.Rotation.DirPrefix,
		TimeFormat: cfg.Rotation.TimeFormat,
		Settle:     cfg.SettleDelay(),
		Logger:     logger,
		Recorder:   recorder,
	})
}

// Start acquires the instance lock, starts watching the configured folder and
// begins consuming occupancy updates.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := d.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}

	if err := d.watcher.Start(d.cfg.Paths.WatchDir); err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("start watcher: %w", err)
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.wg.Add(1)
	go d.consume(d.ctx)

	d.running.Store(true)
	d.logger.Info("screenwatch daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String(logging.FieldWatchDir, d.cfg.Paths.WatchDir),
		logging.String("lock", d.lockPath),
		logging.Bool("rotation_enabled", d.cfg.Rotation.Enabled),
	)
	return nil
}

// Stop cancels any rotation in progress, stops the watcher and releases the
// instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	d.watcher.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_unlock_failed"),
			logging.String(logging.FieldErrorHint, "remove the lock file if no screenwatch process is running"),
			logging.String(logging.FieldImpact, "the next start may report another instance"),
		)
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("screenwatch daemon stopped",
		logging.String(logging.FieldEventType, "daemon_stopped"),
	)
}

// Close stops the daemon. The history store is owned by the caller.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Status reports the watcher state and the latest published occupancy.
func (d *Daemon) Status() Status {
	status := Status{
		Running:      d.running.Load(),
		State:        d.watcher.State(),
		WatchDir:     d.cfg.Paths.WatchDir,
		SessionID:    d.watcher.SessionID(),
		Snapshot:     d.watcher.Snapshot().Load(),
		Health:       d.watcher.Health(),
		LockFilePath: d.lockPath,
	}
	if d.history != nil {
		status.HistoryDBPath = d.history.Path()
	}
	return status
}

// Watcher exposes the underlying controller.
func (d *Daemon) Watcher() *watchdog.Controller {
	return d.watcher
}

// RotateNow runs one manual rotation. When the daemon is not running it holds
// the instance lock for the duration so a running daemon is never raced.
func (d *Daemon) RotateNow(ctx context.Context) (rotation.Result, error) {
	if !d.running.Load() {
		if err := d.cfg.EnsureDirectories(); err != nil {
			return rotation.Result{}, fmt.Errorf("ensure directories: %w", err)
		}
		ok, err := d.lock.TryLock()
		if err != nil {
			return rotation.Result{}, fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return rotation.Result{}, ErrAlreadyRunning
		}
		defer func() { _ = d.lock.Unlock() }()
	}
	return d.rotate(ctx, history.TriggerManual)
}

// TestNotification sends a test notification using the configured notifier.
func (d *Daemon) TestNotification(ctx context.Context) error {
	return d.notifier.TestNotification(ctx)
}

// LockHeld reports whether another process currently holds the lock at path.
func LockHeld(path string) (bool, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return false, err
	}
	if ok {
		_ = lock.Unlock()
	}
	return !ok, nil
}
