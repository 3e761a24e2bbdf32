package rotation

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"screenwatch/internal/fileutil"
	"screenwatch/internal/history"
	"screenwatch/internal/logging"
	"screenwatch/internal/slots"
)

// ErrNothingToRotate is returned when the folder holds no tracked files.
var ErrNothingToRotate = errors.New("no screenshots to rotate")

// Recorder persists rotation attempts.
type Recorder interface {
	Record(ctx context.Context, r history.Rotation) (int64, error)
}

// Options configures a Rotator.
type Options struct {
	Classifier *slots.Classifier
	DirPrefix  string
	TimeFormat string
	Settle     time.Duration
	Logger     *slog.Logger
	Recorder   Recorder
	Now        func() time.Time
	Move       func(src, dst string) error
}

// Request describes one rotation.
type Request struct {
	WatchDir  string
	Trigger   history.Trigger
	SessionID string
}

// Result summarises a rotation.
type Result struct {
	BackupDir  string
	Moved      int
	Failed     int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Rotator performs rotations. It is safe for concurrent use, though callers
// normally serialise rotations of the same folder.
type Rotator struct {
	classifier *slots.Classifier
	dirPrefix  string
	timeFormat string
	settle     time.Duration
	logger     *slog.Logger
	recorder   Recorder
	now        func() time.Time
	move       func(src, dst string) error
}

// New constructs a Rotator.
func New(opts Options) *Rotator {
	r := &Rotator{
		classifier: opts.Classifier,
		dirPrefix:  opts.DirPrefix,
		timeFormat: opts.TimeFormat,
		settle:     opts.Settle,
		logger:     logging.NewComponentLogger(opts.Logger, "rotation"),
		recorder:   opts.Recorder,
		now:        opts.Now,
		move:       opts.Move,
	}
	if r.classifier == nil {
		r.classifier = slots.DefaultClassifier()
	}
	if r.dirPrefix == "" {
		r.dirPrefix = "Auto Backup"
	}
	if r.timeFormat == "" {
		r.timeFormat = "2006-01-02 15-04-05"
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.move == nil {
		r.move = fileutil.MoveFile
	}
	return r
}

// BackupName returns the backup folder name for time t.
func (r *Rotator) BackupName(t time.Time) string {
	return fmt.Sprintf("%s (%s)", r.dirPrefix, t.Format(r.timeFormat))
}

// Rotate waits for the settle delay, then moves every tracked file in
// req.WatchDir into a new backup folder.
func (r *Rotator) Rotate(ctx context.Context, req Request) (Result, error) {
	logger := r.logger.With(
		logging.String(logging.FieldWatchDir, req.WatchDir),
		logging.String("trigger", string(req.Trigger)),
	)
	if req.SessionID != "" {
		logger = logger.With(logging.String(logging.FieldSessionID, req.SessionID))
	}

	if r.settle > 0 {
		timer := time.NewTimer(r.settle)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Result{}, ctx.Err()
		case <-timer.C:
		}
	}

	res := Result{StartedAt: r.now()}
	logger.Info("rotation started", logging.String(logging.FieldEventType, "rotation_started"))

	err := r.rotate(ctx, logger, req.WatchDir, &res)
	res.FinishedAt = r.now()
	r.record(ctx, logger, req, res, err)

	if err != nil {
		logging.WarnWithContext(logger, "rotation failed", "rotation_failed",
			logging.Error(err),
			logging.Int("moved", res.Moved),
			logging.Int("failed", res.Failed),
			logging.String(logging.FieldErrorHint, "check permissions on the screenshot folder"),
			logging.String(logging.FieldImpact, "screenshots stay in place; the game may overwrite the oldest"),
		)
		return res, err
	}
	logger.Info("rotation completed",
		logging.String(logging.FieldEventType, "rotation_completed"),
		logging.String("backup_dir", res.BackupDir),
		logging.Int("moved", res.Moved),
		logging.Int("failed", res.Failed),
	)
	return res, nil
}

func (r *Rotator) rotate(ctx context.Context, logger *slog.Logger, watchDir string, res *Result) error {
	names, err := r.trackedFiles(watchDir)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return ErrNothingToRotate
	}

	backupDir := filepath.Join(watchDir, r.BackupName(res.StartedAt))
	if err := ensureDir(backupDir); err != nil {
		return err
	}
	res.BackupDir = backupDir

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		src := filepath.Join(watchDir, name)
		if err := r.move(src, filepath.Join(backupDir, name)); err != nil {
			res.Failed++
			logging.WarnWithContext(logger, "screenshot move failed; file left in place", "rotation_move_failed",
				logging.String(logging.FieldFile, name),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check whether the file is open in another program"),
				logging.String(logging.FieldImpact, "file remains in the screenshot folder"),
			)
			continue
		}
		res.Moved++
	}
	if res.Moved == 0 {
		return fmt.Errorf("moved none of %d screenshots into %s", res.Failed, backupDir)
	}
	return nil
}

// trackedFiles lists matching regular files sorted by name.
func (r *Rotator) trackedFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list screenshot folder: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if r.classifier.Matches(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ensureDir creates dir, accepting an existing directory.
func ensureDir(dir string) error {
	err := os.Mkdir(dir, 0o755)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrExist) {
		if info, statErr := os.Stat(dir); statErr == nil && info.IsDir() {
			return nil
		}
	}
	return fmt.Errorf("create backup folder: %w", err)
}

func (r *Rotator) record(ctx context.Context, logger *slog.Logger, req Request, res Result, rotateErr error) {
	if r.recorder == nil || errors.Is(rotateErr, ErrNothingToRotate) {
		return
	}
	entry := history.Rotation{
		SessionID:  req.SessionID,
		Trigger:    req.Trigger,
		WatchDir:   req.WatchDir,
		BackupDir:  res.BackupDir,
		Moved:      res.Moved,
		Failed:     res.Failed,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
	}
	if rotateErr != nil {
		entry.Error = rotateErr.Error()
	}
	// Record even when the rotation itself was cancelled.
	if _, err := r.recorder.Record(context.WithoutCancel(ctx), entry); err != nil {
		logging.WarnWithContext(logger, "rotation history write failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the state directory"),
			logging.String(logging.FieldImpact, "rotation is missing from history"),
		)
	}
}
