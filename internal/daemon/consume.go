package daemon

import (
	"context"
	"errors"
	"fmt"

	"screenwatch/internal/history"
	"screenwatch/internal/logging"
	"screenwatch/internal/rotation"
	"screenwatch/internal/slots"
	"screenwatch/internal/watchdog"
)

// Tip renders the one-line occupancy summary.
func Tip(dir string, snap slots.Snapshot) string {
	return fmt.Sprintf("Watching: %s / %d screens (%.1f%% full)", dir, snap.Screenshots, snap.Percentage)
}

// consume reacts to published snapshots until ctx is cancelled. A full folder
// triggers one rotation; another is only attempted after the folder has been
// seen below capacity again.
func (d *Daemon) consume(ctx context.Context) {
	defer d.wg.Done()

	updates := d.watcher.Snapshot().Updates()
	attempted := false
	for {
		select {
		case <-ctx.Done():
			return
		case h := <-d.degraded:
			d.notifyDegraded(ctx, h)
		case snap := <-updates:
			d.logger.Info(Tip(d.cfg.Paths.WatchDir, snap),
				logging.String(logging.FieldEventType, "occupancy_updated"),
				logging.Int("screens", snap.Screenshots),
				logging.Float64("percent", snap.Percentage),
				logging.Bool("full", snap.Full),
			)
			if !snap.Full {
				attempted = false
				continue
			}
			if attempted || !d.cfg.Rotation.Enabled {
				continue
			}
			attempted = true
			_, _ = d.rotate(ctx, history.TriggerFull)
		}
	}
}

// rotate runs one rotation and announces its outcome. Rotations never overlap.
func (d *Daemon) rotate(ctx context.Context, trigger history.Trigger) (rotation.Result, error) {
	d.rotateMu.Lock()
	defer d.rotateMu.Unlock()

	res, err := d.rotator.Rotate(ctx, rotation.Request{
		WatchDir:  d.cfg.Paths.WatchDir,
		Trigger:   trigger,
		SessionID: d.watcher.SessionID(),
	})
	switch {
	case err == nil:
		d.notify("rotation completed", d.notifier.NotifyRotationCompleted(context.WithoutCancel(ctx), res.BackupDir, res.Moved))
	case errors.Is(err, rotation.ErrNothingToRotate), errors.Is(err, context.Canceled):
	default:
		d.notify("rotation failed", d.notifier.NotifyRotationFailed(context.WithoutCancel(ctx), d.cfg.Paths.WatchDir, err))
	}
	return res, err
}

// onDegraded runs on the monitor goroutine and must not block. Only the most
// recent health report is kept.
func (d *Daemon) onDegraded(_ string, h watchdog.Health) {
	select {
	case d.degraded <- h:
	default:
		select {
		case <-d.degraded:
		default:
		}
		select {
		case d.degraded <- h:
		default:
		}
	}
}

func (d *Daemon) notifyDegraded(ctx context.Context, h watchdog.Health) {
	d.notify("watch degraded", d.notifier.NotifyWatchDegraded(ctx, d.cfg.Paths.WatchDir, h.Reason, h.Err))
}

func (d *Daemon) notify(kind string, err error) {
	if err == nil {
		return
	}
	logging.WarnWithContext(d.logger, "notification failed", "notification_failed",
		logging.Error(err),
		logging.String("notification", kind),
		logging.String(logging.FieldErrorHint, "check ntfy_topic and network access"),
		logging.String(logging.FieldImpact, "the event was logged but not pushed"),
	)
}
