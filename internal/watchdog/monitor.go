package watchdog

import (
	"errors"
	"log/slog"

	"screenwatch/internal/dirnotify"
	"screenwatch/internal/logging"
	"screenwatch/internal/slots"
)

// monitor is the per-session state owned by the monitor goroutine. Nothing
// here is touched by other goroutines.
type monitor struct {
	ctl     *Controller
	session *session
	logger  *slog.Logger
	tracker *slots.Tracker
	channel dirnotify.Channel
	scratch []byte
	// outstanding is true from a successful Arm until its completion is
	// received. Stop drains while it is set.
	outstanding bool
}

func (m *monitor) loop() {
	if !m.open() {
		<-m.session.stop
		return
	}

	m.logger.Info("watch session started",
		logging.String(logging.FieldEventType, "watch_session_started"),
	)

	m.scan()
	m.arm()

	for {
		var completions <-chan dirnotify.Completion
		if m.outstanding {
			completions = m.channel.Completions()
		}
		select {
		case <-m.session.stop:
			m.drain()
			m.logger.Info("watch session stopped",
				logging.String(logging.FieldEventType, "watch_session_stopped"),
			)
			return
		case comp := <-completions:
			m.outstanding = false
			m.handle(comp)
		}
	}
}

func (m *monitor) open() bool {
	var (
		ch  dirnotify.Channel
		err error
	)
	if m.session.dir == "" {
		err = dirnotify.ErrNoDirectory
	} else {
		ch, err = m.ctl.newChannel()
	}
	if err == nil {
		m.channel = ch
		err = ch.Open(m.session.dir)
	}
	if err != nil {
		logging.WarnWithContext(m.logger, "watch directory could not be opened", "watch_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the screenshot folder exists and is readable"),
			logging.String(logging.FieldImpact, "screenshot count will not update until restart"),
		)
		if m.channel != nil {
			_ = m.channel.Cancel()
		}
		m.ctl.degrade(m.session, ReasonOpenFailed, err)
		return false
	}
	return true
}

// scan marks every tracked file currently in the directory and publishes the
// result. Slots are only ever marked present here; the tracker is fresh for
// each session.
func (m *monitor) scan() {
	if err := scanInto(m.session.dir, m.ctl.classifier, m.tracker); err != nil {
		logging.WarnWithContext(m.logger, "initial scan failed", "watch_scan_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check directory permissions"),
			logging.String(logging.FieldImpact, "count starts from zero and tracks changes only"),
		)
	}
	snap := m.tracker.Snapshot()
	m.ctl.snapshot.Publish(snap)
	m.logger.Info("initial scan complete",
		logging.String(logging.FieldEventType, "watch_scan_completed"),
		logging.Int("screens", snap.Screenshots),
		logging.Float64("percent", snap.Percentage),
	)
}

func (m *monitor) arm() bool {
	if err := m.channel.Arm(); err != nil {
		logging.WarnWithContext(m.logger, "change notification request failed", "watch_arm_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "restart the watcher"),
			logging.String(logging.FieldImpact, "screenshot count will not update until restart"),
		)
		m.ctl.degrade(m.session, ReasonArmFailed, err)
		return false
	}
	m.outstanding = true
	return true
}

func (m *monitor) handle(comp dirnotify.Completion) {
	switch {
	case errors.Is(comp.Err, dirnotify.ErrAborted):
		// Aborted outside Stop: the channel is gone and cannot be re-armed.
		logging.WarnWithContext(m.logger, "change notification channel closed", "watch_channel_closed",
			logging.String(logging.FieldErrorHint, "restart the watcher"),
			logging.String(logging.FieldImpact, "screenshot count will not update until restart"),
		)
		m.ctl.degrade(m.session, ReasonChannelClosed, comp.Err)
		return
	case comp.Err != nil:
		eventType := "watch_completion_error"
		if dirnotify.IsOverflow(comp.Err) {
			eventType = "watch_overflow"
		}
		logging.WarnWithContext(m.logger, "change notification reported an error", eventType,
			logging.Error(comp.Err),
			logging.String(logging.FieldErrorHint, "restart the watcher to rescan if the count looks wrong"),
			logging.String(logging.FieldImpact, "some changes may have been missed"),
		)
		m.arm()
		return
	case comp.Bytes < dirnotify.HeaderSize:
		// The native backend completes with zero bytes when its buffer
		// overflowed.
		if comp.Bytes == 0 {
			logging.WarnWithContext(m.logger, "change notification buffer overflowed", "watch_overflow",
				logging.String(logging.FieldErrorHint, "restart the watcher to rescan if the count looks wrong"),
				logging.String(logging.FieldImpact, "some changes may have been missed"),
			)
		}
		m.arm()
		return
	}

	// The raw buffer belongs to the channel again once re-armed.
	m.scratch = append(m.scratch[:0], comp.Buffer[:comp.Bytes]...)
	m.arm()
	m.apply(m.scratch)
}

// apply decodes one batch, updates the tracker, and publishes once.
func (m *monitor) apply(batch []byte) {
	it := dirnotify.NewRecordIterator(batch)
	records, changed := 0, 0
	for {
		rec, ok := it.Next()
		if !ok {
			break
		}
		records++
		idx, ok := m.ctl.classifier.Classify(rec.Name)
		if !ok {
			continue
		}
		if m.tracker.Mark(idx, rec.Action.Present()) {
			changed++
			m.logger.Debug("slot changed",
				logging.String(logging.FieldFile, rec.Name),
				logging.Int(logging.FieldSlot, idx+1),
				logging.Bool("present", rec.Action.Present()),
			)
		}
	}
	if it.Skipped() > 0 || it.Err() != nil {
		attrs := []logging.Attr{
			logging.String(logging.FieldEventType, "watch_record_malformed"),
			logging.Int("skipped", it.Skipped()),
		}
		if err := it.Err(); err != nil {
			attrs = append(attrs, logging.Error(err))
		}
		m.logger.Debug("malformed change records skipped", logging.Args(attrs...)...)
	}

	snap := m.tracker.Snapshot()
	m.ctl.snapshot.Publish(snap)
	m.logger.Debug("change batch applied",
		logging.String(logging.FieldEventType, "watch_batch_applied"),
		logging.Int("records", records),
		logging.Int("changed", changed),
		logging.Int("screens", snap.Screenshots),
	)
}

// drain cancels the channel and consumes the completion of any read still
// outstanding.
func (m *monitor) drain() {
	if err := m.channel.Cancel(); err != nil {
		m.logger.Debug("cancel change notification failed", logging.Error(err))
	}
	for m.outstanding {
		comp := <-m.channel.Completions()
		m.outstanding = false
		if comp.Err != nil && !errors.Is(comp.Err, dirnotify.ErrAborted) {
			m.logger.Debug("completion after cancel", logging.Error(comp.Err))
		}
	}
}
