package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"screenwatch/internal/history"
	"screenwatch/internal/slots"
)

type grade int

const (
	gradeInfo grade = iota
	gradeOK
	gradeWarn
	gradeError
)

var gradeTags = [...]struct{ tag, color string }{
	gradeInfo:  {"INFO", "\x1b[34m"},
	gradeOK:    {"OK", "\x1b[32m"},
	gradeWarn:  {"WARN", "\x1b[33m"},
	gradeError: {"ERROR", "\x1b[31m"},
}

const ansiReset = "\x1b[0m"

// occupancyWarnPercent leaves headroom before the last slot is taken.
const occupancyWarnPercent = 90

type statusEntry struct {
	label   string
	grade   grade
	message string
}

// statusReport collects labelled, graded lines and aligns them on render.
type statusReport struct {
	title    string
	colorize bool
	entries  []statusEntry
}

func newStatusReport(title string, colorize bool) *statusReport {
	return &statusReport{title: strings.TrimSpace(title), colorize: colorize}
}

func (r *statusReport) add(label string, g grade, format string, args ...any) {
	r.entries = append(r.entries, statusEntry{label: label, grade: g, message: fmt.Sprintf(format, args...)})
}

func (r *statusReport) daemon(held bool, err error) {
	switch {
	case err != nil:
		r.add("Daemon", gradeWarn, "lock check failed: %v", err)
	case held:
		r.add("Daemon", gradeOK, "Running")
	default:
		r.add("Daemon", gradeInfo, "Not running")
	}
}

func (r *statusReport) occupancy(snap slots.Snapshot, capacity int, err error) {
	if err != nil {
		r.add("Occupancy", gradeError, "scan failed: %v", err)
		return
	}
	g := gradeOK
	switch {
	case snap.Full:
		g = gradeError
	case snap.Percentage >= occupancyWarnPercent:
		g = gradeWarn
	}
	r.add("Occupancy", g, "%d of %d slots (%.1f%% full)", snap.Screenshots, capacity, snap.Percentage)
}

// lastRotation reports the newest ledger row; nil means nothing was recorded.
func (r *statusReport) lastRotation(last *history.Rotation, err error) {
	const label = "Last rotation"
	switch {
	case err != nil:
		r.add(label, gradeWarn, "history unavailable: %v", err)
	case last == nil:
		r.add(label, gradeInfo, "none")
	case !last.Succeeded():
		r.add(label, gradeWarn, "%s failed: %s", last.FinishedAt.Local().Format(time.DateTime), last.Error)
	default:
		r.add(label, gradeOK, "%s moved %d to %s", last.FinishedAt.Local().Format(time.DateTime), last.Moved, last.BackupDir)
	}
}

func (r *statusReport) lines() []string {
	width := 0
	for _, e := range r.entries {
		width = max(width, len(e.label)+1)
	}

	heading := "== " + r.title + " =="
	out := []string{r.paint(gradeInfo, heading), r.paint(gradeInfo, strings.Repeat("-", len(heading)))}
	for _, e := range r.entries {
		tag := "[" + gradeTags[e.grade].tag + "]"
		line := fmt.Sprintf("  %-*s %s", width, e.label+":", r.paint(e.grade, tag))
		if e.message != "" {
			line += " " + e.message
		}
		out = append(out, line)
	}
	return out
}

func (r *statusReport) paint(g grade, s string) string {
	if !r.colorize {
		return s
	}
	return gradeTags[g].color + s + ansiReset
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd())
}
