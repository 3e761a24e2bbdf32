package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"screenwatch/internal/config"
	"screenwatch/internal/daemon"
	"screenwatch/internal/history"
	"screenwatch/internal/preflight"
	"screenwatch/internal/watchdog"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Scan the screenshot folder and show occupancy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			lines, err := statusLines(cmd.Context(), cfg, colorize)
			if err != nil {
				return err
			}
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func statusLines(ctx context.Context, cfg *config.Config, colorize bool) ([]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	classifier, err := daemon.NewClassifier(cfg)
	if err != nil {
		return nil, err
	}

	report := newStatusReport("screenwatch", colorize)
	report.daemon(daemon.LockHeld(cfg.LockPath()))

	for _, result := range preflight.RunAll(cfg) {
		g := gradeOK
		if !result.Passed {
			g = gradeError
		}
		report.add(result.Name, g, "%s", result.Detail)
	}

	snap, scanErr := watchdog.Scan(cfg.Paths.WatchDir, classifier)
	report.occupancy(snap, classifier.Capacity(), scanErr)

	if cfg.Rotation.Enabled {
		report.add("Rotation", gradeInfo, "on full, settle %ds, into %q", cfg.Rotation.SettleSeconds, cfg.Rotation.DirPrefix+" (...)")
	} else {
		report.add("Rotation", gradeInfo, "disabled")
	}

	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		report.add("Notifications", gradeInfo, "%s (rotation: %s, errors: %s)", topic, yesNo(cfg.Notifications.Rotation), yesNo(cfg.Notifications.Errors))
	} else {
		report.add("Notifications", gradeInfo, "disabled (no ntfy_topic)")
	}

	report.lastRotation(readLastRotation(ctx, cfg.HistoryPath()))
	return report.lines(), nil
}

// readLastRotation returns the newest ledger row without creating the ledger
// when no rotation has ever been recorded.
func readLastRotation(ctx context.Context, path string) (*history.Rotation, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	store, err := history.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	rows, err := store.List(ctx, 1)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}
