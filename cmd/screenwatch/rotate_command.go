package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"screenwatch/internal/daemon"
	"screenwatch/internal/history"
	"screenwatch/internal/logging"
	"screenwatch/internal/notifications"
	"screenwatch/internal/rotation"
)

func newRotateCommand(ctx *commandContext) *cobra.Command {
	var noSettle bool
	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Move every screenshot into a new backup folder now",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			local := *cfg
			if noSettle {
				local.Rotation.SettleSeconds = 0
			}

			logger, err := logging.NewFromConfig(&local, "")
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			store, err := history.Open(cmd.Context(), local.HistoryPath())
			if err != nil {
				return err
			}
			defer store.Close()

			d, err := daemon.New(daemon.Options{
				Config:   &local,
				Logger:   logger,
				History:  store,
				Notifier: notifications.NewService(&local),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			res, err := d.RotateNow(cmd.Context())
			switch {
			case errors.Is(err, rotation.ErrNothingToRotate):
				fmt.Fprintln(out, "No screenshots to rotate")
				return nil
			case errors.Is(err, daemon.ErrAlreadyRunning):
				return fmt.Errorf("%w; it rotates automatically when the folder is full", err)
			case err != nil:
				return err
			}
			fmt.Fprintf(out, "Screenshots moved to %s (%d moved", res.BackupDir, res.Moved)
			if res.Failed > 0 {
				fmt.Fprintf(out, ", %d failed", res.Failed)
			}
			fmt.Fprintln(out, ")")
			return nil
		},
	}
	cmd.Flags().BoolVar(&noSettle, "no-settle", false, "Skip the settle delay before moving files")
	return cmd
}
