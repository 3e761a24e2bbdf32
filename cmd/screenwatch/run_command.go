package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"screenwatch/internal/daemon"
	"screenwatch/internal/history"
	"screenwatch/internal/logging"
	"screenwatch/internal/notifications"
	"screenwatch/internal/preflight"
)

type runOptions struct {
	LogLevel    string
	Development bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Watch the screenshot folder in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonProcess(cmd.Context(), ctx, opts)
		},
	}
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "Override logging.level for this run")
	cmd.Flags().BoolVar(&opts.Development, "dev", false, "Include source locations in log output")
	return cmd
}

func runDaemonProcess(cmdCtx context.Context, ctx *commandContext, opts runOptions) error {
	if ctx == nil {
		return errors.New("command context is required")
	}
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logName := logging.RunLogName(time.Now())
	logOpts, err := logging.FromConfig(cfg, logName)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		logOpts.Level = level
	}
	logOpts.Development = opts.Development
	logOpts.SessionID = uuid.NewString()
	logger, err := logging.New(logOpts)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logPath := filepath.Join(cfg.Paths.LogDir, logName)
	logging.CleanupOldLogs(logger, cfg.Paths.LogDir, logging.RunLogPattern, cfg.Logging.RetentionDays, logPath)

	failed := preflight.Failed(preflight.RunAll(cfg))
	for _, result := range failed {
		logging.ErrorWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "fix paths.watch_dir or watch.backend in the config"),
			logging.String(logging.FieldImpact, "screenwatch cannot watch the folder"),
		)
	}
	if len(failed) > 0 {
		return fmt.Errorf("preflight: %s: %s", failed[0].Name, failed[0].Detail)
	}

	store, err := history.Open(signalCtx, cfg.HistoryPath())
	if err != nil {
		logger.Error("open history store", logging.Error(err))
		return err
	}
	defer store.Close()

	d, err := daemon.New(daemon.Options{
		Config:   cfg,
		Logger:   logger,
		History:  store,
		Notifier: notifications.NewService(cfg),
	})
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return err
	}

	<-signalCtx.Done()
	logger.Info("screenwatch daemon shutting down",
		logging.String(logging.FieldEventType, "daemon_shutdown"),
	)
	return nil
}
