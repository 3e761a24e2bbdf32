package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"screenwatch/internal/dirnotify"
	"screenwatch/internal/slots"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSlots(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	if err := c.validateRotation(); err != nil {
		return err
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WatchDir) == "" {
		return fmt.Errorf("paths.watch_dir must be set (or set %s)", WatchDirEnv)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateSlots() error {
	if c.Slots.Prefix == "" {
		return errors.New("slots.prefix must be set")
	}
	if strings.ContainsAny(c.Slots.Prefix, `/\.`) {
		return fmt.Errorf("slots.prefix %q must not contain path separators or dots", c.Slots.Prefix)
	}
	if len(c.Slots.Extensions) == 0 {
		return errors.New("slots.extensions must include at least one extension")
	}
	if c.Slots.Capacity < 1 || c.Slots.Capacity > slots.MaxCapacity {
		return fmt.Errorf("slots.capacity must be between 1 and %d", slots.MaxCapacity)
	}
	return nil
}

func (c *Config) validateWatch() error {
	if _, err := dirnotify.ParseBackend(c.Watch.Backend); err != nil {
		return fmt.Errorf("watch.backend: %w", err)
	}
	if c.Watch.BufferSize < dirnotify.MinBufferSize {
		return fmt.Errorf("watch.buffer_size must be at least %d bytes", dirnotify.MinBufferSize)
	}
	return nil
}

func (c *Config) validateRotation() error {
	if c.Rotation.SettleSeconds < 0 {
		return errors.New("rotation.settle_seconds must be >= 0")
	}
	if strings.ContainsAny(c.Rotation.DirPrefix, `/\`) {
		return errors.New("rotation.dir_prefix must not contain path separators")
	}
	// A layout without any reference component renders as a constant and
	// every rotation would land in the same directory.
	ref := time.Date(2001, 2, 3, 4, 5, 6, 0, time.UTC)
	if ref.Format(c.Rotation.TimeFormat) == c.Rotation.TimeFormat {
		return fmt.Errorf("rotation.time_format %q has no time components", c.Rotation.TimeFormat)
	}
	if strings.ContainsAny(ref.Format(c.Rotation.TimeFormat), `/\:`) {
		return fmt.Errorf("rotation.time_format %q renders characters not allowed in directory names", c.Rotation.TimeFormat)
	}
	return nil
}
