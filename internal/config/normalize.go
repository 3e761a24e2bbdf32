package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSlots()
	c.normalizeWatch()
	c.normalizeRotation()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv(WatchDirEnv); ok && strings.TrimSpace(value) != "" {
		c.Paths.WatchDir = strings.TrimSpace(value)
	}
	var err error
	if c.Paths.WatchDir, err = expandPath(strings.TrimSpace(c.Paths.WatchDir)); err != nil {
		return fmt.Errorf("paths.watch_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSlots() {
	c.Slots.Prefix = strings.TrimSpace(c.Slots.Prefix)
	exts := make([]string, 0, len(c.Slots.Extensions))
	seen := make(map[string]struct{}, len(c.Slots.Extensions))
	for _, ext := range c.Slots.Extensions {
		normalized := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	c.Slots.Extensions = exts
}

func (c *Config) normalizeWatch() {
	c.Watch.Backend = strings.ToLower(strings.TrimSpace(c.Watch.Backend))
	if c.Watch.Backend == "" {
		c.Watch.Backend = defaultBackend
	}
}

func (c *Config) normalizeRotation() {
	c.Rotation.DirPrefix = strings.TrimSpace(c.Rotation.DirPrefix)
	if c.Rotation.DirPrefix == "" {
		c.Rotation.DirPrefix = defaultRotationDirPrefix
	}
	c.Rotation.TimeFormat = strings.TrimSpace(c.Rotation.TimeFormat)
	if c.Rotation.TimeFormat == "" {
		c.Rotation.TimeFormat = defaultRotationTimeFormat
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
