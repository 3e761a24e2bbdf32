package config

import (
	"screenwatch/internal/dirnotify"
	"screenwatch/internal/slots"
)

const (
	defaultConfigPath         = "~/.config/screenwatch/config.toml"
	projectConfigName         = "screenwatch.toml"
	defaultWatchDir           = "~/Documents/Guild Wars/Screens"
	defaultStateDir           = "~/.local/share/screenwatch"
	defaultLogDir             = "~/.local/share/screenwatch/logs"
	defaultBackend            = string(dirnotify.BackendAuto)
	defaultSettleSeconds      = 3
	defaultRotationDirPrefix  = "Auto Backup"
	defaultRotationTimeFormat = "2006-01-02 15-04-05"
	defaultNotifyTimeout      = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 30

	// WatchDirEnv overrides paths.watch_dir when set.
	WatchDirEnv = "SCREENWATCH_DIR"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WatchDir: defaultWatchDir,
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Slots: Slots{
			Prefix:     slots.DefaultPrefix,
			Extensions: append([]string(nil), slots.DefaultExtensions...),
			Capacity:   slots.MaxCapacity,
		},
		Watch: Watch{
			Backend:    defaultBackend,
			BufferSize: dirnotify.DefaultBufferSize,
		},
		Rotation: Rotation{
			Enabled:       true,
			SettleSeconds: defaultSettleSeconds,
			DirPrefix:     defaultRotationDirPrefix,
			TimeFormat:    defaultRotationTimeFormat,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Rotation:       true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
