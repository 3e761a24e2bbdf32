package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"screenwatch/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("USERPROFILE", tempHome)
	t.Setenv(config.WatchDirEnv, "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantWatch := filepath.Join(tempHome, "Documents", "Guild Wars", "Screens")
	if cfg.Paths.WatchDir != wantWatch {
		t.Fatalf("unexpected watch dir: got %q want %q", cfg.Paths.WatchDir, wantWatch)
	}
	wantState := filepath.Join(tempHome, ".local", "share", "screenwatch")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.LockPath() != filepath.Join(wantState, "screenwatch.lock") {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath())
	}
	if cfg.Slots.Capacity != 999 || cfg.Slots.Prefix != "gw" {
		t.Fatalf("unexpected slot defaults: %+v", cfg.Slots)
	}
	if cfg.SettleDelay().Seconds() != 3 {
		t.Fatalf("unexpected settle delay: %v", cfg.SettleDelay())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
	if _, err := os.Stat(cfg.Paths.WatchDir); !os.IsNotExist(err) {
		t.Fatalf("watch dir must not be created, stat err = %v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv(config.WatchDirEnv, "")
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "screenwatch.toml")
	watchDir := filepath.Join(tempDir, "Screens")

	type payload struct {
		Paths struct {
			WatchDir string `toml:"watch_dir"`
		} `toml:"paths"`
		Slots struct {
			Extensions []string `toml:"extensions"`
			Capacity   int      `toml:"capacity"`
		} `toml:"slots"`
		Rotation struct {
			SettleSeconds int `toml:"settle_seconds"`
		} `toml:"rotation"`
	}
	custom := payload{}
	custom.Paths.WatchDir = watchDir
	custom.Slots.Extensions = []string{" .JPG ", "bmp", "jpg"}
	custom.Slots.Capacity = 50
	custom.Rotation.SettleSeconds = 0
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.WatchDir != watchDir {
		t.Fatalf("expected watch dir from file, got %q", cfg.Paths.WatchDir)
	}
	if got := strings.Join(cfg.Slots.Extensions, ","); got != "jpg,bmp" {
		t.Fatalf("expected normalized extensions, got %q", got)
	}
	if cfg.Slots.Capacity != 50 {
		t.Fatalf("expected capacity 50, got %d", cfg.Slots.Capacity)
	}
	if cfg.Rotation.SettleSeconds != 0 {
		t.Fatalf("expected settle 0, got %d", cfg.Rotation.SettleSeconds)
	}
	if cfg.Rotation.DirPrefix != "Auto Backup" {
		t.Fatalf("expected default dir prefix, got %q", cfg.Rotation.DirPrefix)
	}
}

func TestEnvVarOverridesWatchDir(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "screenwatch.toml")
	if err := os.WriteFile(configPath, []byte("[paths]\nwatch_dir = \"/from/file\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	envDir := filepath.Join(tempDir, "from-env")
	t.Setenv(config.WatchDirEnv, envDir)

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.WatchDir != envDir {
		t.Fatalf("expected watch dir from env, got %q", cfg.Paths.WatchDir)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(configPath, []byte("[slots\ncapacity = "), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	def := config.Default()
	if cfg.Paths.WatchDir != def.Paths.WatchDir {
		t.Fatalf("sample watch dir %q differs from default %q", cfg.Paths.WatchDir, def.Paths.WatchDir)
	}
	if cfg.Slots.Capacity != def.Slots.Capacity || cfg.Watch.BufferSize != def.Watch.BufferSize {
		t.Fatalf("sample slots/watch differ from defaults: %+v %+v", cfg.Slots, cfg.Watch)
	}
	if cfg.Rotation.TimeFormat != def.Rotation.TimeFormat {
		t.Fatalf("sample time format %q differs from default", cfg.Rotation.TimeFormat)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"empty watch dir", func(c *config.Config) { c.Paths.WatchDir = "" }},
		{"capacity zero", func(c *config.Config) { c.Slots.Capacity = 0 }},
		{"capacity above three digits", func(c *config.Config) { c.Slots.Capacity = 1000 }},
		{"prefix with separator", func(c *config.Config) { c.Slots.Prefix = "a/b" }},
		{"no extensions", func(c *config.Config) { c.Slots.Extensions = nil }},
		{"unknown backend", func(c *config.Config) { c.Watch.Backend = "inotify" }},
		{"small buffer", func(c *config.Config) { c.Watch.BufferSize = 512 }},
		{"negative settle", func(c *config.Config) { c.Rotation.SettleSeconds = -1 }},
		{"constant time format", func(c *config.Config) { c.Rotation.TimeFormat = "backup" }},
		{"time format with colon", func(c *config.Config) { c.Rotation.TimeFormat = "15:04:05" }},
		{"zero notify timeout", func(c *config.Config) { c.Notifications.RequestTimeout = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestEncodeRoundTrips(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = "https://ntfy.example/screens"
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Notifications.NtfyTopic != cfg.Notifications.NtfyTopic {
		t.Fatalf("topic lost in encode: %q", decoded.Notifications.NtfyTopic)
	}
}
