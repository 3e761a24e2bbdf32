package preflight

import (
	"fmt"
	"os"

	"screenwatch/internal/config"
	"screenwatch/internal/dirnotify"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Screenshot folder", cfg.Paths.WatchDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckBackend(cfg.Watch.Backend),
	}
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

// CheckDirectoryAccess verifies that the directory exists and is readable and
// writable. Rotation moves files out of the watched folder, so both are
// required.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := checkAccess(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckBackend verifies that the configured notification backend exists on
// this platform.
func CheckBackend(value string) Result {
	const name = "Change notifications"
	backend, err := dirnotify.ParseBackend(value)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	resolved := backend.Resolve()
	ch, err := dirnotify.New(resolved, dirnotify.MinBufferSize)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", resolved, err)}
	}
	_ = ch.Cancel()
	return Result{Name: name, Passed: true, Detail: string(resolved)}
}
