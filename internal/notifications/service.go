package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"screenwatch/internal/config"
)

const userAgent = "screenwatch/0.1.0"

// Service defines the notification surface used by the daemon and CLI.
type Service interface {
	NotifyRotationCompleted(ctx context.Context, backupDir string, moved int) error
	NotifyRotationFailed(ctx context.Context, watchDir string, err error) error
	NotifyWatchDegraded(ctx context.Context, watchDir, reason string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := cfg.NotifyTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		rotation: cfg.Notifications.Rotation,
		errors:   cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	rotation bool
	errors   bool
}

func (n *ntfyService) NotifyRotationCompleted(ctx context.Context, backupDir string, moved int) error {
	if !n.rotation {
		return nil
	}
	noun := "screenshots"
	if moved == 1 {
		noun = "screenshot"
	}
	return n.send(ctx, payload{
		title:   "screenwatch - Screenshots Moved",
		message: fmt.Sprintf("Moved %d %s to %s", moved, noun, strings.TrimSpace(backupDir)),
		tags:    []string{"screenwatch", "rotation", "completed"},
	})
}

func (n *ntfyService) NotifyRotationFailed(ctx context.Context, watchDir string, err error) error {
	if !n.errors {
		return nil
	}
	return n.send(ctx, payload{
		title:    "screenwatch - Rotation Failed",
		message:  fmt.Sprintf("Could not back up %s: %s", strings.TrimSpace(watchDir), errorText(err)),
		tags:     []string{"screenwatch", "rotation", "error"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyWatchDegraded(ctx context.Context, watchDir, reason string, err error) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Stopped tracking ")
	builder.WriteString(strings.TrimSpace(watchDir))
	if reason = strings.TrimSpace(reason); reason != "" {
		builder.WriteString(" (")
		builder.WriteString(reason)
		builder.WriteString(")")
	}
	builder.WriteString(": ")
	builder.WriteString(errorText(err))
	return n.send(ctx, payload{
		title:    "screenwatch - Watcher Degraded",
		message:  builder.String(),
		tags:     []string{"screenwatch", "watch", "error"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "screenwatch - Test",
		message:  "Notification system test",
		tags:     []string{"screenwatch", "test"},
		priority: "low",
	})
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return strings.TrimSpace(err.Error())
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRotationCompleted(context.Context, string, int) error       { return nil }
func (noopService) NotifyRotationFailed(context.Context, string, error) error        { return nil }
func (noopService) NotifyWatchDegraded(context.Context, string, string, error) error { return nil }
func (noopService) TestNotification(context.Context) error                           { return nil }
