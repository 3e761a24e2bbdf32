package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"screenwatch/internal/config"
	"screenwatch/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newRecorder(t *testing.T, status int) (*httptest.Server, func() []captured) {
	t.Helper()
	var mu sync.Mutex
	var got []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		got = append(got, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte("nope"))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []captured {
		mu.Lock()
		defer mu.Unlock()
		return append([]captured(nil), got...)
	}
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyRotationCompleted(context.Background(), "/tmp/backup", 3); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("nil config should yield noop, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	srv, requests := newRecorder(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	svc := notifications.NewService(&cfg)
	ctx := context.Background()

	tests := []struct {
		name   string
		send   func() error
		expect captured
	}{
		{
			name: "rotation completed",
			send: func() error { return svc.NotifyRotationCompleted(ctx, "/s/Auto Backup (2024-01-02 03-04-05)", 999) },
			expect: captured{
				title: "screenwatch - Screenshots Moved",
				tags:  "screenwatch,rotation,completed",
				body:  "Moved 999 screenshots to /s/Auto Backup (2024-01-02 03-04-05)",
			},
		},
		{
			name: "single screenshot",
			send: func() error { return svc.NotifyRotationCompleted(ctx, "/s/b", 1) },
			expect: captured{
				title: "screenwatch - Screenshots Moved",
				tags:  "screenwatch,rotation,completed",
				body:  "Moved 1 screenshot to /s/b",
			},
		},
		{
			name: "rotation failed",
			send: func() error { return svc.NotifyRotationFailed(ctx, "/s", errors.New("disk full")) },
			expect: captured{
				title:    "screenwatch - Rotation Failed",
				tags:     "screenwatch,rotation,error",
				priority: "high",
				body:     "Could not back up /s: disk full",
			},
		},
		{
			name: "watch degraded",
			send: func() error { return svc.NotifyWatchDegraded(ctx, "/s", "open_failed", errors.New("access denied")) },
			expect: captured{
				title:    "screenwatch - Watcher Degraded",
				tags:     "screenwatch,watch,error",
				priority: "high",
				body:     "Stopped tracking /s (open_failed): access denied",
			},
		},
		{
			name: "test",
			send: func() error { return svc.TestNotification(ctx) },
			expect: captured{
				title:    "screenwatch - Test",
				tags:     "screenwatch,test",
				priority: "low",
				body:     "Notification system test",
			},
		},
	}

	for i, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.send(); err != nil {
				t.Fatalf("send: %v", err)
			}
			got := requests()
			if len(got) != i+1 {
				t.Fatalf("expected %d requests, got %d", i+1, len(got))
			}
			if got[i] != tc.expect {
				t.Fatalf("request = %+v, want %+v", got[i], tc.expect)
			}
		})
	}
}

func TestNtfyServiceHonoursToggles(t *testing.T) {
	srv, requests := newRecorder(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	cfg.Notifications.Rotation = false
	cfg.Notifications.Errors = false
	svc := notifications.NewService(&cfg)
	ctx := context.Background()

	_ = svc.NotifyRotationCompleted(ctx, "/s/b", 2)
	_ = svc.NotifyRotationFailed(ctx, "/s", errors.New("x"))
	_ = svc.NotifyWatchDegraded(ctx, "/s", "arm_failed", nil)
	if n := len(requests()); n != 0 {
		t.Fatalf("disabled notifications sent %d requests", n)
	}
	if err := svc.TestNotification(ctx); err != nil {
		t.Fatalf("test notification: %v", err)
	}
	if n := len(requests()); n != 1 {
		t.Fatalf("test notification should always send, got %d", n)
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	srv, _ := newRecorder(t, http.StatusForbidden)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	err := notifications.NewService(&cfg).TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error for 403 response")
	}
}
