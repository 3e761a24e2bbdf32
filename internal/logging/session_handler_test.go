package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSessionIDHandler(t *testing.T) {
	var buf bytes.Buffer
	handler := newSessionIDHandler(slog.NewJSONHandler(&buf, nil), "run-123")

	slog.New(handler).Info("test message")

	if !strings.Contains(buf.String(), `"session_id":"run-123"`) {
		t.Errorf("expected session_id in output, got: %s", buf.String())
	}
}

func TestSessionIDHandlerKeepsWatcherSession(t *testing.T) {
	t.Run("bound via With", func(t *testing.T) {
		var buf bytes.Buffer
		handler := newSessionIDHandler(slog.NewJSONHandler(&buf, nil), "run-123")

		slog.New(handler).With(FieldSessionID, "watch-456").Info("scan complete")

		out := buf.String()
		if !strings.Contains(out, `"session_id":"watch-456"`) {
			t.Fatalf("expected watcher session id, got: %s", out)
		}
		if strings.Contains(out, "run-123") {
			t.Fatalf("run session id should not be added twice, got: %s", out)
		}
	})

	t.Run("record attribute", func(t *testing.T) {
		var buf bytes.Buffer
		handler := newSessionIDHandler(slog.NewJSONHandler(&buf, nil), "run-123")

		slog.New(handler).Info("scan complete", FieldSessionID, "watch-789")

		if strings.Count(buf.String(), FieldSessionID) != 1 {
			t.Fatalf("expected a single session_id, got: %s", buf.String())
		}
	})
}

func TestSessionIDHandlerNilBase(t *testing.T) {
	handler := newSessionIDHandler(nil, "session-123")
	if _, ok := handler.(NoopHandler); !ok {
		t.Errorf("expected NoopHandler when base is nil, got: %T", handler)
	}
}
