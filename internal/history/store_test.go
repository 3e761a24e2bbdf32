package history_test

import (
	"context"
	"database/sql"
	"strings"
	"path/filepath"
	"testing"
	"time"

	"screenwatch/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(context.Background(), filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndList(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	entries := []history.Rotation{
		{SessionID: "s1", Trigger: history.TriggerFull, WatchDir: "/screens", BackupDir: "/screens/Auto Backup (a)", Moved: 999, StartedAt: base, FinishedAt: base.Add(time.Second)},
		{SessionID: "s1", Trigger: history.TriggerManual, WatchDir: "/screens", Error: "permission denied", StartedAt: base.Add(time.Hour)},
		{SessionID: "s2", Trigger: history.TriggerFull, WatchDir: "/screens", BackupDir: "/screens/Auto Backup (b)", Moved: 990, Failed: 9, StartedAt: base.Add(2 * time.Hour)},
	}
	for _, e := range entries {
		if _, err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(all))
	}
	if all[0].SessionID != "s2" || all[0].Failed != 9 || all[0].Moved != 990 {
		t.Fatalf("unexpected newest row: %+v", all[0])
	}
	if !all[0].Succeeded() {
		t.Fatal("expected newest rotation to have succeeded")
	}
	if all[1].Succeeded() || all[1].Error != "permission denied" || all[1].BackupDir != "" {
		t.Fatalf("unexpected failed row: %+v", all[1])
	}
	if all[1].FinishedAt.IsZero() {
		t.Fatalf("missing finish should default to now: %+v", all[1])
	}
	if !all[2].StartedAt.Equal(base) || all[2].Trigger != history.TriggerFull {
		t.Fatalf("unexpected oldest row: %+v", all[2])
	}

	limited, err := store.List(ctx, 1)
	if err != nil {
		t.Fatalf("List limit: %v", err)
	}
	if len(limited) != 1 || limited[0].SessionID != "s2" {
		t.Fatalf("unexpected limited list: %+v", limited)
	}
}

func TestReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := history.Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.Record(ctx, history.Rotation{SessionID: "s", Trigger: history.TriggerManual, WatchDir: "/w"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := history.Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	rows, err := reopened.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected persisted row, got %d", len(rows))
	}
	if rows[0].StartedAt.IsZero() || !rows[0].StartedAt.Equal(rows[0].FinishedAt) {
		t.Fatalf("missing times should default to the finish time: %+v", rows[0])
	}
}

func TestOpenRefusesNewerLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := history.Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("read version: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected schema version 1 after open, got %d", version)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA user_version = 99"); err != nil {
		t.Fatalf("set version: %v", err)
	}
	_ = db.Close()

	if _, err := history.Open(ctx, path); err == nil || !strings.Contains(err.Error(), "schema version 99") {
		t.Fatalf("expected newer ledger to be refused, got %v", err)
	}
}
