package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout keeps a fixed width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Trigger records what started a rotation.
type Trigger string

const (
	TriggerFull   Trigger = "full"
	TriggerManual Trigger = "manual"
)

// Rotation is one ledger entry.
type Rotation struct {
	ID         int64
	SessionID  string
	Trigger    Trigger
	WatchDir   string
	BackupDir  string
	Moved      int
	Failed     int
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Succeeded reports whether the rotation produced a backup directory.
func (r Rotation) Succeeded() bool {
	return r.Error == "" && r.BackupDir != ""
}

// Store persists rotations in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the ledger at path and upgrades its schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.upgrade(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts r and returns its assigned ID.
func (s *Store) Record(ctx context.Context, r Rotation) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("history store is closed")
	}
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = r.FinishedAt
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO rotations (
            session_id, cause, watch_dir, backup_dir, moved, failed, error, started_at, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID,
		string(r.Trigger),
		r.WatchDir,
		nullableString(r.BackupDir),
		r.Moved,
		r.Failed,
		nullableString(r.Error),
		r.StartedAt.UTC().Format(timeLayout),
		r.FinishedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("insert rotation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// List returns the most recent rotations first. A limit of zero or less
// returns every row.
func (s *Store) List(ctx context.Context, limit int) ([]Rotation, error) {
	query := `SELECT id, session_id, cause, watch_dir, backup_dir, moved, failed, error, started_at, finished_at
        FROM rotations ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list rotations: %w", err)
	}
	defer rows.Close()

	var out []Rotation
	for rows.Next() {
		var (
			r                 Rotation
			trigger           string
			backupDir, errMsg sql.NullString
			started, finished string
		)
		if err := rows.Scan(&r.ID, &r.SessionID, &trigger, &r.WatchDir, &backupDir, &r.Moved, &r.Failed, &errMsg, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan rotation: %w", err)
		}
		r.Trigger = Trigger(trigger)
		r.BackupDir = backupDir.String
		r.Error = errMsg.String
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rotations: %w", err)
	}
	return out, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
