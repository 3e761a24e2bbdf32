package logging

// Standardized structured logging keys.
const (
	FieldComponent = "component"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldSessionID identifies one watcher session or daemon run.
	FieldSessionID = "session_id"
	FieldWatchDir  = "watch_dir"
	FieldSlot      = "slot"
	FieldFile      = "file"
)
