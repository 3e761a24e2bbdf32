// Package logging assembles structured slog loggers and formatting helpers used
// across screenwatch.
//
// It owns the console and JSON handlers, the stdout/file fan-out, and the
// standardized field keys (component, event_type, error_hint, impact,
// session_id) that every warning is expected to carry. A no-op logger is
// provided for tests and wiring code that cannot fail.
package logging
