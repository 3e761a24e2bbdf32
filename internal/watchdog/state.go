package watchdog

import "time"

// State is the controller lifecycle state.
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Reasons reported by Health when a session is degraded.
const (
	ReasonOpenFailed    = "open_failed"
	ReasonArmFailed     = "arm_failed"
	ReasonChannelClosed = "channel_closed"
)

// Health describes whether the current session is still receiving changes.
// A degraded session stays alive with its last snapshot until Stop.
type Health struct {
	Degraded bool
	Reason   string
	Err      error
	Since    time.Time
}
