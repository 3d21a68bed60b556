// Package voice implements the realtime voice session core: microphone
// capture and framing, gapless interruption-aware playback scheduling,
// transport event dispatch, energy metering for the visualizer, and the
// session lifecycle state machine that owns every resource handle.
package voice

import "encoding/json"

// State represents the lifecycle state of a session.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateActive
	StateClosed
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// CanStart reports whether a new session may start from this state.
func (s State) CanStart() bool {
	switch s {
	case StateIdle, StateClosed, StateFailed:
		return true
	default:
		return false
	}
}

// IsLive reports whether a session is starting or active.
func (s State) IsLive() bool {
	return s == StateStarting || s == StateActive
}
