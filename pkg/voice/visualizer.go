package voice

import (
	"context"
	"time"
)

// DefaultFrameInterval approximates one display refresh.
const DefaultFrameInterval = 16 * time.Millisecond

// VisualFrame is one rendered snapshot of the session.
type VisualFrame struct {
	// Energy is the smoothed signal energy in [0, 1].
	Energy float64 `json:"energy"`

	// State is the session lifecycle state keyed to the connection color.
	State State `json:"state"`

	// Error is the surfaced error message, empty when none.
	Error string `json:"error,omitempty"`
}

// Renderer consumes visual frames. Implementations must not mutate session
// state; the visualizer is strictly derived output.
type Renderer interface {
	Render(frame VisualFrame)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(frame VisualFrame)

// Render implements Renderer.
func (f RendererFunc) Render(frame VisualFrame) { f(frame) }

// Visualizer repaints continuously from the session snapshot. It renders an
// idle frame when no session is live and stops cleanly when its context is
// canceled.
type Visualizer struct {
	session  *Session
	renderer Renderer
	interval time.Duration
}

// NewVisualizer creates a visualizer over a session. interval <= 0 selects
// DefaultFrameInterval.
func NewVisualizer(session *Session, renderer Renderer, interval time.Duration) *Visualizer {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Visualizer{session: session, renderer: renderer, interval: interval}
}

// Run repaints until ctx is canceled. It always runs, session or not, so
// the idle representation stays live between sessions.
func (v *Visualizer) Run(ctx context.Context) {
	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			state, energy, err := v.session.Snapshot()
			frame := VisualFrame{Energy: energy, State: state}
			if err != nil {
				frame.Error = err.Error()
			}
			v.renderer.Render(frame)
		}
	}
}
