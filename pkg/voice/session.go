package voice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vocalis-ai/vocalis/pkg/livewire"
)

// Config supplies the resource factories for a session. The session invokes
// them on Start and owns whatever they return until teardown.
type Config struct {
	// OpenCapture acquires the microphone at the capture format.
	OpenCapture func() (CaptureDevice, error)

	// OpenClock acquires the output device clock at the playback format.
	OpenClock func() (OutputClock, error)

	// Dial establishes the bidirectional channel to the remote endpoint.
	Dial func(ctx context.Context) (livewire.Channel, error)

	// OnState, when set, is called after every state transition. It runs on
	// whichever goroutine drove the transition and must not call back into
	// the session.
	OnState func(State)
}

// Session is one realtime conversation. It is the single owner of the
// capture device, the output clock, and the channel; no other component
// holds those handles. A Session instance can be started again after it
// reaches Closed or Failed.
type Session struct {
	cfg   Config
	meter *Meter

	mu        sync.Mutex
	state     State
	lastErr   error
	capture   CaptureDevice
	clock     OutputClock
	scheduler *Scheduler
	transport *Transport
}

// NewSession creates an idle session.
func NewSession(cfg Config) *Session {
	return &Session{cfg: cfg, meter: &Meter{}}
}

// Start acquires devices, establishes the channel, and begins dispatch.
// The session reaches Active only once the channel reports open; until then
// no capture tap is installed and no audio is queued. Start fails if a
// session is already live.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if !s.state.CanStart() {
		s.mu.Unlock()
		return fmt.Errorf("voice: session already live (%s)", s.state)
	}
	s.setStateLocked(StateStarting)
	s.lastErr = nil
	s.mu.Unlock()

	capture, err := s.cfg.OpenCapture()
	if err != nil {
		return s.fail(fmt.Errorf("voice: open capture device: %w", err))
	}
	clock, err := s.cfg.OpenClock()
	if err != nil {
		capture.Stop()
		return s.fail(fmt.Errorf("voice: open output clock: %w", err))
	}
	ch, err := s.cfg.Dial(ctx)
	if err != nil {
		capture.Stop()
		clock.Close()
		return s.fail(fmt.Errorf("voice: dial channel: %w", err))
	}

	s.mu.Lock()
	if s.state != StateStarting {
		// Stop raced the handshake; release everything we just acquired.
		s.mu.Unlock()
		capture.Stop()
		clock.Close()
		ch.Close()
		return fmt.Errorf("voice: session stopped during start")
	}
	s.capture = capture
	s.clock = clock
	s.scheduler = NewScheduler(clock)
	s.transport = NewTransport(ch)
	transport := s.transport
	s.mu.Unlock()

	go transport.Run(Handlers{
		OnOpen:        s.onOpen,
		OnAudio:       s.onAudio,
		OnInterrupted: s.onInterrupted,
		OnClosed:      s.onClosed,
		OnError:       func(err error) { s.fail(err) },
	})
	return nil
}

// Stop ends a live session. It is the user-stop transition: Active (or
// Starting) moves to Closed after full teardown. Stopping a session that is
// not live is a no-op.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.IsLive() {
		return
	}
	s.teardownLocked()
	s.setStateLocked(StateClosed)
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError returns the user-visible error slot: the most recent surfaced
// error, or nil. Latest wins.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Meter returns the session's energy cell. The meter outlives individual
// sessions so the visualizer can keep rendering across restarts.
func (s *Session) Meter() *Meter {
	return s.meter
}

// Snapshot returns the state, energy, and surfaced error in one call, for
// render loops.
func (s *Session) Snapshot() (State, float64, error) {
	s.mu.Lock()
	state, err := s.state, s.lastErr
	s.mu.Unlock()
	return state, s.meter.Load(), err
}

// onOpen handles the channel-open event: the session becomes Active and the
// capture tap is installed. Audio captured before this point was discarded
// by design.
func (s *Session) onOpen() {
	s.mu.Lock()
	if s.state != StateStarting || s.capture == nil {
		s.mu.Unlock()
		return
	}
	pipe := NewCapturePipe(s.meter, s.transport)
	capture := s.capture
	s.setStateLocked(StateActive)
	s.mu.Unlock()

	if err := capture.Start(pipe.Tap); err != nil {
		s.fail(fmt.Errorf("voice: install capture tap: %w", err))
	}
}

func (s *Session) onAudio(pcm []byte) {
	s.mu.Lock()
	scheduler := s.scheduler
	s.mu.Unlock()
	if scheduler == nil {
		return
	}
	if err := scheduler.Enqueue(pcm); err != nil {
		// Undecodable segments are dropped; playback continues with the
		// next arriving segment.
		slog.Debug("voice: dropping segment", "error", err)
	}
}

func (s *Session) onInterrupted() {
	s.mu.Lock()
	scheduler := s.scheduler
	s.mu.Unlock()
	if scheduler != nil {
		scheduler.Interrupt()
	}
}

func (s *Session) onClosed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.IsLive() {
		return
	}
	s.teardownLocked()
	s.setStateLocked(StateClosed)
}

// fail surfaces err in the user-visible slot and tears the session down.
// Every surfaced error leaves no partially-alive resources behind. A session
// already in a terminal state keeps it: a device or channel callback that
// loses the race against Stop must not relabel Closed as Failed.
func (s *Session) fail(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.IsLive() {
		return err
	}
	s.teardownLocked()
	s.lastErr = err
	s.setStateLocked(StateFailed)
	return err
}

// teardownLocked releases every resource handle and nulls it so late device
// or channel callbacks become no-ops. Safe to call from any state, any
// number of times.
func (s *Session) teardownLocked() {
	if s.capture != nil {
		s.capture.Stop()
		s.capture = nil
	}
	if s.scheduler != nil {
		s.scheduler.Close()
		s.scheduler = nil
	}
	if s.transport != nil {
		s.transport.Close()
		s.transport = nil
	}
	if s.clock != nil {
		s.clock.Close()
		s.clock = nil
	}
	s.meter.Reset()
}

func (s *Session) setStateLocked(state State) {
	if s.state == state {
		return
	}
	s.state = state
	if s.cfg.OnState != nil {
		s.cfg.OnState(state)
	}
}
