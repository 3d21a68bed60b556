// Package voicetest provides in-memory capture devices and output clocks
// for exercising the voice session core without audio hardware.
package voicetest

import (
	"fmt"
	"sync"
	"time"

	"github.com/vocalis-ai/vocalis/pkg/voice"
)

// Capture is a fake microphone. Blocks are injected with EmitBlock.
type Capture struct {
	mu      sync.Mutex
	tap     func(block []float32)
	stopped bool

	// FailStart, when set, makes Start return this error.
	FailStart error

	// StartHook, when set, runs at the top of Start before the device state
	// is consulted. Tests use it to order Start against concurrent calls;
	// it runs without the device lock held so it may block.
	StartHook func()
}

// Start installs the tap.
func (c *Capture) Start(tap func(block []float32)) error {
	if c.StartHook != nil {
		c.StartHook()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailStart != nil {
		return c.FailStart
	}
	if c.stopped {
		return fmt.Errorf("voicetest: capture device is stopped")
	}
	c.tap = tap
	return nil
}

// Stop uninstalls the tap. Idempotent.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	c.tap = nil
	return nil
}

// Stopped reports whether Stop has been called.
func (c *Capture) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

// TapInstalled reports whether a tap is currently installed.
func (c *Capture) TapInstalled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tap != nil
}

// EmitBlock drives the tap with one block, as the hardware clock would.
// Blocks emitted while no tap is installed are discarded.
func (c *Capture) EmitBlock(block []float32) {
	c.mu.Lock()
	tap := c.tap
	c.mu.Unlock()
	if tap != nil {
		tap(block)
	}
}

// Segment is one segment scheduled on a Clock.
type Segment struct {
	Samples []int16
	Start   time.Duration
	End     time.Duration

	clock   *Clock
	onEnd   func()
	stopped bool
	ended   bool
}

// Stop cancels the segment without firing its end callback.
func (s *Segment) Stop() {
	s.clock.mu.Lock()
	defer s.clock.mu.Unlock()
	s.stopped = true
}

// Stopped reports whether the segment was canceled.
func (s *Segment) Stopped() bool {
	s.clock.mu.Lock()
	defer s.clock.mu.Unlock()
	return s.stopped
}

// Clock is a fake output clock advanced manually by the test.
type Clock struct {
	mu       sync.Mutex
	now      time.Duration
	segments []*Segment
	closed   bool
}

// Now returns the fake clock time.
func (c *Clock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// SetNow jumps the clock without firing end callbacks.
func (c *Clock) SetNow(now time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Schedule records a segment.
func (c *Clock) Schedule(samples []int16, start time.Duration, onEnd func()) (voice.SegmentHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, fmt.Errorf("voicetest: clock is closed")
	}
	seg := &Segment{
		Samples: samples,
		Start:   start,
		End:     start + voice.PlaybackFormat.SamplesDuration(len(samples)),
		clock:   c,
		onEnd:   onEnd,
	}
	c.segments = append(c.segments, seg)
	return seg, nil
}

// Advance moves the clock forward and fires end callbacks for segments that
// play out by the new time, in schedule order.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var ended []func()
	for _, seg := range c.segments {
		if !seg.stopped && !seg.ended && seg.End <= c.now {
			seg.ended = true
			if seg.onEnd != nil {
				ended = append(ended, seg.onEnd)
			}
		}
	}
	c.mu.Unlock()

	for _, fn := range ended {
		fn()
	}
}

// Close marks the clock released. Idempotent.
func (c *Clock) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (c *Clock) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Segments returns all segments ever scheduled, in schedule order.
func (c *Clock) Segments() []*Segment {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Segment, len(c.segments))
	copy(out, c.segments)
	return out
}

var (
	_ voice.CaptureDevice = (*Capture)(nil)
	_ voice.OutputClock   = (*Clock)(nil)
)
