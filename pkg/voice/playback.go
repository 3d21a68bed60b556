package voice

import (
	"fmt"
	"sync"
	"time"

	"github.com/vocalis-ai/vocalis/pkg/audio/pcm"
)

// Scheduler schedules decoded audio segments on the output clock with no
// gaps and no overlap, and cancels all in-flight segments on interruption.
type Scheduler struct {
	clock OutputClock

	mu        sync.Mutex
	nextStart time.Duration
	active    map[*segment]SegmentHandle
	closed    bool
}

// segment keys the active set by identity. It must have nonzero size so
// each allocation gets a distinct address; all zero-size allocations share
// one address and would collapse the map to a single entry.
type segment struct{ _ byte }

// NewScheduler creates a Scheduler on the given output clock.
func NewScheduler(clock OutputClock) *Scheduler {
	return &Scheduler{
		clock:  clock,
		active: make(map[*segment]SegmentHandle),
	}
}

// Enqueue decodes one inbound segment and schedules it at
// max(nextStart, now). A segment that fails to decode is dropped without
// advancing the schedule.
func (sc *Scheduler) Enqueue(b []byte) error {
	samples, err := decodeSegment(b)
	if err != nil {
		return err
	}
	dur := PlaybackFormat.SamplesDuration(len(samples))

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.closed {
		return fmt.Errorf("voice: scheduler is closed")
	}

	start := sc.nextStart
	if now := sc.clock.Now(); now > start {
		start = now
	}

	seg := &segment{}
	handle, err := sc.clock.Schedule(samples, start, func() {
		sc.mu.Lock()
		delete(sc.active, seg)
		sc.mu.Unlock()
	})
	if err != nil {
		return fmt.Errorf("voice: schedule segment: %w", err)
	}

	sc.active[seg] = handle
	sc.nextStart = start + dur
	return nil
}

// Interrupt stops every active segment, clears the active set, and resets
// the schedule so the next segment starts at the clock's current time.
func (sc *Scheduler) Interrupt() {
	sc.mu.Lock()
	handles := make([]SegmentHandle, 0, len(sc.active))
	for _, h := range sc.active {
		handles = append(handles, h)
	}
	sc.active = make(map[*segment]SegmentHandle)
	sc.nextStart = 0
	sc.mu.Unlock()

	for _, h := range handles {
		h.Stop()
	}
}

// Close interrupts playback and rejects further segments. Idempotent.
func (sc *Scheduler) Close() {
	sc.mu.Lock()
	if sc.closed {
		sc.mu.Unlock()
		return
	}
	sc.closed = true
	sc.mu.Unlock()
	sc.Interrupt()
}

// ActiveCount returns the number of segments currently scheduled or playing.
func (sc *Scheduler) ActiveCount() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return len(sc.active)
}

// NextStart returns the next scheduled start time.
func (sc *Scheduler) NextStart() time.Duration {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.nextStart
}

// decodeSegment converts inbound playback bytes to samples. The wire carries
// 16-bit little-endian PCM; an empty or odd-length body is malformed.
func decodeSegment(b []byte) ([]int16, error) {
	if len(b) == 0 || len(b)%2 != 0 {
		return nil, fmt.Errorf("voice: malformed segment of %d bytes", len(b))
	}
	return pcm.BytesToInt16(b), nil
}
