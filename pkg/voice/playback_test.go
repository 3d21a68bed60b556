package voice_test

import (
	"testing"
	"time"

	"github.com/vocalis-ai/vocalis/pkg/audio/pcm"
	"github.com/vocalis-ai/vocalis/pkg/voice"
	"github.com/vocalis-ai/vocalis/pkg/voice/voicetest"
)

// segmentBytes builds a playback segment of n samples.
func segmentBytes(n int) []byte {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(i)
	}
	return pcm.Int16ToBytes(samples)
}

func TestSchedulerGapless(t *testing.T) {
	clock := &voicetest.Clock{}
	sc := voice.NewScheduler(clock)

	// 2400 samples at 24 kHz is 100ms.
	for i := 0; i < 3; i++ {
		if err := sc.Enqueue(segmentBytes(2400)); err != nil {
			t.Fatalf("Enqueue #%d: %v", i, err)
		}
	}

	segs := clock.Segments()
	if len(segs) != 3 {
		t.Fatalf("scheduled %d segments, want 3", len(segs))
	}
	for i, seg := range segs {
		want := time.Duration(i) * 100 * time.Millisecond
		if seg.Start != want {
			t.Errorf("segment %d starts at %v, want %v", i, seg.Start, want)
		}
	}
	if got, want := sc.NextStart(), 300*time.Millisecond; got != want {
		t.Errorf("NextStart() = %v, want %v", got, want)
	}
}

func TestSchedulerStartsAtNowWhenSchedulePassed(t *testing.T) {
	clock := &voicetest.Clock{}
	sc := voice.NewScheduler(clock)

	if err := sc.Enqueue(segmentBytes(2400)); err != nil {
		t.Fatal(err)
	}

	// The stream stalls past the end of the scheduled audio; the next
	// segment must not be scheduled in the past.
	clock.SetNow(500 * time.Millisecond)
	if err := sc.Enqueue(segmentBytes(2400)); err != nil {
		t.Fatal(err)
	}

	segs := clock.Segments()
	if got, want := segs[1].Start, 500*time.Millisecond; got != want {
		t.Errorf("stalled segment starts at %v, want %v", got, want)
	}
}

func TestSchedulerStartsNeverDecrease(t *testing.T) {
	clock := &voicetest.Clock{}
	sc := voice.NewScheduler(clock)

	sizes := []int{2400, 240, 4800, 240, 2400}
	for i, n := range sizes {
		if err := sc.Enqueue(segmentBytes(n)); err != nil {
			t.Fatalf("Enqueue #%d: %v", i, err)
		}
		clock.Advance(10 * time.Millisecond)
	}

	segs := clock.Segments()
	for i := 1; i < len(segs); i++ {
		if segs[i].Start < segs[i-1].Start {
			t.Errorf("segment %d starts at %v, before segment %d at %v",
				i, segs[i].Start, i-1, segs[i-1].Start)
		}
	}
}

func TestSchedulerInterrupt(t *testing.T) {
	clock := &voicetest.Clock{}
	sc := voice.NewScheduler(clock)

	for i := 0; i < 2; i++ {
		if err := sc.Enqueue(segmentBytes(2400)); err != nil {
			t.Fatal(err)
		}
	}
	clock.SetNow(30 * time.Millisecond)

	sc.Interrupt()

	if got := sc.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount() after interrupt = %d, want 0", got)
	}
	if got := sc.NextStart(); got != 0 {
		t.Errorf("NextStart() after interrupt = %v, want 0", got)
	}
	for i, seg := range clock.Segments() {
		if !seg.Stopped() {
			t.Errorf("segment %d not stopped by interrupt", i)
		}
	}

	// The next segment plays immediately rather than behind the canceled
	// schedule.
	if err := sc.Enqueue(segmentBytes(2400)); err != nil {
		t.Fatal(err)
	}
	segs := clock.Segments()
	if got, want := segs[len(segs)-1].Start, 30*time.Millisecond; got != want {
		t.Errorf("post-interrupt segment starts at %v, want %v", got, want)
	}
}

func TestSchedulerDropsMalformedSegments(t *testing.T) {
	clock := &voicetest.Clock{}
	sc := voice.NewScheduler(clock)

	if err := sc.Enqueue(segmentBytes(2400)); err != nil {
		t.Fatal(err)
	}
	before := sc.NextStart()

	for _, b := range [][]byte{nil, {}, {0x01}, {0x01, 0x02, 0x03}} {
		if err := sc.Enqueue(b); err == nil {
			t.Errorf("Enqueue(%d bytes) succeeded, want error", len(b))
		}
	}

	if got := sc.NextStart(); got != before {
		t.Errorf("NextStart() moved from %v to %v on malformed segments", before, got)
	}
	if got := len(clock.Segments()); got != 1 {
		t.Errorf("scheduled %d segments, want 1", got)
	}
}

func TestSchedulerSegmentEndShrinksActiveSet(t *testing.T) {
	clock := &voicetest.Clock{}
	sc := voice.NewScheduler(clock)

	for i := 0; i < 2; i++ {
		if err := sc.Enqueue(segmentBytes(2400)); err != nil {
			t.Fatal(err)
		}
	}
	if got := sc.ActiveCount(); got != 2 {
		t.Fatalf("ActiveCount() = %d, want 2", got)
	}

	clock.Advance(100 * time.Millisecond)
	if got := sc.ActiveCount(); got != 1 {
		t.Errorf("ActiveCount() after first segment = %d, want 1", got)
	}
	clock.Advance(100 * time.Millisecond)
	if got := sc.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount() after both segments = %d, want 0", got)
	}
}

func TestSchedulerClose(t *testing.T) {
	clock := &voicetest.Clock{}
	sc := voice.NewScheduler(clock)

	if err := sc.Enqueue(segmentBytes(2400)); err != nil {
		t.Fatal(err)
	}
	sc.Close()
	sc.Close()

	if got := sc.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount() after close = %d, want 0", got)
	}
	if err := sc.Enqueue(segmentBytes(2400)); err == nil {
		t.Error("Enqueue after Close succeeded, want error")
	}
}
