package voice

import (
	"time"

	"github.com/vocalis-ai/vocalis/pkg/audio/pcm"
)

const (
	// CaptureFormat is the session input format. The capture device must be
	// configured at this rate; the framer never resamples.
	CaptureFormat = pcm.L16Mono16K

	// PlaybackFormat is the session output format.
	PlaybackFormat = pcm.L16Mono24K

	// BlockSize is the fixed number of samples per capture tap.
	BlockSize = 4096
)

// CaptureDevice is a microphone producing fixed-size sample blocks at the
// capture rate. The tap runs on the device's own clock; implementations call
// it once per BlockSize samples until Stop.
type CaptureDevice interface {
	// Start installs the tap. Blocks of exactly BlockSize float32 samples
	// in [-1, 1] are handed to it at hardware cadence.
	Start(tap func(block []float32)) error

	// Stop uninstalls the tap and releases the device. Idempotent; after
	// Stop returns no further tap invocations are observed by new state.
	Stop() error
}

// SegmentHandle controls one scheduled playback segment.
type SegmentHandle interface {
	// Stop cancels the segment immediately. Stopping a finished segment is
	// a no-op.
	Stop()
}

// OutputClock is the playback device's clock. Time is measured from clock
// start; scheduled segments render back-to-back when their start times abut.
type OutputClock interface {
	// Now returns the clock's current time.
	Now() time.Duration

	// Schedule arranges for samples (at the playback rate) to start at the
	// given clock time. onEnd fires once if the segment plays to its natural
	// end; it does not fire on Stop.
	Schedule(samples []int16, start time.Duration, onEnd func()) (SegmentHandle, error)

	// Close releases the output device. Idempotent.
	Close() error
}
