// Package resampler converts mono sample blocks between rates. The browser
// bridge uses it to bring device-native capture rates (typically 44.1 or
// 48 kHz) down to the session's 16 kHz input rate.
package resampler

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resampler converts mono float32 blocks from one sample rate to another.
// Blocks are processed in order; the resampler keeps internal filter state
// between calls. Not safe for concurrent use.
type Resampler struct {
	inRate  int
	outRate int
	rs      resampling.Resampler
}

// New creates a Resampler from inRate to outRate. When the rates are equal
// the resampler passes blocks through unchanged.
func New(inRate, outRate int) (*Resampler, error) {
	if inRate <= 0 || outRate <= 0 {
		return nil, fmt.Errorf("resampler: invalid rates %d -> %d", inRate, outRate)
	}

	r := &Resampler{inRate: inRate, outRate: outRate}
	if inRate == outRate {
		return r, nil
	}

	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(inRate),
		OutputRate: float64(outRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("resampler: %w", err)
	}
	r.rs = rs
	return r, nil
}

// Process resamples one block. The returned slice length varies with the
// rate ratio and the filter's internal latency; it may be empty for short
// blocks near the start of the stream.
func (r *Resampler) Process(block []float32) ([]float32, error) {
	if r.rs == nil {
		out := make([]float32, len(block))
		copy(out, block)
		return out, nil
	}

	in := make([]float64, len(block))
	for i, s := range block {
		in[i] = float64(s)
	}
	out, err := r.rs.Process(in)
	if err != nil {
		return nil, fmt.Errorf("resampler: %w", err)
	}
	res := make([]float32, len(out))
	for i, s := range out {
		res[i] = float32(s)
	}
	return res, nil
}

// Rates returns the configured input and output rates.
func (r *Resampler) Rates() (in, out int) {
	return r.inRate, r.outRate
}
