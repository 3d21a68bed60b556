package voice

import (
	"math"
	"sync/atomic"
)

// energyDecay is the per-block decay factor. Energy attacks instantly on a
// loud block and falls by this factor on each quieter one, which reads as a
// smooth trail in the visualizer instead of jitter.
const energyDecay = 0.9

// Meter is the shared energy cell: a single most-recent value in [0, 1]
// with one writer (the capture tap) and any number of readers (the
// visualizer). No history is kept.
type Meter struct {
	bits atomic.Uint64
}

// Update folds one capture block into the meter and returns the new value.
// The update rule is max(rms, previous*decay).
func (m *Meter) Update(block []float32) float64 {
	rms := blockRMS(block)
	prev := m.Load()
	v := prev * energyDecay
	if rms > v {
		v = rms
	}
	m.bits.Store(math.Float64bits(v))
	return v
}

// Load returns the current energy value.
func (m *Meter) Load() float64 {
	return math.Float64frombits(m.bits.Load())
}

// Reset clears the meter to zero.
func (m *Meter) Reset() {
	m.bits.Store(0)
}

// blockRMS computes the root-mean-square amplitude of a block, clamped to
// [0, 1]. Malformed samples contribute zero.
func blockRMS(block []float32) float64 {
	if len(block) == 0 {
		return 0
	}
	var sum float64
	for _, s := range block {
		v := float64(s)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(block)))
	if rms > 1 {
		rms = 1
	}
	return rms
}
