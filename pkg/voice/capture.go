package voice

import (
	"github.com/vocalis-ai/vocalis/pkg/audio/frame"
)

// CapturePipe is the tap installed on the capture device once the channel
// is open. Each tap invocation updates the energy meter, frames the block,
// and offers the payload to the transport without blocking the device
// callback.
type CapturePipe struct {
	meter     *Meter
	transport *Transport
}

// NewCapturePipe wires a capture pipe to a meter and a transport.
func NewCapturePipe(meter *Meter, transport *Transport) *CapturePipe {
	return &CapturePipe{meter: meter, transport: transport}
}

// Tap processes one capture block. It runs on the device's clock and must
// return within the block interval: energy and framing are pure CPU work
// and the transport handoff never blocks. If the transport has no room the
// stale payload is displaced; audio is never queued unboundedly.
func (cp *CapturePipe) Tap(block []float32) {
	cp.meter.Update(block)
	cp.transport.Offer(frame.Frame(block))
}
