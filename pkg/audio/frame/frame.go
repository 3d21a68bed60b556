// Package frame converts captured floating-point sample blocks into
// wire-ready payloads: 16-bit signed little-endian PCM, base64 encoded,
// tagged with the capture format's MIME descriptor.
package frame

import (
	"encoding/base64"

	"github.com/vocalis-ai/vocalis/pkg/audio/pcm"
)

// Payload is one encoded capture block ready for transmission. It is
// transient: created for a single outbound send and then discarded.
type Payload struct {
	// MIMEType describes the encoded audio, e.g. "audio/pcm;rate=16000".
	MIMEType string

	// Data is the base64-encoded little-endian 16-bit PCM.
	Data string
}

// Frame encodes one capture block. Samples outside [-1, 1] are clamped and
// NaN samples map to zero; there is no failure path.
func Frame(samples []float32) Payload {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		q := pcm.Float32ToInt16(s)
		buf[i*2] = byte(q)
		buf[i*2+1] = byte(q >> 8)
	}
	return Payload{
		MIMEType: pcm.L16Mono16K.MIMEType(),
		Data:     base64.StdEncoding.EncodeToString(buf),
	}
}

// Decode reverses the payload encoding back to int16 samples. It is used by
// tests and the in-process loopback channel.
func (p Payload) Decode() ([]int16, error) {
	raw, err := base64.StdEncoding.DecodeString(p.Data)
	if err != nil {
		return nil, err
	}
	return pcm.BytesToInt16(raw), nil
}
