// Package pcm defines the linear PCM formats used by the voice session and
// the sample conversions between wire bytes, int16 samples, and float32
// samples. The session captures at 16 kHz mono and plays back at 24 kHz mono;
// both are 16-bit signed little-endian on the wire.
package pcm

import (
	"math"
	"time"
)

const (
	// L16Mono16K represents audio/pcm;rate=16000 (capture side).
	L16Mono16K Format = iota
	// L16Mono24K represents audio/pcm;rate=24000 (playback side).
	L16Mono24K
)

// Format represents an audio format configuration.
type Format int

// SampleRate returns the sample rate in Hz for this format.
func (f Format) SampleRate() int {
	switch f {
	case L16Mono16K:
		return 16000
	case L16Mono24K:
		return 24000
	}
	panic("pcm: invalid audio format")
}

// Channels returns the number of audio channels for this format.
func (f Format) Channels() int {
	switch f {
	case L16Mono16K, L16Mono24K:
		return 1
	}
	panic("pcm: invalid audio format")
}

// Depth returns the bit depth for this format.
func (f Format) Depth() int {
	switch f {
	case L16Mono16K, L16Mono24K:
		return 16
	}
	panic("pcm: invalid audio format")
}

// Samples returns the number of samples in the given number of bytes.
func (f Format) Samples(bytes int) int {
	return bytes * 8 / f.Channels() / f.Depth()
}

// SamplesInDuration returns the number of samples in the given duration.
func (f Format) SamplesInDuration(d time.Duration) int {
	return int(time.Duration(f.SampleRate()) * d / time.Second)
}

// BytesInDuration returns the number of bytes in the given duration.
func (f Format) BytesInDuration(d time.Duration) int {
	return f.SamplesInDuration(d) * f.Channels() * f.Depth() / 8
}

// Duration returns the duration of the given number of bytes.
func (f Format) Duration(bytes int) time.Duration {
	return time.Duration(f.Samples(bytes)) * time.Second / time.Duration(f.SampleRate())
}

// SamplesDuration returns the duration of the given number of samples.
func (f Format) SamplesDuration(samples int) time.Duration {
	return time.Duration(samples) * time.Second / time.Duration(f.SampleRate())
}

// BytesRate returns the byte rate of the audio data.
func (f Format) BytesRate() int {
	return f.SampleRate() * f.Channels() * f.Depth() / 8
}

// MIMEType returns the wire MIME descriptor for this format.
func (f Format) MIMEType() string {
	switch f {
	case L16Mono16K:
		return "audio/pcm;rate=16000"
	case L16Mono24K:
		return "audio/pcm;rate=24000"
	}
	panic("pcm: invalid audio format")
}

// String returns a human-readable string representation of the format.
func (f Format) String() string {
	return f.MIMEType()
}

// Int16ToFloat32 converts a 16-bit sample to the float range [-1, 1).
func Int16ToFloat32(s int16) float32 {
	return float32(s) / 32768.0
}

// Float32ToInt16 converts a float sample to 16-bit, clamping the input to
// [-1, 1]. NaN maps to zero.
func Float32ToInt16(s float32) int16 {
	if s != s { // NaN
		return 0
	}
	if s >= 1.0 {
		return math.MaxInt16
	}
	if s <= -1.0 {
		return math.MinInt16
	}
	return int16(s * 32767.0)
}

// BytesToInt16 decodes little-endian 16-bit samples from b. A trailing odd
// byte is ignored.
func BytesToInt16(b []byte) []int16 {
	samples := make([]int16, len(b)/2)
	for i := range samples {
		samples[i] = int16(b[i*2]) | int16(b[i*2+1])<<8
	}
	return samples
}

// Int16ToBytes encodes samples as little-endian 16-bit bytes.
func Int16ToBytes(samples []int16) []byte {
	b := make([]byte, len(samples)*2)
	for i, s := range samples {
		b[i*2] = byte(s)
		b[i*2+1] = byte(s >> 8)
	}
	return b
}

// BytesToFloat32 decodes little-endian 16-bit samples into float range [-1, 1).
func BytesToFloat32(b []byte) []float32 {
	out := make([]float32, len(b)/2)
	for i := range out {
		s := int16(b[i*2]) | int16(b[i*2+1])<<8
		out[i] = Int16ToFloat32(s)
	}
	return out
}
