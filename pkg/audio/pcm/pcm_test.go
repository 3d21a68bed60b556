package pcm

import (
	"math"
	"testing"
	"time"
)

func TestFormatProperties(t *testing.T) {
	tests := []struct {
		format Format
		rate   int
		mime   string
	}{
		{L16Mono16K, 16000, "audio/pcm;rate=16000"},
		{L16Mono24K, 24000, "audio/pcm;rate=24000"},
	}
	for _, tt := range tests {
		if got := tt.format.SampleRate(); got != tt.rate {
			t.Errorf("%s: SampleRate() = %d, want %d", tt.mime, got, tt.rate)
		}
		if got := tt.format.Channels(); got != 1 {
			t.Errorf("%s: Channels() = %d, want 1", tt.mime, got)
		}
		if got := tt.format.Depth(); got != 16 {
			t.Errorf("%s: Depth() = %d, want 16", tt.mime, got)
		}
		if got := tt.format.MIMEType(); got != tt.mime {
			t.Errorf("MIMEType() = %q, want %q", got, tt.mime)
		}
	}
}

func TestDurationRoundTrip(t *testing.T) {
	f := L16Mono24K
	d := 250 * time.Millisecond
	bytes := f.BytesInDuration(d)
	if bytes != 12000 {
		t.Fatalf("BytesInDuration(250ms) = %d, want 12000", bytes)
	}
	if got := f.Duration(bytes); got != d {
		t.Fatalf("Duration(%d) = %v, want %v", bytes, got, d)
	}
	if got := f.SamplesDuration(f.Samples(bytes)); got != d {
		t.Fatalf("SamplesDuration = %v, want %v", got, d)
	}
}

func TestFloat32ToInt16Clamping(t *testing.T) {
	tests := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1.0, math.MaxInt16},
		{-1.0, math.MinInt16},
		{2.5, math.MaxInt16},
		{-7, math.MinInt16},
		{0.5, 16383},
		{float32(math.NaN()), 0},
	}
	for _, tt := range tests {
		if got := Float32ToInt16(tt.in); got != tt.want {
			t.Errorf("Float32ToInt16(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestInt16BytesRoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 12345, -20000}
	b := Int16ToBytes(samples)
	if len(b) != len(samples)*2 {
		t.Fatalf("Int16ToBytes length = %d, want %d", len(b), len(samples)*2)
	}
	// Little-endian check on a known sample.
	if b[6] != 0xFF || b[7] != 0x7F {
		t.Fatalf("sample 32767 encoded as [%#x %#x], want [0xff 0x7f]", b[6], b[7])
	}
	back := BytesToInt16(b)
	for i := range samples {
		if back[i] != samples[i] {
			t.Errorf("sample %d: got %d, want %d", i, back[i], samples[i])
		}
	}
}

func TestBytesToFloat32Range(t *testing.T) {
	b := Int16ToBytes([]int16{math.MaxInt16, math.MinInt16, 0})
	f := BytesToFloat32(b)
	if f[0] >= 1.0 || f[0] < 0.99 {
		t.Errorf("max sample decoded to %v, want just under 1.0", f[0])
	}
	if f[1] != -1.0 {
		t.Errorf("min sample decoded to %v, want -1.0", f[1])
	}
	if f[2] != 0 {
		t.Errorf("zero sample decoded to %v, want 0", f[2])
	}
}
