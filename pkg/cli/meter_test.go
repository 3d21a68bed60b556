package cli

import (
	"strings"
	"testing"
)

func TestMeterRenderFill(t *testing.T) {
	m := NewMeter()

	tests := []struct {
		name   string
		energy float64
		filled int
	}{
		{"silent", 0, 0},
		{"half", 0.5, 5},
		{"full", 1, 10},
		{"clamped high", 2.5, 10},
		{"clamped low", -1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := m.Render(tt.energy, "active", 10)
			if got := strings.Count(out, "█"); got != tt.filled {
				t.Errorf("filled cells = %d, want %d", got, tt.filled)
			}
			if got := strings.Count(out, "░"); got != 10-tt.filled {
				t.Errorf("track cells = %d, want %d", got, 10-tt.filled)
			}
		})
	}
}

func TestMeterRenderState(t *testing.T) {
	m := NewMeter()

	for _, state := range []string{"idle", "starting", "active", "failed"} {
		out := m.Render(0.3, state, 20)
		if !strings.Contains(out, state) {
			t.Errorf("Render(%q) should contain the state label, got: %s", state, out)
		}
	}
}

func TestMeterRenderMinWidth(t *testing.T) {
	m := NewMeter()
	out := m.Render(1, "active", 0)
	if strings.Count(out, "█")+strings.Count(out, "░") != 1 {
		t.Errorf("zero width should clamp to one cell, got: %s", out)
	}
}
