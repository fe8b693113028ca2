package models

import "testing"

func TestClipContainsHalfOpen(t *testing.T) {
	clip := Clip{Position: 2, Duration: 8}

	tests := []struct {
		name string
		time float64
		want bool
	}{
		{"before start", 1.999, false},
		{"at start", 2, true},
		{"inside", 6, true},
		{"just before end", 9.999, true},
		{"at end excluded", 10, false},
		{"after end", 11, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clip.Contains(tt.time); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.time, got, tt.want)
			}
		})
	}

	if clip.End() != 10 {
		t.Errorf("End() = %v, want 10", clip.End())
	}
}

func TestIsValidBlendMode(t *testing.T) {
	for _, mode := range BlendModes {
		if !IsValidBlendMode(mode) {
			t.Errorf("listed mode %q should be valid", mode)
		}
	}
	for _, mode := range []string{"", "NORMAL", "subtract", "dissolve"} {
		if IsValidBlendMode(mode) {
			t.Errorf("mode %q should be invalid", mode)
		}
	}
}
