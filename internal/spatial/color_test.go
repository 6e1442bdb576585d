package spatial

import (
	"errors"
	"math"
	"testing"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want Color
		err  bool
	}{
		{"#ff8000", Color{255, 128, 0}, false},
		{"00ff00", Color{0, 255, 0}, false},
		{"#fff", Color{255, 255, 255}, false},
		{" #000000 ", Black, false},
		{"", Color{}, true},
		{"#zzzzzz", Color{}, true},
		{"#12345", Color{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.err {
				if !errors.Is(err, ErrInvalidColor) {
					t.Fatalf("err = %v, want ErrInvalidColor", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseColor: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if back, _ := ParseColor(got.Hex()); back != got {
				t.Errorf("Hex round trip %v -> %q -> %v", got, got.Hex(), back)
			}
		})
	}
}

func TestColor_Lerp(t *testing.T) {
	base := Color{R: 10, G: 200, B: 0}
	target := Color{R: 250, G: 0, B: 100}

	tests := []struct {
		f    float32
		want Color
	}{
		{0, base},
		{1, target},
		{0.5, Color{R: 130, G: 100, B: 50}},
		{0.333, Color{R: 89, G: 133, B: 33}},
		{2, Color{R: 255, G: 0, B: 200}},
		{-1, Color{R: 0, G: 255, B: 0}},
	}
	for _, tt := range tests {
		if got := base.Lerp(target, tt.f); got != tt.want {
			t.Errorf("Lerp(%v) = %v, want %v", tt.f, got, tt.want)
		}
	}
}

func TestClampChannel(t *testing.T) {
	tests := []struct {
		in   float32
		want uint8
	}{
		{-3, 0},
		{0, 0},
		{134.99, 134},
		{254.999, 254},
		{255, 255},
		{1000, 255},
		{float32(math.NaN()), 0},
	}
	for _, tt := range tests {
		if got := ClampChannel(tt.in); got != tt.want {
			t.Errorf("ClampChannel(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPosition_Distance(t *testing.T) {
	a := Position{0, 0, 0}
	b := Position{1, 1, 1}
	want := float32(math.Sqrt(6))
	if got := a.Distance(b); math.Abs(float64(got-want)) > 1e-6 {
		t.Errorf("Distance = %v, want %v", got, want)
	}
	if got := DefaultDimensions().MaxDistance(); math.Abs(float64(got)-math.Sqrt(27)) > 1e-5 {
		t.Errorf("MaxDistance = %v, want sqrt(27)", got)
	}
}

func TestAssignment_Validate(t *testing.T) {
	tests := []struct {
		name   string
		a      Assignment
		ok     bool
		target Target
	}{
		{"whole device", DeviceAssignment(0, Black), true, TargetDevice},
		{"zone", ZoneAssignment(1, 2, Black), true, TargetZone},
		{"led", LEDAssignment(1, 7, Black), true, TargetLED},
		{"zone and led", Assignment{DeviceIndex: 0, ZoneIndex: 0, LEDIndex: 0}, false, TargetZone},
		{"negative device", DeviceAssignment(-1, Black), false, TargetDevice},
		{"index below none", Assignment{DeviceIndex: 0, ZoneIndex: -2, LEDIndex: -1}, false, TargetDevice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.a.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidAssignment) {
				t.Errorf("Validate err = %v, want ErrInvalidAssignment", err)
			}
			if got := tt.a.Target(); got != tt.target {
				t.Errorf("Target = %v, want %v", got, tt.target)
			}
		})
	}
}
