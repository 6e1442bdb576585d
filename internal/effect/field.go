package effect

import (
	"math"

	"github.com/Wolfieeewolf/lightscape/internal/spatial"
)

// Settings are the user-facing parameters of an effect.
type Settings struct {
	// Speed scales time; 50 is real time.
	Speed int `json:"speed"`

	// Intensity scales brightness in percent. Values above 100 saturate.
	Intensity int `json:"intensity"`

	// Base is the colour at factor 0 in colour mode.
	Base spatial.Color `json:"base_color"`

	// Target engages colour mode when set: factors interpolate from Base
	// to Target instead of producing greyscale.
	Target *spatial.Color `json:"target_color,omitempty"`
}

// Default effect settings.
const (
	DefaultSpeed     = 50
	DefaultIntensity = 100
)

// DefaultSettings returns neutral speed, full intensity and greyscale output.
func DefaultSettings() Settings {
	return Settings{Speed: DefaultSpeed, Intensity: DefaultIntensity}
}

func scale(intensity int) float32 {
	return float32(intensity) / 100
}

func sin32(v float32) float32 {
	return float32(math.Sin(float64(v)))
}

// RadialFade is brightest at the reference and fades linearly to zero at
// maxDist. The result is clamped to [0,1].
func RadialFade(dist, maxDist float32, intensity int) float32 {
	if maxDist <= 0 {
		return 0
	}
	return clamp01((1 - dist/maxDist) * scale(intensity))
}

// Wave is a sine wave travelling outward from the reference.
func Wave(dist, elapsed float32, intensity int) float32 {
	return (sin32(dist-elapsed*3)*0.5 + 0.5) * scale(intensity)
}

// Ripple is a unit-wide band of light moving outward from the reference.
func Ripple(dist, elapsed float32, intensity int) float32 {
	v := 1 - float32(math.Abs(float64(dist-elapsed*2)))
	if v < 0 {
		v = 0
	}
	return v * scale(intensity)
}

// LayerCascade pulses each layer with a phase offset by its z index.
func LayerCascade(z int, elapsed float32, intensity int) float32 {
	return (sin32(elapsed+float32(z)*0.5)*0.5 + 0.5) * scale(intensity)
}

func clamp01(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// Factor computes the brightness factor of kind at p. ok is false when the
// kind needs a reference point and ref is nil, or for KindNone.
func Factor(kind Kind, dims spatial.Dimensions, ref *spatial.Position, p spatial.Position, elapsed float32, intensity int) (float32, bool) {
	if kind.RequiresReference() && ref == nil {
		return 0, false
	}
	switch kind {
	case KindRadialFade:
		return RadialFade(p.Distance(*ref), dims.MaxDistance(), intensity), true
	case KindWave:
		return Wave(p.Distance(*ref), elapsed, intensity), true
	case KindRipple:
		return Ripple(p.Distance(*ref), elapsed, intensity), true
	case KindLayerCascade:
		return LayerCascade(p.Z, elapsed, intensity), true
	default:
		return 0, false
	}
}

// Colorize maps a factor to a colour: greyscale, or Base to Target when
// colour mode is engaged.
func Colorize(f float32, s Settings) spatial.Color {
	if s.Target != nil {
		return s.Base.Lerp(*s.Target, f)
	}
	return spatial.Gray(spatial.ClampChannel(255 * f))
}

// Frame computes the colour of every assignment in scene for one tick.
// It returns nil when the effect produces nothing this tick.
func Frame(kind Kind, scene spatial.Scene, elapsed float32, s Settings) []spatial.ColorWrite {
	if kind == KindNone || (kind.RequiresReference() && scene.User == nil) {
		return nil
	}

	var out []spatial.ColorWrite
	for _, cell := range scene.Cells {
		f, ok := Factor(kind, scene.Dimensions, scene.User, cell.Position, elapsed, s.Intensity)
		if !ok {
			continue
		}
		c := Colorize(f, s)
		for i := range cell.Assignments {
			out = append(out, spatial.ColorWrite{Position: cell.Position, Index: i, Color: c})
		}
	}
	return out
}
