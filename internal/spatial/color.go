package spatial

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a 24-bit RGB colour.
//
// It marshals to and from the "#rrggbb" text form in JSON, YAML and SQL
// columns.
type Color struct {
	R, G, B uint8
}

// Common colours.
var (
	Black = Color{}
	White = Color{R: 255, G: 255, B: 255}
)

// Gray returns a grey with all three channels set to v.
func Gray(v uint8) Color {
	return Color{R: v, G: v, B: v}
}

// ParseColor parses a "#rrggbb" or "#rgb" hex string.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Color{}, fmt.Errorf("%w: empty", ErrInvalidColor)
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if len(s) != 4 && len(s) != 7 {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b}, nil
}

// Hex returns the colour as "#rrggbb".
func (c Color) Hex() string {
	return c.colorful().Hex()
}

// String implements fmt.Stringer.
func (c Color) String() string {
	return c.Hex()
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}

// Lerp blends from c towards to by factor f, truncating each channel.
// f is not clamped; channel results are clamped to [0,255].
func (c Color) Lerp(to Color, f float32) Color {
	return Color{
		R: lerpChannel(c.R, to.R, f),
		G: lerpChannel(c.G, to.G, f),
		B: lerpChannel(c.B, to.B, f),
	}
}

func lerpChannel(a, b uint8, f float32) uint8 {
	return ClampChannel(float32(a) + (float32(b)-float32(a))*f)
}

// ClampChannel converts v to a colour channel, clamping to [0,255] and
// truncating toward zero.
func ClampChannel(v float32) uint8 {
	switch {
	case v != v, v <= 0: // NaN or negative
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
