package effect

import (
	"fmt"
	"strings"
)

// Kind is a procedural effect.
type Kind int

// Effect kinds.
const (
	KindNone Kind = iota
	KindRadialFade
	KindWave
	KindRipple
	KindLayerCascade
)

var kindNames = map[Kind]string{
	KindNone:         "none",
	KindRadialFade:   "radial_fade",
	KindWave:         "wave",
	KindRipple:       "ripple",
	KindLayerCascade: "layer_cascade",
}

// Kinds returns every effect kind except KindNone.
func Kinds() []Kind {
	return []Kind{KindRadialFade, KindWave, KindRipple, KindLayerCascade}
}

// String returns the snake_case name of k.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// RequiresReference reports whether k measures distance from the user
// position. Such effects skip colour writes while no user position is set.
func (k Kind) RequiresReference() bool {
	switch k {
	case KindRadialFade, KindWave, KindRipple:
		return true
	default:
		return false
	}
}

// ParseKind parses an effect name. Matching ignores case, spaces, dashes
// and underscores, so "RadialFade", "radial-fade" and "radial_fade" are
// equivalent.
func ParseKind(s string) (Kind, error) {
	norm := normaliseName(s)
	if norm == "" {
		return KindNone, nil
	}
	for k, n := range kindNames {
		if normaliseName(n) == norm {
			return k, nil
		}
	}
	return KindNone, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func normaliseName(s string) string {
	r := strings.NewReplacer("_", "", "-", "", " ", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(s)))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
