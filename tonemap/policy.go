package tonemap

import (
	"errors"
	"fmt"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

var (
	ErrInvalidPolicy     = errors.New("invalid tonemap policy")
	ErrInvalidPercentage = errors.New("invalid percentage")
	ErrInvalidColor      = errors.New("invalid color format")
	ErrMalformedPalette  = errors.New("malformed palette")
)

// DefaultPercentage is the brightness percentage used when none is given.
const DefaultPercentage = 60

var White = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// Policy selects how one palette is darkened. The two implementations are
// Scaled and FixedBase.
type Policy interface {
	remap(pal color.Palette) (color.Palette, error)
}

// Scaled multiplies every palette entry toward black by Factor in (0,1].
type Scaled struct {
	Factor float64
}

// FixedBase converges palette entries toward Base in proportion to their
// relative brightness, so outline/fill/antialiasing entries keep their
// visual hierarchy instead of collapsing to one flat color.
type FixedBase struct {
	Base       color.NRGBA
	Perceptual bool
}

// Options is the user-facing tonemap configuration before resolution.
type Options struct {
	Percentage int    // in (0,100]; only consulted when it selects the scaled policy
	Fixed      bool   // tonemap toward opaque white
	Color      string // 6 hex digits; wins over Fixed when set
	Perceptual bool   // blend in Oklab space in fixed-base mode
}

// Resolve normalizes opts into exactly one policy. An explicit color wins
// over the fixed flag, the fixed flag wins over percentage scaling. Errors
// here are startup-fatal, no file is touched afterwards.
func Resolve(opts Options) (Policy, error) {
	if opts.Color != "" {
		base, err := ParseBase(opts.Color)
		if err != nil {
			return nil, err
		}
		return FixedBase{Base: base, Perceptual: opts.Perceptual}, nil
	}

	if opts.Fixed {
		return FixedBase{Base: White, Perceptual: opts.Perceptual}, nil
	}

	if opts.Percentage <= 0 || opts.Percentage > 100 {
		return nil, fmt.Errorf("%w: %d outside (0,100]", ErrInvalidPercentage, opts.Percentage)
	}
	return Scaled{Factor: float64(opts.Percentage) / 100}, nil
}

// ParseBase parses a base color given as exactly 6 hex digits (RRGGBB, case
// insensitive, no leading '#'). The result is always opaque.
func ParseBase(s string) (color.NRGBA, error) {
	if len(s) != 6 || !isHex(s) {
		return color.NRGBA{}, fmt.Errorf("%w: %q is not a 6-digit hex color", ErrInvalidColor, s)
	}

	col, err := colorful.Hex("#" + s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q: %v", ErrInvalidColor, s, err)
	}

	r, g, b := col.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
