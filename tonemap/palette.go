package tonemap

import (
	"fmt"
	"image/color"
	"math"
)

// Apply runs one policy over one palette and returns a new palette of
// identical length. The input palette is never mutated; entry order and
// alpha values are preserved. Apply is pure, identical inputs always
// produce identical output.
func Apply(pal color.Palette, p Policy) (color.Palette, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: no policy", ErrInvalidPolicy)
	}
	if len(pal) == 0 {
		return color.Palette{}, nil
	}
	return p.remap(pal)
}

func (p Scaled) remap(pal color.Palette) (color.Palette, error) {
	out := make(color.Palette, len(pal))
	for i := range pal {
		entry, err := nrgbaEntry(pal, i)
		if err != nil {
			return nil, err
		}
		scaled, err := Scale(entry, p.Factor)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}

func (p FixedBase) remap(pal color.Palette) (color.Palette, error) {
	entries := make([]color.NRGBA, len(pal))
	lum := make([]float64, len(pal))
	minLum, maxLum := math.MaxFloat64, -math.MaxFloat64
	for i := range pal {
		entry, err := nrgbaEntry(pal, i)
		if err != nil {
			return nil, err
		}
		entries[i] = entry
		lum[i] = Luminance(entry)
		minLum = min(minLum, lum[i])
		maxLum = max(maxLum, lum[i])
	}

	span := maxLum - minLum
	out := make(color.Palette, len(pal))
	for i, entry := range entries {
		// Darkest entries keep their color, brightest converge to the
		// base. A flat palette has no hierarchy to preserve and fully
		// converges (also avoids dividing by a zero span).
		weight := 1.0
		if span > 0 {
			weight = (lum[i] - minLum) / span
		}
		if p.Perceptual {
			out[i] = BlendLab(entry, p.Base, weight)
		} else {
			out[i] = Blend(entry, p.Base, weight)
		}
	}
	return out, nil
}

func nrgbaEntry(pal color.Palette, i int) (color.NRGBA, error) {
	if pal[i] == nil {
		return color.NRGBA{}, fmt.Errorf("%w: nil entry at index %d", ErrMalformedPalette, i)
	}
	return color.NRGBAModel.Convert(pal[i]).(color.NRGBA), nil
}
