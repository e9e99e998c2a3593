package tonemap

import (
	"fmt"
	"image/color"
	"math"

	"subtone/okcolor"
)

// Scale multiplies the color channels of c by factor, rounding to nearest.
// Alpha is passed through. factor must be in (0,1].
func Scale(c color.NRGBA, factor float64) (color.NRGBA, error) {
	if factor <= 0 || factor > 1 {
		return color.NRGBA{}, fmt.Errorf("%w: scale factor %v outside (0,1]", ErrInvalidPolicy, factor)
	}

	return color.NRGBA{
		R: clamp255(math.Round(float64(c.R) * factor)),
		G: clamp255(math.Round(float64(c.G) * factor)),
		B: clamp255(math.Round(float64(c.B) * factor)),
		A: c.A,
	}, nil
}

// Luminance returns the Rec. 709 relative luminance of c, used only to order
// palette entries by brightness.
func Luminance(c color.NRGBA) float64 {
	return 0.2126*float64(c.R) + 0.7152*float64(c.G) + 0.0722*float64(c.B)
}

// Blend interpolates the color channels of c toward base. weight 0 keeps c,
// weight 1 yields base; values outside [0,1] are clamped. Alpha follows c.
func Blend(c, base color.NRGBA, weight float64) color.NRGBA {
	weight = math.Min(1, math.Max(0, weight))
	return color.NRGBA{
		R: lerp255(c.R, base.R, weight),
		G: lerp255(c.G, base.G, weight),
		B: lerp255(c.B, base.B, weight),
		A: c.A,
	}
}

// BlendLab is Blend performed in Oklab space, which converges hue and
// lightness more evenly than channel-wise interpolation. Same endpoints,
// same alpha handling.
func BlendLab(c, base color.NRGBA, weight float64) color.NRGBA {
	weight = math.Min(1, math.Max(0, weight))
	switch weight {
	case 0:
		return c
	case 1:
		return color.NRGBA{R: base.R, G: base.G, B: base.B, A: c.A}
	}

	// Convert as opaque so the premultiplied round trip cannot zero the
	// channels of transparent entries; alpha is restored afterwards.
	from := okcolor.LabModel.Convert(color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}).(okcolor.Lab)
	to := okcolor.LabModel.Convert(color.NRGBA{R: base.R, G: base.G, B: base.B, A: 255}).(okcolor.Lab)

	mixed := color.NRGBAModel.Convert(from.Lerp(to, weight)).(color.NRGBA)
	mixed.A = c.A
	return mixed
}

func lerp255(from, to uint8, weight float64) uint8 {
	return clamp255(math.Round(float64(from) + (float64(to)-float64(from))*weight))
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
