// based on:
// https://bottosson.github.io/posts/oklab/
// https://bottosson.github.io/posts/colorwrong/#what-can-we-do%3F

package okcolor

import (
	"image/color"
	"math"
)

// Lab is a color in the Oklab space. Alpha is carried through untouched.
type Lab struct {
	L     float64 // perceived lightness
	A     float64 // how green/red the color is
	B     float64 // how blue/yellow the color is
	Alpha uint16
}

var LabModel = color.ModelFunc(labConvert)

func labConvert(c color.Color) color.Color {
	if lc, ok := c.(Lab); ok {
		return lc
	}

	col := color.RGBA64Model.Convert(c).(color.RGBA64)
	r := toLinear(float64(col.R) / 65535)
	g := toLinear(float64(col.G) / 65535)
	b := toLinear(float64(col.B) / 65535)

	l := math.Cbrt(0.4122214708*r + 0.5363325363*g + 0.0514459929*b)
	m := math.Cbrt(0.2119034982*r + 0.6806995451*g + 0.1073969566*b)
	s := math.Cbrt(0.0883024619*r + 0.2817188376*g + 0.6299787005*b)

	return Lab{
		L:     0.2104542553*l + 0.7936177850*m - 0.0040720468*s,
		A:     1.9779984951*l - 2.4285922050*m + 0.4505937099*s,
		B:     0.0259040371*l + 0.7827717662*m - 0.8086757660*s,
		Alpha: col.A,
	}
}

func (lc Lab) RGBA() (uint32, uint32, uint32, uint32) {
	l := lc.L + 0.3963377774*lc.A + 0.2158037573*lc.B
	l = l * l * l
	m := lc.L - 0.1055613458*lc.A - 0.0638541728*lc.B
	m = m * m * m
	s := lc.L - 0.0894841775*lc.A - 1.2914855480*lc.B
	s = s * s * s

	r := +4.0767416621*l - 3.3077115913*m + 0.2309699292*s
	g := -1.2684380046*l + 2.6097574011*m - 0.3413193965*s
	b := -0.0041960863*l - 0.7034186147*m + 1.7076147010*s

	// Out-of-gamut results are clamped channel-wise; palette work never
	// strays far enough from sRGB for perceptual gamut mapping to matter.
	return uint32(math.Round(fromLinear(clamp01(r)) * 65535)),
		uint32(math.Round(fromLinear(clamp01(g)) * 65535)),
		uint32(math.Round(fromLinear(clamp01(b)) * 65535)),
		uint32(lc.Alpha)
}

// Lerp interpolates between lc and other in Oklab space. t=0 yields lc,
// t=1 yields other. Alpha follows lc.
func (lc Lab) Lerp(other Lab, t float64) Lab {
	return Lab{
		L:     lc.L + (other.L-lc.L)*t,
		A:     lc.A + (other.A-lc.A)*t,
		B:     lc.B + (other.B-lc.B)*t,
		Alpha: lc.Alpha,
	}
}

func toLinear(x float64) float64 {
	if x >= 0.04045 {
		return math.Pow((x+0.055)/1.055, 2.4)
	}
	return x / 12.92
}

const invGamma float64 = 1.0 / 2.4

func fromLinear(x float64) float64 {
	if x >= 0.0031308 {
		return math.Pow(x, invGamma)*1.055 - 0.055
	}
	return x * 12.92
}

func clamp01(x float64) float64 {
	return math.Min(1, math.Max(0, x))
}
