package tonemap

import (
	"errors"
	"image/color"
	"testing"

	colorful "github.com/lucasb-eyer/go-colorful"
)

func TestApply_SpecialPalettes(t *testing.T) {
	tests := []struct {
		name   string
		pal    color.Palette
		policy Policy
		want   color.Palette
	}{
		{
			"empty palette stays empty",
			color.Palette{},
			Scaled{Factor: 0.6},
			color.Palette{},
		},
		{
			"white and transparent black at 60 percent",
			color.Palette{
				color.NRGBA{R: 255, G: 255, B: 255, A: 255},
				color.NRGBA{R: 0, G: 0, B: 0, A: 0},
			},
			Scaled{Factor: 0.6},
			color.Palette{
				color.NRGBA{R: 153, G: 153, B: 153, A: 255},
				color.NRGBA{R: 0, G: 0, B: 0, A: 0},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(tt.pal, tt.policy)
			if err != nil {
				t.Fatalf("Apply returned error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Apply returned %d entries, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("entry %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestApply_ScaledPreservesLengthAndAlpha(t *testing.T) {
	pal := color.Palette{
		color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		color.NRGBA{R: 180, G: 180, B: 180, A: 200},
		color.RGBA{R: 30, G: 30, B: 30, A: 255},
		color.NRGBA{A: 0},
	}

	got, err := Apply(pal, Scaled{Factor: 0.37})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if len(got) != len(pal) {
		t.Fatalf("Apply returned %d entries, want %d", len(got), len(pal))
	}
	for i := range pal {
		in := color.NRGBAModel.Convert(pal[i]).(color.NRGBA)
		out := got[i].(color.NRGBA)
		if out.A != in.A {
			t.Errorf("entry %d alpha = %d, want %d", i, out.A, in.A)
		}
	}
}

func TestApply_ScaledIsIdempotentAtIdentity(t *testing.T) {
	pal := color.Palette{
		color.NRGBA{R: 12, G: 34, B: 56, A: 78},
		color.NRGBA{R: 255, G: 0, B: 128, A: 255},
	}
	got, err := Apply(pal, Scaled{Factor: 1.0})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	for i := range pal {
		if got[i] != pal[i] {
			t.Errorf("entry %d = %v, want %v", i, got[i], pal[i])
		}
	}
}

func TestApply_FixedBasePreservesHierarchy(t *testing.T) {
	darkest := color.NRGBA{R: 10, G: 10, B: 10, A: 255}
	mid := color.NRGBA{R: 120, G: 120, B: 120, A: 200}
	brightest := color.NRGBA{R: 250, G: 250, B: 250, A: 255}
	pal := color.Palette{mid, brightest, darkest}
	base := color.NRGBA{R: 96, G: 96, B: 96, A: 255}

	for _, perceptual := range []bool{false, true} {
		got, err := Apply(pal, FixedBase{Base: base, Perceptual: perceptual})
		if err != nil {
			t.Fatalf("Apply(perceptual=%v) returned error: %v", perceptual, err)
		}

		// The darkest entry keeps its original color exactly, the
		// brightest becomes the base exactly.
		if got[2] != darkest {
			t.Errorf("perceptual=%v: darkest entry = %v, want %v", perceptual, got[2], darkest)
		}
		wantBright := color.NRGBA{R: base.R, G: base.G, B: base.B, A: brightest.A}
		if got[1] != wantBright {
			t.Errorf("perceptual=%v: brightest entry = %v, want %v", perceptual, got[1], wantBright)
		}

		// And among all entries the darkest moved the least and the
		// brightest ended nearest the base.
		driftDark := rgbDistance(got[2].(color.NRGBA), darkest)
		driftMid := rgbDistance(got[0].(color.NRGBA), mid)
		driftBright := rgbDistance(got[1].(color.NRGBA), brightest)
		if driftDark > driftMid || driftDark > driftBright {
			t.Errorf("perceptual=%v: darkest entry drifted most: dark=%v mid=%v bright=%v",
				perceptual, driftDark, driftMid, driftBright)
		}
		if d := rgbDistance(got[1].(color.NRGBA), base); d != 0 {
			t.Errorf("perceptual=%v: brightest entry distance to base = %v, want 0", perceptual, d)
		}

		// Alpha untouched in fixed-base mode too.
		if got[0].(color.NRGBA).A != mid.A {
			t.Errorf("perceptual=%v: mid alpha = %d, want %d", perceptual, got[0].(color.NRGBA).A, mid.A)
		}
	}
}

func TestApply_FixedBaseFlatPaletteConverges(t *testing.T) {
	// Identical luminance everywhere: no hierarchy to keep, everything
	// becomes the base (and nothing divides by zero).
	entry := color.NRGBA{R: 77, G: 77, B: 77, A: 255}
	pal := color.Palette{entry, entry, entry}
	base := color.NRGBA{R: 200, G: 150, B: 100, A: 255}

	got, err := Apply(pal, FixedBase{Base: base})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	want := color.NRGBA{R: base.R, G: base.G, B: base.B, A: entry.A}
	for i := range got {
		if got[i] != want {
			t.Errorf("entry %d = %v, want %v", i, got[i], want)
		}
	}
}

func TestApply_Malformed(t *testing.T) {
	if _, err := Apply(color.Palette{color.NRGBA{}, nil}, Scaled{Factor: 0.5}); !errors.Is(err, ErrMalformedPalette) {
		t.Errorf("Apply with nil entry error = %v, want ErrMalformedPalette", err)
	}
	if _, err := Apply(color.Palette{nil}, FixedBase{Base: White}); !errors.Is(err, ErrMalformedPalette) {
		t.Errorf("Apply with nil entry error = %v, want ErrMalformedPalette", err)
	}
	if _, err := Apply(color.Palette{color.NRGBA{}}, nil); !errors.Is(err, ErrInvalidPolicy) {
		t.Errorf("Apply with nil policy error = %v, want ErrInvalidPolicy", err)
	}
}

func rgbDistance(a, b color.NRGBA) float64 {
	ca := colorful.Color{R: float64(a.R) / 255, G: float64(a.G) / 255, B: float64(a.B) / 255}
	cb := colorful.Color{R: float64(b.R) / 255, G: float64(b.G) / 255, B: float64(b.B) / 255}
	return ca.DistanceRgb(cb)
}
