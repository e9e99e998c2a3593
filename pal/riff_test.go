package pal

import (
	"bytes"
	"image/color"
	"strings"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	in := []color.Palette{
		{
			color.NRGBA{R: 255, G: 255, B: 255, A: 255},
			color.NRGBA{R: 153, G: 153, B: 153, A: 255},
			color.NRGBA{R: 0, G: 0, B: 0, A: 255},
		},
		{
			color.NRGBA{R: 0x33, G: 0x66, B: 0x99, A: 255},
		},
	}

	var buf bytes.Buffer
	if err := WriteTo(&buf, in); err != nil {
		t.Fatalf("WriteTo returned error: %v", err)
	}

	out, err := ReadFrom(&buf)
	if err != nil {
		t.Fatalf("ReadFrom returned error: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("ReadFrom returned %d palettes, want %d", len(out), len(in))
	}
	for i := range in {
		if len(out[i]) != len(in[i]) {
			t.Fatalf("palette %d has %d entries, want %d", i, len(out[i]), len(in[i]))
		}
		for j := range in[i] {
			want := in[i][j].(color.NRGBA)
			got := out[i][j].(color.NRGBA)
			if got.R != want.R || got.G != want.G || got.B != want.B {
				t.Errorf("palette %d entry %d = %v, want RGB of %v", i, j, got, want)
			}
		}
	}
}

func TestReadFrom_RejectsNonPAL(t *testing.T) {
	// A well-formed RIFF document of the wrong form type.
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	buf.Write([]byte{4, 0, 0, 0})
	buf.WriteString("WAVE")

	if _, err := ReadFrom(&buf); err == nil {
		t.Error("ReadFrom accepted a WAVE document")
	}

	if _, err := ReadFrom(strings.NewReader("not riff at all")); err == nil {
		t.Error("ReadFrom accepted garbage input")
	}
}
