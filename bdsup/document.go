// Package bdsup models one decoded subtitle unit in the XML/PNG interchange
// form produced by BDSup2Sub and drives the external decode/encode round
// trip. Only frame palettes are ever modified; timing, geometry and bitmap
// index data pass through untouched.
package bdsup

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/image/draw"

	"subtone/tonemap"
)

// Document is one decoded subtitle stream: the BDN timing XML plus the
// paletted frame bitmaps it references, ordered by file name.
type Document struct {
	Timings string
	Frames  []*Frame
}

// Frame is a single subtitle bitmap. The palette identifier of the frame is
// its file name.
type Frame struct {
	Path string
	Img  *image.Paletted
}

// LoadDocument collects and decodes the PNG frames the external decoder
// emitted next to the given BDN timing XML.
func LoadDocument(xmlPath string) (*Document, error) {
	dir := filepath.Dir(xmlPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("could not read frame folder %q: %w", dir, err)
	}

	doc := &Document{Timings: xmlPath}
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".png") {
			continue
		}
		frame, err := loadFrame(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		doc.Frames = append(doc.Frames, frame)
	}
	sort.Slice(doc.Frames, func(i, j int) bool { return doc.Frames[i].Path < doc.Frames[j].Path })

	return doc, nil
}

func loadFrame(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open frame %q: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Error("could not close frame", "file", path, "error", closeErr)
		}
	}()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("could not decode frame %q: %w", path, err)
	}

	pimg, err := ensurePaletted(img)
	if err != nil {
		return nil, fmt.Errorf("frame %q: %w", path, err)
	}

	return &Frame{Path: path, Img: pimg}, nil
}

// ensurePaletted returns img as a paletted image. Non-paletted frames are
// re-indexed onto a palette derived from their distinct colors; more than
// 256 distinct colors cannot come from a palette-indexed subtitle stream.
func ensurePaletted(img image.Image) (*image.Paletted, error) {
	if pimg, ok := img.(*image.Paletted); ok {
		return pimg, nil
	}

	derived, err := derivePalette(img)
	if err != nil {
		return nil, err
	}

	sr := img.Bounds()
	dr := image.Rect(0, 0, sr.Dx(), sr.Dy())
	dest := image.NewPaletted(dr, derived)
	draw.Draw(dest, dr, img, sr.Min, draw.Src)
	return dest, nil
}

func derivePalette(img image.Image) (color.Palette, error) {
	seen := make(map[color.NRGBA]struct{})
	var derived color.Palette

	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if _, ok := seen[c]; ok {
				continue
			}
			if len(derived) == 256 {
				return nil, fmt.Errorf("%w: more than 256 distinct colors", tonemap.ErrMalformedPalette)
			}
			seen[c] = struct{}{}
			derived = append(derived, c)
		}
	}

	if len(derived) == 0 {
		return nil, fmt.Errorf("%w: empty frame", tonemap.ErrMalformedPalette)
	}
	return derived, nil
}

// Retint replaces every frame's palette with its tonemapped counterpart.
// Indices, alpha handling and everything else about the document follow the
// policy's contract; a failure means the input palette was malformed.
func (d *Document) Retint(p tonemap.Policy) error {
	for _, frame := range d.Frames {
		mapped, err := tonemap.Apply(frame.Img.Palette, p)
		if err != nil {
			return fmt.Errorf("frame %q: %w", filepath.Base(frame.Path), err)
		}
		frame.Img.Palette = mapped
	}
	return nil
}

// Palettes returns a read view of all palettes keyed by frame file name.
func (d *Document) Palettes() map[string]color.Palette {
	pals := make(map[string]color.Palette, len(d.Frames))
	for _, frame := range d.Frames {
		pals[filepath.Base(frame.Path)] = frame.Img.Palette
	}
	return pals
}

// SaveFrames re-encodes every frame as PNG in place, going through a
// temporary file so a failed encode never truncates a frame.
func (d *Document) SaveFrames() error {
	for _, frame := range d.Frames {
		if err := saveFrame(frame); err != nil {
			return err
		}
	}
	return nil
}

func saveFrame(frame *Frame) (err error) {
	dir := filepath.Dir(frame.Path)
	tmp, err := os.CreateTemp(dir, filepath.Base(frame.Path)+".*")
	if err != nil {
		return fmt.Errorf("could not create temporary frame in %q: %w", dir, err)
	}

	canRename := false
	defer func() {
		if closeErr := tmp.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("could not close temporary frame %q: %w", tmp.Name(), closeErr)
		}
		if !canRename {
			os.Remove(tmp.Name())
			return
		}
		if renameErr := os.Rename(tmp.Name(), frame.Path); renameErr != nil && err == nil {
			err = fmt.Errorf("could not replace frame %q: %w", frame.Path, renameErr)
		}
	}()

	if err = png.Encode(tmp, frame.Img); err != nil {
		return fmt.Errorf("could not encode frame %q: %w", frame.Path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("could not flush frame %q: %w", frame.Path, err)
	}

	canRename = true
	return nil
}
