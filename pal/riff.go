// Package pal reads and writes palettes as RIFF PAL files (the Microsoft
// LOGPALETTE layout: version word, entry count, then 4 bytes per color).
// subtone uses it to dump recolored subtitle palettes for inspection.
package pal

import (
	"encoding/binary"
	"fmt"
	"image/color"
	"io"

	"golang.org/x/image/riff"
)

const palVersion = 0x0300

var (
	palType  = riff.FourCC{'P', 'A', 'L', ' '}
	dataType = riff.FourCC{'d', 'a', 't', 'a'}
)

// ReadFrom parses every data chunk of a RIFF PAL stream into a palette.
// The flags byte of each entry is ignored and colors come back opaque.
func ReadFrom(r io.Reader) ([]color.Palette, error) {
	formType, rd, err := riff.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not open RIFF stream: %w", err)
	}
	if formType != palType {
		return nil, fmt.Errorf("unsupported RIFF content type: %s", string(formType[:]))
	}

	var pals []color.Palette
	for {
		id, _, data, err := rd.Next()
		if err == io.EOF {
			return pals, nil
		}
		if err != nil {
			return pals, fmt.Errorf("could not read chunk #%d: %w", len(pals), err)
		}
		if id != dataType {
			return pals, fmt.Errorf("unsupported chunk type in #%d: %s", len(pals), id)
		}

		p, err := readPalette(data, len(pals))
		if err != nil {
			return pals, err
		}
		pals = append(pals, p)
	}
}

func readPalette(r io.Reader, index int) (color.Palette, error) {
	var header struct {
		Version uint16
		Count   uint16
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("could not read header of chunk #%d: %w", index, err)
	}
	if header.Version != palVersion {
		return nil, fmt.Errorf("unsupported palette version in chunk #%d: %d", index, header.Version)
	}

	p := make(color.Palette, header.Count)
	entry := make([]byte, 4)
	for i := range p {
		if _, err := io.ReadFull(r, entry); err != nil {
			return nil, fmt.Errorf("could not read color %d/%d of chunk #%d: %w", i, header.Count, index, err)
		}
		p[i] = color.NRGBA{R: entry[0], G: entry[1], B: entry[2], A: 255}
	}

	return p, nil
}

// WriteTo writes each palette as one data chunk of a single RIFF PAL
// document. Alpha is not representable in the format and is dropped.
func WriteTo(w io.Writer, pals []color.Palette) error {
	size := 4 // form type
	for _, p := range pals {
		size += 8 + 4 + len(p)*4 // chunk header + palette header + entries
	}

	if _, err := w.Write([]byte("RIFF")); err != nil {
		return fmt.Errorf("could not write RIFF magic: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(size)); err != nil {
		return fmt.Errorf("could not write document size: %w", err)
	}
	if _, err := w.Write(palType[:]); err != nil {
		return fmt.Errorf("could not write content type: %w", err)
	}

	for i, p := range pals {
		if err := writePalette(w, p); err != nil {
			return fmt.Errorf("could not write chunk #%d: %w", i, err)
		}
	}
	return nil
}

func writePalette(w io.Writer, p color.Palette) error {
	if _, err := w.Write(dataType[:]); err != nil {
		return fmt.Errorf("could not write chunk type: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(4+len(p)*4)); err != nil {
		return fmt.Errorf("could not write chunk size: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(palVersion)); err != nil {
		return fmt.Errorf("could not write palette version: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(p))); err != nil {
		return fmt.Errorf("could not write number of colors: %w", err)
	}

	for i, col := range p {
		c := color.NRGBAModel.Convert(col).(color.NRGBA)
		if _, err := w.Write([]byte{c.R, c.G, c.B, 0}); err != nil {
			return fmt.Errorf("could not write color %d/%d: %w", i, len(p), err)
		}
	}
	return nil
}
