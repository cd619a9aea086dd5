// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package alpha reports whether a PNG carries transparency, either as an
// alpha channel in its color type or as a tRNS chunk.
package alpha

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
)

// ErrNotPNG is returned when the input does not start with the PNG signature.
var ErrNotPNG = errors.New("not a PNG file")

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// PNG color types from the IHDR chunk.
const (
	ColorGray      uint8 = 0
	ColorRGB       uint8 = 2
	ColorPalette   uint8 = 3
	ColorGrayAlpha uint8 = 4
	ColorRGBA      uint8 = 6
)

// Info describes a PNG header.
type Info struct {
	Width     int
	Height    int
	BitDepth  uint8
	ColorType uint8

	// Transparency is set when a tRNS chunk precedes the image data.
	Transparency bool
}

// HasAlphaChannel reports whether decoders will see any transparency.
func (i Info) HasAlphaChannel() bool {
	return i.ColorType == ColorGrayAlpha || i.ColorType == ColorRGBA || i.Transparency
}

// ColorTypeName returns a human-readable name for the color type.
func (i Info) ColorTypeName() string {
	switch i.ColorType {
	case ColorGray:
		return "grayscale"
	case ColorRGB:
		return "rgb"
	case ColorPalette:
		return "palette"
	case ColorGrayAlpha:
		return "grayscale+alpha"
	case ColorRGBA:
		return "rgba"
	}
	return fmt.Sprintf("unknown(%d)", i.ColorType)
}

// Inspect reads the PNG chunk stream up to the first IDAT chunk.
func Inspect(r io.Reader) (Info, error) {
	br := bufio.NewReader(r)

	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(br, sig); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Info{}, ErrNotPNG
		}
		return Info{}, fmt.Errorf("reading signature: %w", err)
	}
	if !bytes.Equal(sig, pngSignature) {
		return Info{}, ErrNotPNG
	}

	var info Info
	sawHeader := false
	hdr := make([]byte, 8)
	for {
		if _, err := io.ReadFull(br, hdr); err != nil {
			return Info{}, fmt.Errorf("reading chunk header: %w", err)
		}
		length := binary.BigEndian.Uint32(hdr[:4])
		kind := string(hdr[4:8])

		switch kind {
		case "IHDR":
			if length != 13 {
				return Info{}, fmt.Errorf("IHDR length %d, want 13", length)
			}
			body := make([]byte, 13)
			if _, err := io.ReadFull(br, body); err != nil {
				return Info{}, fmt.Errorf("reading IHDR: %w", err)
			}
			info.Width = int(binary.BigEndian.Uint32(body[0:4]))
			info.Height = int(binary.BigEndian.Uint32(body[4:8]))
			info.BitDepth = body[8]
			info.ColorType = body[9]
			sawHeader = true
			length = 0
		case "tRNS":
			info.Transparency = true
		case "IDAT", "IEND":
			if !sawHeader {
				return Info{}, fmt.Errorf("%s before IHDR", kind)
			}
			return info, nil
		default:
			if !sawHeader {
				return Info{}, fmt.Errorf("%s chunk before IHDR", kind)
			}
		}

		// Skip the remaining chunk body and its CRC.
		if _, err := br.Discard(int(length) + 4); err != nil {
			return Info{}, fmt.Errorf("skipping %s chunk: %w", kind, err)
		}
	}
}

// InspectFile opens path and inspects it.
func InspectFile(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := Inspect(f)
	if err != nil {
		return Info{}, fmt.Errorf("inspecting %s: %w", path, err)
	}
	return info, nil
}

// Translucent reports whether any pixel of img is less than fully opaque.
func Translucent(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}
