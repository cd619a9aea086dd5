// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package strip

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/pdiddy/alphastrip/internal/tool"
)

// NativeConverter performs the round trip in-process. Transparent pixels
// are composited onto Background before encoding, so it needs no external
// binary.
type NativeConverter struct {
	Background color.NRGBA
}

// NewNativeConverter parses a #rrggbb (or #rgb) background color.
func NewNativeConverter(background string) (*NativeConverter, error) {
	bg, err := ParseHexColor(background)
	if err != nil {
		return nil, err
	}
	return &NativeConverter{Background: bg}, nil
}

// Name implements Converter.
func (n *NativeConverter) Name() string { return "native" }

// Convert decodes src, flattens it and encodes it to dst as format.
func (n *NativeConverter) Convert(ctx context.Context, src, dst string, format tool.Format, quality int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	img, err := imaging.Open(src)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", src, err)
	}
	flat := n.flatten(img)

	var (
		encFormat imaging.Format
		opts      []imaging.EncodeOption
	)
	switch format {
	case tool.FormatJPEG:
		encFormat = imaging.JPEG
		if quality > 0 {
			opts = append(opts, imaging.JPEGQuality(quality))
		}
	case tool.FormatPNG:
		encFormat = imaging.PNG
	default:
		return fmt.Errorf("unsupported format %q", format)
	}

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if err := imaging.Encode(f, flat, encFormat, opts...); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", dst, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dst, err)
	}
	return nil
}

func (n *NativeConverter) flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	bg := n.Background
	bg.A = 0xff
	canvas := imaging.New(b.Dx(), b.Dy(), bg)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}

// ParseHexColor parses #rrggbb or #rgb, with or without the leading '#'.
func ParseHexColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: want #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
