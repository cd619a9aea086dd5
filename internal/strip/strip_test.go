// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package strip

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/alphastrip/internal/alpha"
	"github.com/pdiddy/alphastrip/internal/tool"
)

// fakeConverter implements Converter for testing. It copies src to dst
// unless a step is configured to fail, and records each call.
type fakeConverter struct {
	failOn  tool.Format
	err     error
	payload []byte // written to dst instead of src when set
	calls   []string
}

func (f *fakeConverter) Name() string { return "fake" }

func (f *fakeConverter) Convert(_ context.Context, src, dst string, format tool.Format, _ int) error {
	f.calls = append(f.calls, string(format)+" "+filepath.Base(src)+" -> "+filepath.Base(dst))
	if f.err != nil && f.failOn == format {
		return f.err
	}
	data := f.payload
	if data == nil {
		var err error
		if data, err = os.ReadFile(src); err != nil {
			return err
		}
	}
	return os.WriteFile(dst, data, 0o644)
}

// transparentIcon writes a 16x16 PNG whose left half is fully transparent.
func transparentIcon(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 8; x < 16; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, "Icon-App-1024x1024@1x.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func opaquePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func options(dir, input string) Options {
	return Options{
		Input:        input,
		Output:       filepath.Join(dir, "Icon-App-1024x1024@1x-opaque.png"),
		Intermediate: filepath.Join(dir, "temp_icon.jpg"),
		Quality:      95,
		Verify:       true,
	}
}

func TestStrip_Native(t *testing.T) {
	dir := t.TempDir()
	input := transparentIcon(t, dir)
	opts := options(dir, input)

	conv, err := NewNativeConverter("#ffffff")
	require.NoError(t, err)

	var out bytes.Buffer
	res, err := Strip(context.Background(), conv, opts, &out)
	require.NoError(t, err)

	assert.True(t, res.Succeeded())
	assert.Equal(t, "native", res.Tool)
	assert.Len(t, res.InputSHA256, 64)
	require.NotNil(t, res.OutputInfo)
	assert.False(t, res.OutputInfo.HasAlphaChannel())
	assert.Equal(t, 16, res.OutputInfo.Width)

	assert.NoFileExists(t, opts.Intermediate)
	assert.FileExists(t, opts.Output)
	assert.FileExists(t, input, "input must be left in place")
	assert.Equal(t, 1, strings.Count(out.String(), SuccessMessage))

	f, err := os.Open(opts.Output)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.False(t, alpha.Translucent(img))

	// Transparent pixels are flattened onto the white background.
	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestStrip_Steps(t *testing.T) {
	dir := t.TempDir()
	input := transparentIcon(t, dir)
	conv := &fakeConverter{payload: opaquePNG(t)}

	var out bytes.Buffer
	_, err := Strip(context.Background(), conv, options(dir, input), &out)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"jpeg Icon-App-1024x1024@1x.png -> temp_icon.jpg",
		"png temp_icon.jpg -> Icon-App-1024x1024@1x-opaque.png",
	}, conv.calls)
}

func TestStrip_Failures(t *testing.T) {
	boom := errors.New("sips: exit status 1")

	tests := []struct {
		name       string
		conv       *fakeConverter
		noInput    bool
		wantErr    error
		wantOutput bool
	}{
		{
			name:    "missing input",
			conv:    &fakeConverter{},
			noInput: true,
			wantErr: ErrInputMissing,
		},
		{
			name:    "jpeg step fails",
			conv:    &fakeConverter{failOn: tool.FormatJPEG, err: boom},
			wantErr: boom,
		},
		{
			name:    "png step fails",
			conv:    &fakeConverter{failOn: tool.FormatPNG, err: boom},
			wantErr: boom,
		},
		{
			name:       "output keeps alpha",
			conv:       &fakeConverter{}, // copies the transparent PNG through unchanged
			wantErr:    ErrAlphaRemains,
			wantOutput: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			input := filepath.Join(dir, "absent.png")
			if !tt.noInput {
				input = transparentIcon(t, dir)
			}
			opts := options(dir, input)

			var out bytes.Buffer
			res, err := Strip(context.Background(), tt.conv, opts, &out)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, res.Err, tt.wantErr)
			assert.False(t, res.Succeeded())

			assert.NotContains(t, out.String(), SuccessMessage)
			assert.NoFileExists(t, opts.Intermediate)
			if tt.wantOutput {
				assert.FileExists(t, opts.Output)
			}
		})
	}
}

func TestStrip_BestEffort(t *testing.T) {
	dir := t.TempDir()
	opts := options(dir, filepath.Join(dir, "absent.png"))
	opts.BestEffort = true

	var out bytes.Buffer
	res, err := Strip(context.Background(), &fakeConverter{}, opts, &out)
	require.NoError(t, err)

	assert.ErrorIs(t, res.Err, ErrInputMissing)
	assert.Contains(t, out.String(), "warning:")
	assert.Equal(t, 1, strings.Count(out.String(), SuccessMessage))
}

func TestStrip_RemovesStaleIntermediate(t *testing.T) {
	dir := t.TempDir()
	opts := options(dir, filepath.Join(dir, "absent.png"))
	require.NoError(t, os.WriteFile(opts.Intermediate, []byte("stale"), 0o644))

	_, err := Strip(context.Background(), &fakeConverter{}, opts, &bytes.Buffer{})
	require.ErrorIs(t, err, ErrInputMissing)
	assert.NoFileExists(t, opts.Intermediate)
}

func TestStrip_NoVerify(t *testing.T) {
	dir := t.TempDir()
	opts := options(dir, transparentIcon(t, dir))
	opts.Verify = false

	res, err := Strip(context.Background(), &fakeConverter{}, opts, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Nil(t, res.OutputInfo)
}

func TestStrip_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	opts := options(dir, transparentIcon(t, dir))
	conv, err := NewNativeConverter("#000")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = Strip(ctx, conv, opts, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, opts.Output)
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{in: "#ffffff", want: color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
		{in: "102030", want: color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 255}},
		{in: "#f0a", want: color.NRGBA{R: 0xff, G: 0x00, B: 0xaa, A: 255}},
		{in: "#12345", wantErr: true},
		{in: "#gggggg", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHexColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
