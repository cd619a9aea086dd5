// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package strip removes the alpha channel from a PNG by round-tripping it
// through JPEG, which cannot carry transparency:
//
//	input.png -> intermediate.jpg -> output.png
//
// The intermediate file is always removed.
package strip

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/pdiddy/alphastrip/internal/alpha"
	"github.com/pdiddy/alphastrip/internal/logging"
	"github.com/pdiddy/alphastrip/internal/tool"
)

// SuccessMessage is printed once after a completed round trip.
const SuccessMessage = "Alpha channel removed successfully"

var (
	// ErrInputMissing is returned when the input file does not exist.
	ErrInputMissing = errors.New("input file not found")

	// ErrAlphaRemains is returned when verification finds transparency in
	// the output.
	ErrAlphaRemains = errors.New("output still has an alpha channel")
)

// Converter re-encodes an image file. tool.Tool and NativeConverter
// implement it.
type Converter interface {
	Name() string
	Convert(ctx context.Context, src, dst string, format tool.Format, quality int) error
}

// Options controls a single strip run.
type Options struct {
	Input        string
	Output       string
	Intermediate string
	Quality      int

	// Verify inspects the output PNG after the round trip.
	Verify bool

	// BestEffort downgrades failures to warnings and always prints
	// SuccessMessage.
	BestEffort bool

	// Logger receives debug detail. Nil discards.
	Logger *slog.Logger
}

// Result holds the outcome of a strip run.
type Result struct {
	Input       string
	Output      string
	Tool        string
	InputSHA256 string
	Duration    time.Duration

	// OutputInfo is populated when Verify is set and the output was read.
	OutputInfo *alpha.Info

	// Err is the failure, if any. In best-effort mode Strip returns nil
	// but Err still records what went wrong.
	Err error
}

// Succeeded reports whether the round trip completed without error.
func (r *Result) Succeeded() bool { return r.Err == nil }

// Strip converts opts.Input to JPEG at opts.Intermediate, converts that back
// to PNG at opts.Output and removes the intermediate. Progress and the
// success message go to w.
func Strip(ctx context.Context, c Converter, opts Options, w io.Writer) (*Result, error) {
	log := logging.OrDiscard(opts.Logger).With("tool", c.Name())
	start := time.Now()

	res := &Result{
		Input:  opts.Input,
		Output: opts.Output,
		Tool:   c.Name(),
	}
	res.Err = roundTrip(ctx, c, opts, res, log)
	res.Duration = time.Since(start)

	if res.Err != nil {
		log.Debug("strip failed", "input", opts.Input, "err", res.Err)
		if !opts.BestEffort {
			return res, res.Err
		}
		fmt.Fprintf(w, "warning: %v\n", res.Err)
	}

	fmt.Fprintln(w, SuccessMessage)
	return res, nil
}

func roundTrip(ctx context.Context, c Converter, opts Options, res *Result, log *slog.Logger) (err error) {
	defer func() {
		if rmErr := removeIfExists(opts.Intermediate); rmErr != nil {
			log.Debug("intermediate not removed", "path", opts.Intermediate, "err", rmErr)
			err = errors.Join(err, fmt.Errorf("removing intermediate: %w", rmErr))
		}
	}()

	sum, err := fileSHA256(opts.Input)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrInputMissing, opts.Input)
		}
		return fmt.Errorf("reading input: %w", err)
	}
	res.InputSHA256 = sum

	log.Debug("converting", "src", opts.Input, "dst", opts.Intermediate, "format", tool.FormatJPEG)
	if err := c.Convert(ctx, opts.Input, opts.Intermediate, tool.FormatJPEG, opts.Quality); err != nil {
		return fmt.Errorf("converting to jpeg: %w", err)
	}

	log.Debug("converting", "src", opts.Intermediate, "dst", opts.Output, "format", tool.FormatPNG)
	if err := c.Convert(ctx, opts.Intermediate, opts.Output, tool.FormatPNG, 0); err != nil {
		return fmt.Errorf("converting to png: %w", err)
	}

	if !opts.Verify {
		return nil
	}
	info, err := alpha.InspectFile(opts.Output)
	if err != nil {
		return fmt.Errorf("verifying output: %w", err)
	}
	res.OutputInfo = &info
	log.Debug("verified", "output", opts.Output, "color_type", info.ColorTypeName())
	if info.HasAlphaChannel() {
		return fmt.Errorf("%w: %s (%s)", ErrAlphaRemains, opts.Output, info.ColorTypeName())
	}
	return nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
