// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tool detects and drives the external image converters used for
// the PNG -> JPEG -> PNG round trip: sips on macOS, ImageMagick elsewhere.
package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/alphastrip/pkg/types"
)

// Format is the target encoding of a conversion.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// ErrNoTool is returned by Detect when no converter is usable.
var ErrNoTool = errors.New("no image conversion tool available")

// Tool converts an image file into another format with an external binary.
type Tool interface {
	// Name returns the binary name ("sips", "magick" or "convert").
	Name() string

	// Available reports whether the binary is on PATH and answers its probe.
	Available(ctx context.Context) bool

	// Convert writes src re-encoded as format to dst. quality applies to
	// JPEG output and is ignored for PNG.
	Convert(ctx context.Context, src, dst string, format Format, quality int) error
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(ctx context.Context, name string, args ...string) error
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

func (o *osExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// argsFunc builds the argument list for one conversion.
type argsFunc func(src, dst string, format Format, quality int) []string

// binTool implements Tool for one converter binary. The backends differ
// only in binary name, probe arguments and argument layout.
type binTool struct {
	bin     string
	probe   []string
	args    argsFunc
	timeout time.Duration
	exec    executor
}

func (b *binTool) Name() string { return b.bin }

func (b *binTool) Available(ctx context.Context) bool {
	if _, err := b.exec.LookPath(b.bin); err != nil {
		return false
	}
	return b.exec.RunSilent(ctx, b.bin, b.probe...) == nil
}

func (b *binTool) Convert(ctx context.Context, src, dst string, format Format, quality int) error {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	args := b.args(src, dst, format, quality)
	out, err := b.exec.Run(ctx, b.bin, args...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return fmt.Errorf("%s %s -> %s (%s): %w: %s", b.bin, src, dst, format, err, msg)
		}
		return fmt.Errorf("%s %s -> %s (%s): %w", b.bin, src, dst, format, err)
	}
	return nil
}

// sipsArgs produces: sips -s format <fmt> [-s formatOptions <q>] <src> --out <dst>
func sipsArgs(src, dst string, format Format, quality int) []string {
	args := []string{"-s", "format", string(format)}
	if format == FormatJPEG && quality > 0 {
		args = append(args, "-s", "formatOptions", strconv.Itoa(quality))
	}
	return append(args, src, "--out", dst)
}

// magickArgs produces: <src> [-quality <q>] <fmt>:<dst>
func magickArgs(src, dst string, format Format, quality int) []string {
	args := []string{src}
	if format == FormatJPEG && quality > 0 {
		args = append(args, "-quality", strconv.Itoa(quality))
	}
	return append(args, string(format)+":"+dst)
}

func newSips(exec executor, timeout time.Duration) *binTool {
	return &binTool{bin: "sips", probe: []string{"--help"}, args: sipsArgs, timeout: timeout, exec: exec}
}

func newMagick(exec executor, timeout time.Duration) *binTool {
	return &binTool{bin: "magick", probe: []string{"-version"}, args: magickArgs, timeout: timeout, exec: exec}
}

func newConvert(exec executor, timeout time.Duration) *binTool {
	return &binTool{bin: "convert", probe: []string{"-version"}, args: magickArgs, timeout: timeout, exec: exec}
}

var defaultExec = &osExecutor{}

// All returns every external backend in detection order.
func All(timeout time.Duration) []Tool {
	return all(defaultExec, timeout)
}

func all(exec executor, timeout time.Duration) []Tool {
	return []Tool{newSips(exec, timeout), newMagick(exec, timeout), newConvert(exec, timeout)}
}

// Detect returns the preferred tool if it is available. With types.ToolAuto
// it tries sips, then magick, then convert. types.ToolNative is not an
// external tool and is rejected here.
func Detect(ctx context.Context, preferred types.ToolName, timeout time.Duration) (Tool, error) {
	return detect(ctx, defaultExec, preferred, timeout)
}

func detect(ctx context.Context, exec executor, preferred types.ToolName, timeout time.Duration) (Tool, error) {
	candidates := all(exec, timeout)
	if preferred != types.ToolAuto && preferred != "" {
		var match []Tool
		for _, c := range candidates {
			if c.Name() == string(preferred) {
				match = append(match, c)
			}
		}
		if len(match) == 0 {
			return nil, fmt.Errorf("%w: %q is not an external tool", ErrNoTool, preferred)
		}
		candidates = match
	}

	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c.Available(ctx) {
			return c, nil
		}
		names = append(names, c.Name())
	}
	return nil, fmt.Errorf("%w: none of %s found or operational", ErrNoTool, strings.Join(names, ", "))
}
