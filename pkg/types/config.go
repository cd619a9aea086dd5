// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
)

// ToolName identifies the image converter used for the JPEG round trip.
type ToolName string

const (
	ToolAuto    ToolName = "auto"
	ToolSips    ToolName = "sips"
	ToolMagick  ToolName = "magick"
	ToolConvert ToolName = "convert"
	ToolNative  ToolName = "native"
)

// KnownTools lists every accepted tool name in detection order.
var KnownTools = []ToolName{ToolAuto, ToolSips, ToolMagick, ToolConvert, ToolNative}

// Defaults for an Xcode AppIcon set.
const (
	DefaultInput        = "Icon-App-1024x1024@1x.png"
	DefaultIntermediate = "temp_icon.jpg"
	DefaultSuffix       = "-opaque"
	DefaultQuality      = 95
	DefaultBackground   = "#ffffff"
	DefaultTimeout      = 60 * time.Second
	DefaultHistoryPath  = ".alphastrip/history.db"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// StripConfig holds settings for a single alpha-stripping run.
type StripConfig struct {
	// Tool selects the converter: auto, sips, magick, convert, or native.
	Tool ToolName `json:"tool" yaml:"tool"`

	// Input is the PNG to strip.
	Input string `json:"input" yaml:"input"`

	// Output is the destination PNG. Empty means the input stem plus Suffix.
	Output string `json:"output,omitempty" yaml:"output,omitempty"`

	// Intermediate is the temporary JPEG written between the two conversions.
	Intermediate string `json:"intermediate" yaml:"intermediate"`

	// Suffix is appended to the input stem when Output is empty.
	Suffix string `json:"suffix" yaml:"suffix"`

	// Quality is the JPEG quality of the intermediate (1-100).
	Quality int `json:"quality" yaml:"quality"`

	// Background is the #rrggbb color transparent pixels are flattened onto
	// by the native converter.
	Background string `json:"background" yaml:"background"`

	// Timeout bounds each external command. Zero disables the limit.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Verify inspects the output and fails if it still carries alpha.
	Verify bool `json:"verify" yaml:"verify"`

	// BestEffort reports failures as warnings and always prints the
	// success message, the way the legacy script behaved.
	BestEffort bool `json:"best_effort" yaml:"best_effort"`
}

// HistoryConfig holds settings for the run ledger.
type HistoryConfig struct {
	// Enabled controls whether runs are recorded.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path"`
}

// Config groups all settings.
type Config struct {
	Strip   StripConfig   `json:"strip" yaml:"strip"`
	History HistoryConfig `json:"history" yaml:"history"`
}

// Defaults returns a Config populated with the default values.
func Defaults() Config {
	return Config{
		Strip: StripConfig{
			Tool:         ToolAuto,
			Input:        DefaultInput,
			Intermediate: DefaultIntermediate,
			Suffix:       DefaultSuffix,
			Quality:      DefaultQuality,
			Background:   DefaultBackground,
			Timeout:      DefaultTimeout,
			Verify:       true,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    DefaultHistoryPath,
		},
	}
}

// OutputPath returns the configured output, or <dir>/<stem><suffix>.png
// derived from the input.
func (c StripConfig) OutputPath() string {
	if c.Output != "" {
		return c.Output
	}
	dir := filepath.Dir(c.Input)
	stem := strings.TrimSuffix(filepath.Base(c.Input), filepath.Ext(c.Input))
	return filepath.Join(dir, stem+c.Suffix+".png")
}

// Validate reports the first problem with the strip settings.
func (c StripConfig) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("%w: input is empty", ErrInvalidConfig)
	}
	if !validTool(c.Tool) {
		return fmt.Errorf("%w: unknown tool %q", ErrInvalidConfig, c.Tool)
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("%w: quality %d out of range 1-100", ErrInvalidConfig, c.Quality)
	}
	if c.Output == "" && c.Suffix == "" {
		return fmt.Errorf("%w: output and suffix are both empty", ErrInvalidConfig)
	}
	if c.Intermediate == "" {
		return fmt.Errorf("%w: intermediate is empty", ErrInvalidConfig)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout %v", ErrInvalidConfig, c.Timeout)
	}
	out := filepath.Clean(c.OutputPath())
	if out == filepath.Clean(c.Input) {
		return fmt.Errorf("%w: output %s would overwrite the input", ErrInvalidConfig, out)
	}
	if filepath.Clean(c.Intermediate) == filepath.Clean(c.Input) || filepath.Clean(c.Intermediate) == out {
		return fmt.Errorf("%w: intermediate %s collides with input or output", ErrInvalidConfig, c.Intermediate)
	}
	return nil
}

func validTool(t ToolName) bool {
	for _, k := range KnownTools {
		if k == t {
			return true
		}
	}
	return false
}

// LoadConfig reads a YAML config file over Defaults. Keys absent from the
// file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
