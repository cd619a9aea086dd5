// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/alphastrip/internal/history"
	"github.com/pdiddy/alphastrip/internal/strip"
	"github.com/pdiddy/alphastrip/internal/tool"
	"github.com/pdiddy/alphastrip/pkg/types"
)

var stripCmd = &cobra.Command{
	Use:   "strip [input.png]",
	Short: "Remove the alpha channel from a PNG",
	Long: `Strip converts the input PNG to a temporary JPEG and back to PNG, which
drops any transparency. The result is written next to the input with the
-opaque suffix unless --output is given. The temporary JPEG is always removed.

With no argument the Xcode marketing icon Icon-App-1024x1024@1x.png in the
current directory is used.

--best-effort mimics the legacy script: failures are printed as warnings, the
success message is always printed, and the exit status is zero.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStrip,
}

func init() {
	f := stripCmd.Flags()
	f.StringP("output", "o", "", "output PNG (default: <input stem><suffix>.png)")
	f.String("intermediate", types.DefaultIntermediate, "temporary JPEG path")
	f.String("suffix", types.DefaultSuffix, "suffix appended to the input stem when --output is not set")
	f.StringP("tool", "t", string(types.ToolAuto), "converter: auto, sips, magick, convert, or native")
	f.IntP("quality", "q", types.DefaultQuality, "JPEG quality of the intermediate (1-100)")
	f.String("background", types.DefaultBackground, "background color for transparent pixels (native tool)")
	f.Duration("timeout", types.DefaultTimeout, "timeout for each external command (0 disables)")
	f.Bool("no-verify", false, "skip checking the output for remaining alpha")
	f.Bool("best-effort", false, "report failures as warnings and always exit zero")
	f.Bool("no-history", false, "do not record this run")

	for key, flag := range map[string]string{
		"strip.output":       "output",
		"strip.intermediate": "intermediate",
		"strip.suffix":       "suffix",
		"strip.tool":         "tool",
		"strip.quality":      "quality",
		"strip.background":   "background",
		"strip.timeout":      "timeout",
		"strip.best_effort":  "best-effort",
	} {
		viper.BindPFlag(key, f.Lookup(flag))
	}

	rootCmd.AddCommand(stripCmd)
}

func runStrip(cmd *cobra.Command, args []string) error {
	cfg := configFrom(viper.GetViper())
	if len(args) == 1 {
		cfg.Strip.Input = args[0]
	}
	if noVerify, _ := cmd.Flags().GetBool("no-verify"); noVerify {
		cfg.Strip.Verify = false
	}
	if noHistory, _ := cmd.Flags().GetBool("no-history"); noHistory {
		cfg.History.Enabled = false
	}

	if err := cfg.Strip.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	conv, err := newConverter(ctx, cfg.Strip)
	if err != nil {
		if cfg.Strip.BestEffort {
			fmt.Fprintf(out, "warning: %v\n", err)
			fmt.Fprintln(out, strip.SuccessMessage)
			return nil
		}
		return err
	}

	opts := strip.Options{
		Input:        cfg.Strip.Input,
		Output:       cfg.Strip.OutputPath(),
		Intermediate: cfg.Strip.Intermediate,
		Quality:      cfg.Strip.Quality,
		Verify:       cfg.Strip.Verify,
		BestEffort:   cfg.Strip.BestEffort,
		Logger:       logger,
	}
	res, stripErr := strip.Strip(ctx, conv, opts, out)

	if cfg.History.Enabled {
		if err := recordRun(ctx, cfg.History, res); err != nil {
			fmt.Fprintf(os.Stderr, "warning: recording history: %v\n", err)
		}
	}

	if stripErr != nil {
		return stripErr
	}
	if res.Succeeded() {
		fmt.Fprintf(os.Stderr, "%s -> %s (%s, %v)\n", res.Input, res.Output, res.Tool, res.Duration.Round(time.Millisecond))
	}
	return nil
}

// newConverter picks the converter named by cfg.Tool. In auto mode the
// external tools are tried first and the built-in encoder is the fallback.
func newConverter(ctx context.Context, cfg types.StripConfig) (strip.Converter, error) {
	if cfg.Tool == types.ToolNative {
		return strip.NewNativeConverter(cfg.Background)
	}

	t, err := tool.Detect(ctx, cfg.Tool, cfg.Timeout)
	if err == nil {
		logger.Debug("tool selected", "tool", t.Name())
		return t, nil
	}
	if cfg.Tool == types.ToolAuto && errors.Is(err, tool.ErrNoTool) {
		logger.Debug("no external tool, using native encoder", "err", err)
		return strip.NewNativeConverter(cfg.Background)
	}
	return nil, err
}

func recordRun(ctx context.Context, cfg types.HistoryConfig, res *strip.Result) error {
	store, err := history.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	run := types.Run{
		Input:       res.Input,
		Output:      res.Output,
		Tool:        res.Tool,
		Status:      types.RunSucceeded,
		InputSHA256: res.InputSHA256,
		Duration:    res.Duration,
	}
	if res.Err != nil {
		run.Status = types.RunFailed
		run.Error = res.Err.Error()
	}
	// Record even when the run was interrupted.
	_, err = store.Record(context.WithoutCancel(ctx), run)
	return err
}
