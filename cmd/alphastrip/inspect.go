// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/alphastrip/internal/alpha"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.png>...",
	Short: "Report whether PNG files carry an alpha channel",
	Long: `Inspect reads each PNG header and reports its dimensions, color type and
whether it carries transparency (an alpha color type or a tRNS chunk).

With --fail-on-alpha the command exits non-zero if any file has alpha, which
is useful as a pre-submission check.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().Bool("fail-on-alpha", false, "exit non-zero if any file has an alpha channel")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	failOnAlpha, _ := cmd.Flags().GetBool("fail-on-alpha")
	out := cmd.OutOrStdout()

	var failed, withAlpha int
	for _, path := range args {
		info, err := alpha.InspectFile(path)
		if err != nil {
			fmt.Fprintf(out, "failed:  %s (%v)\n", path, err)
			failed++
			continue
		}
		verdict := "opaque"
		if info.HasAlphaChannel() {
			verdict = "alpha"
			withAlpha++
		}
		fmt.Fprintf(out, "%-7s  %s (%dx%d, %s, %d-bit)\n",
			verdict, path, info.Width, info.Height, info.ColorTypeName(), info.BitDepth)
	}

	if failed > 0 {
		return fmt.Errorf("%d file(s) could not be inspected", failed)
	}
	if failOnAlpha && withAlpha > 0 {
		return fmt.Errorf("%d file(s) have an alpha channel", withAlpha)
	}
	return nil
}
