// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/alphastrip/internal/tool"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the image converters and whether each is available",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, t := range tool.All(viper.GetDuration("strip.timeout")) {
			status := "missing"
			if t.Available(cmd.Context()) {
				status = "available"
			}
			fmt.Fprintf(out, "%-8s %s\n", t.Name(), status)
		}
		fmt.Fprintf(out, "%-8s %s\n", "native", "available (built in)")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
