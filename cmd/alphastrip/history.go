// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/alphastrip/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded strip runs",
	Long: `History lists previous strip runs from the local SQLite ledger, newest
first. Use --format yaml or --format json for machine-readable output.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "maximum number of runs to show")
	historyCmd.Flags().StringP("format", "f", "table", "output format: table, yaml, or json")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("format")

	cfg := configFrom(viper.GetViper())
	store, err := history.Open(cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	switch format {
	case "table":
		return store.WriteTable(ctx, out, limit)
	case "yaml":
		return store.ExportYAML(ctx, out, limit)
	case "json":
		return store.ExportJSON(ctx, out, limit)
	default:
		return fmt.Errorf("unknown format %q (use table, yaml, or json)", format)
	}
}
