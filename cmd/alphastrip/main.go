// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the alphastrip CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/alphastrip/internal/logging"
	"github.com/pdiddy/alphastrip/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// logger carries debug diagnostics; --verbose enables it.
var logger = logging.Discard()

// rootCmd is the base command for the alphastrip CLI.
var rootCmd = &cobra.Command{
	Use:   "alphastrip",
	Short: "Remove the alpha channel from PNG app icons",
	Long: `alphastrip removes transparency from a PNG icon by converting it to JPEG
and back. App stores reject marketing icons that carry an alpha channel; the
round trip produces an opaque copy next to the original.

The conversion uses sips on macOS or ImageMagick elsewhere, falling back to a
built-in encoder when neither is installed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logger = logging.New(os.Stderr, verbose)
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug("config loaded", "path", f)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./alphastrip.yaml or ~/.config/alphastrip/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug detail to stderr")
	rootCmd.PersistentFlags().String("history-db", types.DefaultHistoryPath, "run history database")
	viper.BindPFlag("history.path", rootCmd.PersistentFlags().Lookup("history-db"))
}

func initConfig() {
	setDefaults(viper.GetViper())

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("alphastrip")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "alphastrip"))
		}
	}

	viper.SetEnvPrefix("ALPHASTRIP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "warning: reading config %s: %v\n", cfgFile, err)
	}
}

// setDefaults seeds v with types.Defaults so config files and env only
// need to name what they change.
func setDefaults(v *viper.Viper) {
	d := types.Defaults()
	v.SetDefault("strip.tool", string(d.Strip.Tool))
	v.SetDefault("strip.input", d.Strip.Input)
	v.SetDefault("strip.output", d.Strip.Output)
	v.SetDefault("strip.intermediate", d.Strip.Intermediate)
	v.SetDefault("strip.suffix", d.Strip.Suffix)
	v.SetDefault("strip.quality", d.Strip.Quality)
	v.SetDefault("strip.background", d.Strip.Background)
	v.SetDefault("strip.timeout", d.Strip.Timeout)
	v.SetDefault("strip.verify", d.Strip.Verify)
	v.SetDefault("strip.best_effort", d.Strip.BestEffort)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)
}

// configFrom reads the effective configuration out of v.
func configFrom(v *viper.Viper) types.Config {
	return types.Config{
		Strip: types.StripConfig{
			Tool:         types.ToolName(v.GetString("strip.tool")),
			Input:        v.GetString("strip.input"),
			Output:       v.GetString("strip.output"),
			Intermediate: v.GetString("strip.intermediate"),
			Suffix:       v.GetString("strip.suffix"),
			Quality:      v.GetInt("strip.quality"),
			Background:   v.GetString("strip.background"),
			Timeout:      v.GetDuration("strip.timeout"),
			Verify:       v.GetBool("strip.verify"),
			BestEffort:   v.GetBool("strip.best_effort"),
		},
		History: types.HistoryConfig{
			Enabled: v.GetBool("history.enabled"),
			Path:    v.GetString("history.path"),
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
