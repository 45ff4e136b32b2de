package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "trader",
	Short: "Thalas Trader - multi-LLM consensus engine for trading signals",
	Long: `Thalas Trader queries several LLM providers in parallel over a snapshot
of market indicators, reconciles their answers by weighted voting and serves
a single consensus BUY/SELL/HOLD decision with confidence and agreement
scores over HTTP.

Providers are configured through the environment ({PROVIDER}_API_KEY and
friends) or a YAML file; the environment always wins.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
