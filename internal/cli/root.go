// Package cli implements the sentinel command tree: a long-running sidecar
// server, thin hook adapters that forward host lifecycle events to it, and a
// standalone scan command.
package cli

import (
	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "Runtime behavioral-security monitor for agent tool calls",
	Long: `Sentinel watches an agent's tool chain, blocks unambiguous attack
patterns locally, and escalates ambiguous behavior to a remote
risk-assessment service under a bounded timeout.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
