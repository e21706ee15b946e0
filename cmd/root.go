package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sarif-cli",
	Short: "Multi-tool SAST aggregation with LLM-assisted verification",
	Long: `sarif-cli runs the available static analyzers over a project, merges
their findings into deduplicated vulnerabilities, verifies each one with a
configured LLM (or deterministic fallback rules), and writes one SARIF 2.1.0
report per affected source file.`,
}

var DebugMode bool

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&DebugMode, "debug", false, "Enable debug logging")
}
