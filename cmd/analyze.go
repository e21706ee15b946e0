package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/user/sarif-cli/pkg/config"
	"github.com/user/sarif-cli/pkg/logging"
	"github.com/user/sarif-cli/pkg/pipeline"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a project and write per-file SARIF reports",
	Run: func(cmd *cobra.Command, args []string) {
		log := logging.New(DebugMode)
		defer log.Sync()

		opts := config.DefaultOptions()
		opts.InputDir, _ = cmd.Flags().GetString("input")
		opts.OutputDir, _ = cmd.Flags().GetString("output")
		opts.EnableLLM, _ = cmd.Flags().GetBool("enable-llm")
		opts.EnableReach, _ = cmd.Flags().GetBool("enable-reach")
		opts.Workers, _ = cmd.Flags().GetInt("workers")

		if disabled, _ := cmd.Flags().GetString("disable-tools"); disabled != "" {
			for _, t := range strings.Split(disabled, ",") {
				opts.DisabledTools = append(opts.DisabledTools, strings.TrimSpace(t))
			}
		}

		// Flags override the persisted provider configuration.
		if opts.EnableLLM {
			cfg, err := config.LoadConfig()
			if err != nil {
				log.Warnw("config unreadable, using defaults", "error", err)
			} else {
				if cfg.SelectedProvider != "" {
					opts.LLMProvider = cfg.SelectedProvider
				}
				if cfg.SelectedModel != "" {
					opts.LLMModel = cfg.SelectedModel
				}
				opts.LLMAPIKey = cfg.GetAPIKey(opts.LLMProvider)
				if url := cfg.GetBaseURL(opts.LLMProvider); url != "" {
					opts.LLMBaseURL = url
				}
			}
			if url, _ := cmd.Flags().GetString("llm-url"); url != "" {
				opts.LLMBaseURL = url
			}
			if key, _ := cmd.Flags().GetString("llm-key"); key != "" {
				opts.LLMAPIKey = key
			}
			if model, _ := cmd.Flags().GetString("llm-model"); model != "" {
				opts.LLMModel = model
			}
		}

		ctx := context.Background()
		p, err := pipeline.New(ctx, opts, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			os.Exit(2)
		}

		summary, err := p.Run(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Analysis failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Languages:       %s\n", strings.Join(summary.Languages, ", "))
		if len(summary.SkippedTools) > 0 {
			fmt.Printf("Skipped tools:   %s\n", strings.Join(summary.SkippedTools, ", "))
		}
		fmt.Printf("Findings:        %d\n", summary.Findings)
		fmt.Printf("Vulnerabilities: %d (%d confirmed, %d rejected, %d patched)\n",
			summary.Vulnerabilities, summary.Confirmed, summary.Rejected, summary.Patched)
		fmt.Printf("Reports:         %d written to %s\n", len(summary.Reports), opts.OutputDir)
	},
}

func init() {
	analyzeCmd.Flags().StringP("input", "i", "", "Project directory to analyze (required)")
	analyzeCmd.Flags().StringP("output", "o", "out", "Directory for SARIF reports")
	analyzeCmd.Flags().Bool("enable-llm", false, "Verify findings with the configured LLM provider")
	analyzeCmd.Flags().Bool("enable-reach", false, "Run the auxiliary reachability analysis")
	analyzeCmd.Flags().String("llm-url", "", "Override LLM base URL (e.g. http://localhost:11434)")
	analyzeCmd.Flags().String("llm-key", "", "Override LLM API key")
	analyzeCmd.Flags().String("llm-model", "", "Override LLM model name")
	analyzeCmd.Flags().String("disable-tools", "", "Comma-separated adapters to skip (codeql,spotbugs,bandit,semgrep)")
	analyzeCmd.Flags().Int("workers", config.DefaultOptions().Workers, "Concurrent verification requests")
	analyzeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(analyzeCmd)
}
