package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL    string
	outputFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "vramcheck",
	Short: "vramcheck CLI - estimate GPU memory for LLM workloads",
	Long: `vramcheck estimates how much GPU memory a large language model
needs for inference or fine-tuning.

This CLI tool allows you to:
- Estimate VRAM for inference and fine-tuning configurations
- Check whether a workload fits a given GPU setup
- Browse the GPU, precision, method, and architecture tables
- List the bundled model presets`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", getEnvOrDefault("VRAMCHECK_URL", "http://localhost:8080"), "vramcheck server URL")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
