package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var gpusCmd = &cobra.Command{
	Use:   "gpus",
	Short: "List known GPUs",
	Long:  `Display the GPU capacity table used to resolve GPU names.`,
	RunE:  runGPUs,
}

func init() {
	rootCmd.AddCommand(gpusCmd)
}

func runGPUs(cmd *cobra.Command, args []string) error {
	reqURL := fmt.Sprintf("%s/api/v1/catalog/gpus", serverURL)
	resp, err := http.Get(reqURL)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error: %s", string(body))
	}

	var result struct {
		GPUs  []GPUProfile `json:"gpus"`
		Count int          `json:"count"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVRAM\tALIASES")
	fmt.Fprintln(w, "----\t----\t-------")

	for _, gpu := range result.GPUs {
		fmt.Fprintf(w, "%s\t%.0fGB\t%s\n",
			gpu.Name,
			gpu.VRAMGB,
			strings.Join(gpu.Aliases, ", "),
		)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d GPUs\n", result.Count)
	return nil
}
