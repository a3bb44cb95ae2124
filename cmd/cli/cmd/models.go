package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List model presets",
	Long:  `Display the model presets that can be passed to the estimate commands by ID.`,
	RunE:  runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	reqURL := fmt.Sprintf("%s/api/v1/models", serverURL)
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
		Models []ModelPreset `json:"models"`
		Count  int           `json:"count"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	if len(result.Models) == 0 {
		fmt.Println("No model presets registered.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tFAMILY\tPARAMS\tTIER\tNOTES")
	fmt.Fprintln(w, "--\t----\t------\t------\t----\t-----")

	for _, preset := range result.Models {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1fB\t%s\t%s\n",
			preset.ID,
			preset.Name,
			preset.Family,
			preset.ParamsB,
			preset.Tier,
			truncateString(preset.Notes, 40),
		)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d presets\n", result.Count)
	return nil
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
