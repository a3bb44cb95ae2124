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

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse the estimation tables",
	Long:  `Browse the precision, fine-tuning method, and architecture tables the estimator uses.`,
}

var catalogPrecisionsCmd = &cobra.Command{
	Use:   "precisions",
	Short: "List supported precisions",
	RunE:  runCatalogPrecisions,
}

var catalogMethodsCmd = &cobra.Command{
	Use:   "methods",
	Short: "List fine-tuning methods",
	RunE:  runCatalogMethods,
}

var catalogArchitecturesCmd = &cobra.Command{
	Use:   "architectures",
	Short: "List architecture buckets",
	RunE:  runCatalogArchitectures,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogPrecisionsCmd)
	catalogCmd.AddCommand(catalogMethodsCmd)
	catalogCmd.AddCommand(catalogArchitecturesCmd)
}

func runCatalogPrecisions(cmd *cobra.Command, args []string) error {
	reqURL := fmt.Sprintf("%s/api/v1/catalog/precisions", serverURL)
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
		Precisions []PrecisionInfo `json:"precisions"`
		Count      int             `json:"count"`
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
	fmt.Fprintln(w, "NAME\tBYTES/PARAM")
	fmt.Fprintln(w, "----\t-----------")

	for _, p := range result.Precisions {
		fmt.Fprintf(w, "%s\t%g\n", p.Name, p.BytesPerParam)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d precisions\n", result.Count)
	return nil
}

func runCatalogMethods(cmd *cobra.Command, args []string) error {
	reqURL := fmt.Sprintf("%s/api/v1/catalog/methods", serverURL)
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
		Methods []MethodProfile `json:"methods"`
		Count   int             `json:"count"`
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
	fmt.Fprintln(w, "NAME\tWEIGHTS\tOPTIMIZER\tACTIVATION\tADAPTER\tGRAD CKPT\tDESCRIPTION")
	fmt.Fprintln(w, "----\t-------\t---------\t----------\t-------\t---------\t-----------")

	for _, m := range result.Methods {
		fmt.Fprintf(w, "%s\t%s\t%gx\t%gx\t%gx\t%t\t%s\n",
			m.Name,
			m.WeightPrecision,
			m.OptimizerFactor,
			m.ActivationFactor,
			m.AdapterOverhead,
			m.GradientCheckpointing,
			truncateString(m.Description, 50),
		)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d methods\n", result.Count)
	return nil
}

func runCatalogArchitectures(cmd *cobra.Command, args []string) error {
	reqURL := fmt.Sprintf("%s/api/v1/catalog/architectures", serverURL)
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
		Architectures []ArchitectureBucket `json:"architectures"`
		Count         int                  `json:"count"`
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
	fmt.Fprintln(w, "LABEL\tPARAMS\tHIDDEN\tLAYERS\tAPPROX PARAMS")
	fmt.Fprintln(w, "-----\t------\t------\t------\t-------------")

	for _, a := range result.Architectures {
		fmt.Fprintf(w, "%s\t%.0fB\t%d\t%d\t%.1fB\n",
			a.Label,
			a.ParamsB,
			a.Architecture.HiddenDim,
			a.Architecture.NumLayers,
			a.ApproxParams,
		)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d buckets\n", result.Count)
	return nil
}
