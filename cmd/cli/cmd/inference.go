package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vramcheck/vramcheck/pkg/models"
)

var (
	inferenceModel      string
	inferenceParams     float64
	inferencePrecision  string
	inferenceGPU        string
	inferenceNumGPUs    int
	inferenceBatchSize  int
	inferenceSeqLength  int
	inferenceConcurrent int
	inferenceReasoning  bool
)

var inferenceCmd = &cobra.Command{
	Use:   "inference",
	Short: "Estimate VRAM for inference",
	Long:  `Estimate the GPU memory an inference deployment needs and whether it fits the chosen GPUs.`,
	RunE:  runInference,
}

func init() {
	rootCmd.AddCommand(inferenceCmd)

	inferenceCmd.Flags().StringVarP(&inferenceModel, "model", "m", "", "Model preset ID (e.g., mistral-7b)")
	inferenceCmd.Flags().Float64VarP(&inferenceParams, "params", "p", 0, "Model size in billions of parameters")
	inferenceCmd.Flags().StringVar(&inferencePrecision, "precision", "", "Precision (FP32, FP16, BF16, INT8, Q8, Q6, Q5, INT4, Q4, Q2)")
	inferenceCmd.Flags().StringVarP(&inferenceGPU, "gpu", "g", "", "GPU name, short code, or VRAM capacity in GB (required)")
	inferenceCmd.Flags().IntVar(&inferenceNumGPUs, "num-gpus", 1, "Number of GPUs")
	inferenceCmd.Flags().IntVarP(&inferenceBatchSize, "batch-size", "b", 1, "Batch size")
	inferenceCmd.Flags().IntVarP(&inferenceSeqLength, "seq-length", "s", 2048, "Sequence length in tokens")
	inferenceCmd.Flags().IntVar(&inferenceConcurrent, "concurrent", 1, "Concurrent requests")
	inferenceCmd.Flags().BoolVar(&inferenceReasoning, "reasoning", false, "Reasoning model (higher runtime overhead)")

	inferenceCmd.MarkFlagRequired("gpu")
}

func runInference(cmd *cobra.Command, args []string) error {
	if inferenceModel == "" && inferenceParams <= 0 {
		return fmt.Errorf("either --model or --params must be provided")
	}

	reqBody := map[string]interface{}{
		"gpu":                 inferenceGPU,
		"num_gpus":            inferenceNumGPUs,
		"batch_size":          inferenceBatchSize,
		"seq_length":          inferenceSeqLength,
		"concurrent_requests": inferenceConcurrent,
	}
	if inferenceModel != "" {
		reqBody["model"] = inferenceModel
	}
	if inferenceParams > 0 {
		reqBody["params_billions"] = inferenceParams
	}
	if inferencePrecision != "" {
		reqBody["precision"] = inferencePrecision
	}
	if inferenceReasoning {
		reqBody["is_reasoning"] = true
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/api/v1/estimates/inference", serverURL)
	resp, err := http.Post(reqURL, "application/json", bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("estimate failed: %s", string(body))
	}

	var result InferenceResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	d := result.Details
	fmt.Println("Inference VRAM Estimate")
	fmt.Println("=======================")
	fmt.Println()
	fmt.Printf("Model Weights:      %.2f GB\n", d.ModelWeights)
	fmt.Printf("Activation Memory:  %.2f GB\n", d.ActivationMemory)
	fmt.Printf("KV Cache:           %.2f GB\n", d.KVCache)
	fmt.Printf("Base VRAM:          %.2f GB\n", d.BaseVRAM)
	fmt.Printf("Overhead Factor:    %.2fx\n", d.OverheadFactor)
	fmt.Printf("Total VRAM:         %.2f GB\n", d.TotalVRAM)
	fmt.Printf("Per GPU:            %.2f GB\n", d.VRAMPerGPU)
	fmt.Printf("GPU Usage:          %.2f%%\n", d.VRAMUsagePercent)
	fmt.Printf("Architecture:       hidden %d, layers %d\n", d.Architecture.HiddenDim, d.Architecture.NumLayers)
	fmt.Println()

	if result.WillItFit {
		fmt.Println("Verdict: fits.")
	} else {
		fmt.Printf("Verdict: does not fit (%.2f GB needed).\n", result.NeededVRAM)
	}
	fmt.Println(gpuClassHint(d.TotalVRAM))

	printSuggestions(result.Suggestions)
	return nil
}

// gpuClassHint maps a total VRAM figure to the class of hardware it lands on.
func gpuClassHint(totalVRAM float64) string {
	switch {
	case totalVRAM <= 8:
		return "Should run on consumer GPUs with 8GB+ VRAM."
	case totalVRAM <= 16:
		return "Should run on high-end consumer GPUs with 16GB+ VRAM."
	case totalVRAM <= 24:
		return "Requires a professional GPU with 24GB+ VRAM."
	case totalVRAM <= 40:
		return "Requires a datacenter GPU with 40GB+ VRAM."
	case totalVRAM <= 80:
		return "Requires a high-end datacenter GPU with 80GB+ VRAM."
	default:
		return "Requires a multi-GPU setup or model sharding."
	}
}

func printSuggestions(suggestions []Suggestion) {
	if len(suggestions) == 0 {
		return
	}

	fmt.Println("\nSuggestions:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tCHANGE\tNEEDED VRAM")
	fmt.Fprintln(w, "----\t------\t-----------")
	for _, s := range suggestions {
		fmt.Fprintf(w, "%s\t%s\t%.2f GB\n", s.Type, describeSuggestion(s), s.NeededVRAM)
	}
	w.Flush()
}

// describeSuggestion renders the one category field a suggestion populates.
func describeSuggestion(s Suggestion) string {
	switch s.Type {
	case models.SuggestReduceBatch:
		return fmt.Sprintf("batch_size=%d", s.BatchSize)
	case models.SuggestReduceSeq:
		return fmt.Sprintf("seq_length=%d", s.SequenceLength)
	case models.SuggestQuantize:
		return fmt.Sprintf("precision=%s", s.Precision)
	case models.SuggestMoreGPUs:
		return fmt.Sprintf("num_gpus=%d", s.NumGPUs)
	case models.SuggestChangeMethod:
		return fmt.Sprintf("method=%s", s.Method)
	case models.SuggestMoreGradAccum:
		return fmt.Sprintf("grad_accum_steps=%d", s.GradAccumSteps)
	default:
		return ""
	}
}
