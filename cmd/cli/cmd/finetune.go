package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

var (
	finetuneModel     string
	finetuneParams    float64
	finetuneMethod    string
	finetuneGPU       string
	finetuneNumGPUs   int
	finetuneBatchSize int
	finetuneSeqLength int
	finetuneGradAccum int
)

var finetuneCmd = &cobra.Command{
	Use:   "finetune",
	Short: "Estimate VRAM for fine-tuning",
	Long:  `Estimate the GPU memory a fine-tuning run needs and whether it fits the chosen GPUs.`,
	RunE:  runFinetune,
}

func init() {
	rootCmd.AddCommand(finetuneCmd)

	finetuneCmd.Flags().StringVarP(&finetuneModel, "model", "m", "", "Model preset ID (e.g., mistral-7b)")
	finetuneCmd.Flags().Float64VarP(&finetuneParams, "params", "p", 0, "Model size in billions of parameters")
	finetuneCmd.Flags().StringVar(&finetuneMethod, "method", "", "Fine-tuning method (full, lora, qlora) (required)")
	finetuneCmd.Flags().StringVarP(&finetuneGPU, "gpu", "g", "", "GPU name, short code, or VRAM capacity in GB (required)")
	finetuneCmd.Flags().IntVar(&finetuneNumGPUs, "num-gpus", 1, "Number of GPUs")
	finetuneCmd.Flags().IntVarP(&finetuneBatchSize, "batch-size", "b", 1, "Batch size")
	finetuneCmd.Flags().IntVarP(&finetuneSeqLength, "seq-length", "s", 2048, "Sequence length in tokens")
	finetuneCmd.Flags().IntVar(&finetuneGradAccum, "grad-accum", 1, "Gradient accumulation steps")

	finetuneCmd.MarkFlagRequired("method")
	finetuneCmd.MarkFlagRequired("gpu")
}

func runFinetune(cmd *cobra.Command, args []string) error {
	if finetuneModel == "" && finetuneParams <= 0 {
		return fmt.Errorf("either --model or --params must be provided")
	}

	reqBody := map[string]interface{}{
		"method":           finetuneMethod,
		"gpu":              finetuneGPU,
		"num_gpus":         finetuneNumGPUs,
		"batch_size":       finetuneBatchSize,
		"seq_length":       finetuneSeqLength,
		"grad_accum_steps": finetuneGradAccum,
	}
	if finetuneModel != "" {
		reqBody["model"] = finetuneModel
	}
	if finetuneParams > 0 {
		reqBody["params_billions"] = finetuneParams
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/api/v1/estimates/finetune", serverURL)
	resp, err := http.Post(reqURL, "application/json", bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("estimate failed: %s", string(body))
	}

	var result FinetuneResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	d := result.Details
	fmt.Println("Fine-Tuning VRAM Estimate")
	fmt.Println("=========================")
	fmt.Println()
	fmt.Printf("Method:             %s\n", d.MethodDescription)
	fmt.Printf("Model Weights:      %.2f GB\n", d.ModelWeights)
	fmt.Printf("Activation Memory:  %.2f GB\n", d.ActivationMemory)
	fmt.Printf("Optimizer States:   %.2f GB\n", d.OptimizerStates)
	fmt.Printf("KV Cache:           %.2f GB\n", d.KVCache)
	fmt.Printf("Total VRAM:         %.2f GB\n", d.TotalVRAM)
	fmt.Printf("Per GPU:            %.2f GB\n", d.VRAMPerGPU)
	fmt.Printf("GPU Usage:          %.2f%%\n", d.VRAMUsagePercent)
	fmt.Printf("Effective Batch:    %.2f\n", d.EffectiveBatchSize)
	fmt.Printf("Grad Checkpointing: %t\n", d.GradientCheckpointing)
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
