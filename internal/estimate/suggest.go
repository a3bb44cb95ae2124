package estimate

import (
	"github.com/vramcheck/vramcheck/pkg/models"
)

// suggestInference searches for nearby configurations that fit,
// perturbing one parameter at a time. Each category is first-fit over
// a fixed candidate list; categories are evaluated independently, so
// the result can carry one suggestion per category.
func (c *Calculator) suggestInference(req models.InferenceRequest, gpuVRAM float64) []models.Suggestion {
	suggestions := []models.Suggestion{}

	fits := func(candidate models.InferenceRequest) (float64, bool) {
		f := c.inferenceFigures(candidate)
		return f.total, willFit(f.total, gpuVRAM, candidate.NumGPUs)
	}

	if req.BatchSize > 1 {
		for _, batch := range []int{req.BatchSize / 2, 1} {
			candidate := req
			candidate.BatchSize = batch
			if total, ok := fits(candidate); ok {
				suggestions = append(suggestions, models.Suggestion{
					Type:       models.SuggestReduceBatch,
					BatchSize:  batch,
					NeededVRAM: round2(total),
				})
				break
			}
		}
	}

	if req.SeqLength > 512 {
		for _, seq := range []int{req.SeqLength / 2, 1024, 512} {
			candidate := req
			candidate.SeqLength = seq
			if total, ok := fits(candidate); ok {
				suggestions = append(suggestions, models.Suggestion{
					Type:           models.SuggestReduceSeq,
					SequenceLength: seq,
					NeededVRAM:     round2(total),
				})
				break
			}
		}
	}

	// Only quantizations strictly tighter than the current precision
	// are candidates.
	currentBytes, _ := c.catalog.BytesPerParam(req.Precision)
	for _, precision := range []models.Precision{models.PrecisionQ4, models.PrecisionQ2} {
		bytesPerParam, _ := c.catalog.BytesPerParam(precision)
		if bytesPerParam >= currentBytes {
			continue
		}
		candidate := req
		candidate.Precision = precision
		if total, ok := fits(candidate); ok {
			suggestions = append(suggestions, models.Suggestion{
				Type:       models.SuggestQuantize,
				Precision:  precision,
				NeededVRAM: round2(total),
			})
			break
		}
	}

	if req.NumGPUs < maxSuggestGPUs {
		for _, numGPUs := range []int{req.NumGPUs + 1, req.NumGPUs * 2} {
			candidate := req
			candidate.NumGPUs = numGPUs
			if total, ok := fits(candidate); ok {
				suggestions = append(suggestions, models.Suggestion{
					Type:       models.SuggestMoreGPUs,
					NumGPUs:    numGPUs,
					NeededVRAM: round2(total),
				})
				break
			}
		}
	}

	return suggestions
}

// suggestFinetune mirrors suggestInference for fine-tuning requests.
// The method category is the one exception to first-fit: every
// alternative method that fits is reported, since they are not
// interchangeable the way shrinking a batch is.
func (c *Calculator) suggestFinetune(req models.FinetuneRequest, gpuVRAM float64) []models.Suggestion {
	suggestions := []models.Suggestion{}

	fits := func(candidate models.FinetuneRequest) (float64, bool) {
		f := c.finetuneFigures(candidate)
		return f.total, willFit(f.total, gpuVRAM, candidate.NumGPUs)
	}

	if req.BatchSize > 1 {
		for _, batch := range []int{req.BatchSize / 2, 1} {
			candidate := req
			candidate.BatchSize = batch
			if total, ok := fits(candidate); ok {
				suggestions = append(suggestions, models.Suggestion{
					Type:       models.SuggestReduceBatch,
					BatchSize:  batch,
					NeededVRAM: round2(total),
				})
				break
			}
		}
	}

	if req.SeqLength > 512 {
		for _, seq := range []int{req.SeqLength / 2, 1024, 512} {
			candidate := req
			candidate.SeqLength = seq
			if total, ok := fits(candidate); ok {
				suggestions = append(suggestions, models.Suggestion{
					Type:           models.SuggestReduceSeq,
					SequenceLength: seq,
					NeededVRAM:     round2(total),
				})
				break
			}
		}
	}

	if req.NumGPUs < maxSuggestGPUs {
		for _, numGPUs := range []int{req.NumGPUs + 1, req.NumGPUs * 2} {
			candidate := req
			candidate.NumGPUs = numGPUs
			if total, ok := fits(candidate); ok {
				suggestions = append(suggestions, models.Suggestion{
					Type:       models.SuggestMoreGPUs,
					NumGPUs:    numGPUs,
					NeededVRAM: round2(total),
				})
				break
			}
		}
	}

	for _, method := range c.catalog.MethodNames() {
		if method == req.Method {
			continue
		}
		candidate := req
		candidate.Method = method
		if total, ok := fits(candidate); ok {
			suggestions = append(suggestions, models.Suggestion{
				Type:       models.SuggestChangeMethod,
				Method:     method,
				NeededVRAM: round2(total),
			})
		}
	}

	for _, steps := range []int{2, 4, 8} {
		if steps <= req.GradAccumSteps {
			continue
		}
		candidate := req
		candidate.GradAccumSteps = steps
		if total, ok := fits(candidate); ok {
			suggestions = append(suggestions, models.Suggestion{
				Type:           models.SuggestMoreGradAccum,
				GradAccumSteps: steps,
				NeededVRAM:     round2(total),
			})
			break
		}
	}

	return suggestions
}
