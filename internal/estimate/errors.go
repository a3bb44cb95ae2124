package estimate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vramcheck/vramcheck/pkg/models"
)

// ValidationError indicates a request field violates the estimator contract
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidMethodError indicates an unrecognized fine-tuning method, distinct
// from a capacity shortfall
type InvalidMethodError struct {
	Method models.FinetuneMethod
	Valid  []models.FinetuneMethod
}

func (e *InvalidMethodError) Error() string {
	valid := make([]string, len(e.Valid))
	for i, m := range e.Valid {
		valid[i] = string(m)
	}
	return fmt.Sprintf("unknown fine-tuning method %q (valid: %s)", e.Method, strings.Join(valid, ", "))
}

// IsValidationError checks if the error is a request validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsInvalidMethodError checks if the error is an unknown-method error
func IsInvalidMethodError(err error) bool {
	var me *InvalidMethodError
	return errors.As(err, &me)
}
