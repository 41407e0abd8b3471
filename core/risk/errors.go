package risk

import (
	"errors"
	"fmt"
)

var (
	// errors
	ErrNotFound = errors.New("student not found")
)

// Pipeline stages whose faults are recovered to a sentinel value.
const (
	StageAggregation = "aggregation"
	StageInference   = "inference"
	StageStrengths   = "strengths"
	StageBlend       = "blend"
)

// RecoveredError is a fault a stage recovered from by falling back to a sentinel value.
// It is reported, never returned to the caller of the service.
type RecoveredError struct {
	Stage string
	Err   error
}

func (e *RecoveredError) Error() string {
	return fmt.Sprintf("%s recovered: %v", e.Stage, e.Err)
}

func (e *RecoveredError) Unwrap() error {
	return e.Err
}

func recovered(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &RecoveredError{Stage: stage, Err: err}
}
