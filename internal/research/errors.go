package research

import (
	"errors"
	"fmt"

	"github.com/skimlab/deepresearch/internal/models"
)

// ErrInvalidInput covers empty queries and unrecognized depth values.
var ErrInvalidInput = errors.New("invalid input")

// DiscoveryError means the search stage produced no candidates at all.
type DiscoveryError struct {
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery failed: %v", e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// ExtractionError means every fetched candidate was unusable.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction exhausted: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// SynthesisError means the model call failed after sources were selected.
// It carries the selected source list so the caller can still show what
// the answer would have cited.
type SynthesisError struct {
	Err     error
	Sources []models.SourceRef
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }
