package rag

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when the question is blank.
	ErrInvalidInput = errors.New("invalid input")
	// ErrGenerationFailure matches every *GenerationError.
	ErrGenerationFailure = errors.New("generation failure")
	// ErrEmptyIndex reports a vector index with zero stored chunks.
	ErrEmptyIndex = errors.New("vector index is empty")
)

// GenerationError wraps a failed or unusable language model call.
type GenerationError struct {
	// Stage is "expand" or "answer".
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrGenerationFailure) match any GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailure
}
