package insights

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched (errors.Is) by every *InvalidInputError.
var ErrInvalidInput = errors.New("invalid input")

// ErrSynthesisFailed is matched by the error Pipeline.Run returns when the final
// synthesis call fails.
var ErrSynthesisFailed = errors.New("synthesis failed")

type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Stage names used on CollaboratorCallError.
const (
	StageChunk     = "chunk"
	StageSynthesis = "synthesis"
)

// CollaboratorCallError records a failed call to the LLM. Chunk is the 1-based chunk
// number for StageChunk and 0 for StageSynthesis.
type CollaboratorCallError struct {
	Stage string
	Chunk int
	Err   error
}

func (e *CollaboratorCallError) Error() string {
	if e.Stage == StageChunk {
		return fmt.Sprintf("analyze chunk %d: %v", e.Chunk, e.Err)
	}
	return fmt.Sprintf("synthesis failed: %v", e.Err)
}

func (e *CollaboratorCallError) Is(target error) bool {
	return target == ErrSynthesisFailed && e.Stage == StageSynthesis
}

func (e *CollaboratorCallError) Unwrap() error {
	return e.Err
}

// Reason is the collaborator's failure text, verbatim.
func (e *CollaboratorCallError) Reason() string {
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}

// ErrEmptyResponse is returned when the collaborator answers without any text.
var ErrEmptyResponse = errors.New("empty response from model")
