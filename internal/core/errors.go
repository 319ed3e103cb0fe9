package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed analysis call
type ErrorKind string

const (
	KindInvalidInput ErrorKind = "invalid_input"
)

var (
	// ErrInvalidInput matches every AnalysisError of kind invalid_input
	ErrInvalidInput = errors.New("invalid analysis input")
)

// AnalysisError is the structured failure returned by AnalyzeEmail
type AnalysisError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the kind sentinel
func (e *AnalysisError) Is(target error) bool {
	return target == ErrInvalidInput && e.Kind == KindInvalidInput
}

func invalidInput(message string, err error) *AnalysisError {
	return &AnalysisError{Kind: KindInvalidInput, Message: message, Err: err}
}
