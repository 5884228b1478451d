package orchestrator

import (
	"errors"
	"fmt"
)

// Stages at which an analyzer can fail.
const (
	StageScan    = "scan"
	StageAnalyze = "analyze"
	StageWait    = "wait"
)

var (
	// ErrNoAnalyzers is returned by Run when nothing is registered.
	ErrNoAnalyzers = errors.New("no analyzers registered")

	// ErrDuplicateAnalyzer is returned by Register for a name already taken.
	ErrDuplicateAnalyzer = errors.New("analyzer already registered")

	// ErrAbandoned marks an analyzer that had not finished when the run's
	// wait ended through timeout or cancellation.
	ErrAbandoned = errors.New("analyzer abandoned before completion")

	// ErrNoResult marks an analyzer whose Analyze returned neither a result
	// nor an error.
	ErrNoResult = errors.New("analyzer returned no result")
)

// AnalyzerFailure records why one analyzer produced no result.
type AnalyzerFailure struct {
	Analyzer string
	Stage    string
	Err      error
}

func (e *AnalyzerFailure) Error() string {
	return fmt.Sprintf("analyzer %s failed during %s: %v", e.Analyzer, e.Stage, e.Err)
}

func (e *AnalyzerFailure) Unwrap() error {
	return e.Err
}

// PanicError carries a recovered panic value.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
