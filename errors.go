package mediascan

import (
	"fmt"
)

// Article stages reported by AnalysisError.
const (
	StageLinguistic     = "linguistic"
	StageClassification = "classification"
)

// AnalysisError is returned when the linguistic analyzer or the classifier
// fails or returns unusable data for an article.
type AnalysisError struct {
	Stage string
	Err   error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s analysis failed: %v", e.Stage, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// StorageError wraps a failed dedup check or persistence call.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// SourceFailure is recorded when a source's landing page or link
// discovery produced nothing usable. The source is deactivated.
type SourceFailure struct {
	Source string
	Err    error
}

func (e *SourceFailure) Error() string {
	return fmt.Sprintf("source %s failed: %v", e.Source, e.Err)
}

func (e *SourceFailure) Unwrap() error {
	return e.Err
}
