package verification

import (
	"errors"
	"fmt"
)

var (
	ErrExtraction    = errors.New("could not determine the user ID from task description")
	ErrResolution    = errors.New("could not find matching task for this user")
	ErrTaskCompleted = errors.New("task is already completed")
	ErrTaskNotFound  = errors.New("task not found")
	ErrSuperseded    = errors.New("review was superseded by a newer selection")
	ErrNoData        = errors.New("kyc record has no usable data")
	ErrStoreNil      = errors.New("document store is nil")
	ErrRepositoryNil = errors.New("task repository is nil")
	ErrFetcherNil    = errors.New("document fetcher is nil")
)

// FetchError is a failed document read. Fetcher.Load absorbs it into a placeholder record.
type FetchError struct {
	UserID uint
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch kyc record for user %d: %v", e.UserID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SubmissionError is a failed decision write. The task keeps its prior state.
type SubmissionError struct {
	TaskID uint
	Err    error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit decision for task %d: %v", e.TaskID, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// ValidationError rejects a decision before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
