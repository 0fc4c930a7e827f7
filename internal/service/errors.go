package service

import (
	"errors"

	"github.com/MHGanainy/mvp-backend-sub001/internal/repository"
)

var (
	ErrStudentNotFound = errors.New("student not found")
	ErrCaseNotFound    = errors.New("simulation case not found")
	ErrAttemptNotFound = errors.New("attempt not found")

	// ErrInsufficientCredits aliases the repository guard so callers match a
	// single sentinel whether the pre-check or the transactional debit fired.
	ErrInsufficientCredits = repository.ErrInsufficientCredits

	// ErrAttemptAlreadyCompleted guards completed attempts against any further
	// transition.
	ErrAttemptAlreadyCompleted = errors.New("attempt already completed")

	// ErrAttemptAlreadyEnded guards cancelled attempts. Cancellation is as
	// terminal as completion; an ended attempt can only be read or deleted.
	ErrAttemptAlreadyEnded = errors.New("attempt already ended")

	// ErrTranscriptUnavailable means the voice provider never persisted a
	// transcript within the polling window. The attempt stays non-terminal so
	// completion can be retried.
	ErrTranscriptUnavailable = errors.New("transcript unavailable after retries")

	// ErrSessionStartFailed wraps orchestrator failures during attempt
	// creation; any billing is rolled back before it is returned.
	ErrSessionStartFailed = errors.New("voice session start failed")
)
