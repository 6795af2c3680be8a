package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyReference rejects a video load before the loader is ever invoked.
	ErrEmptyReference = errors.New("video reference is empty")

	// ErrInvalidReference means the reference is malformed or points nowhere.
	ErrInvalidReference = errors.New("invalid video reference")

	// ErrTranscriptUnavailable means the video exists but has no usable captions.
	ErrTranscriptUnavailable = errors.New("transcript unavailable for this video")

	// ErrBusy rejects an operation while an equivalent one is still in flight.
	ErrBusy = errors.New("operation already in flight")

	// ErrNoVideoLoaded rejects a question before any video has been loaded.
	ErrNoVideoLoaded = errors.New("no video loaded in this session")

	// ErrVideoAlreadyLoaded rejects a load while the session already holds a
	// video; the session must be reset first.
	ErrVideoAlreadyLoaded = errors.New("a video is already loaded in this session")

	// ErrEmptyMessage rejects a blank question.
	ErrEmptyMessage = errors.New("message text is empty")

	// ErrContextTooLarge means the conversation no longer fits the generator's window.
	ErrContextTooLarge = errors.New("conversation context too large")

	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
)

// ProviderError wraps a failure from an external collaborator (video provider,
// answer generator, embedding service). Callers match it with errors.As.
type ProviderError struct {
	Op  string // e.g. "youtube.fetch", "openai.answer"
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error in %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError wraps err as a collaborator failure.
func NewProviderError(op string, err error) error {
	return &ProviderError{Op: op, Err: err}
}

// IsProviderError reports whether err is (or wraps) a collaborator failure.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
