package domain

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat marks audio whose MIME type is outside the accepted
// container set. It is reported to the user and never retried.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// TranscriptionError wraps a failure of the speech-to-text service.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed: %v", e.Err)
}

func (e *TranscriptionError) Unwrap() error {
	return e.Err
}

// ChatError wraps a failure of the text-generation service.
type ChatError struct {
	Err error
}

func (e *ChatError) Error() string {
	return fmt.Sprintf("chat completion failed: %v", e.Err)
}

func (e *ChatError) Unwrap() error {
	return e.Err
}
