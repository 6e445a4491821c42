package chat

import "errors"

var (
	// ErrEmptyMessage is returned when the message is empty after
	// trimming.
	ErrEmptyMessage = errors.New("chat: empty message")

	// ErrAssistantFailed wraps model call failures.
	ErrAssistantFailed = errors.New("chat: assistant call failed")

	// ErrExtractionFailed wraps document text extraction failures. The
	// service degrades it to a note in the prompt, it never reaches the
	// client.
	ErrExtractionFailed = errors.New("chat: document extraction failed")
)
