package parsing

import (
	"errors"
	"fmt"
)

// ErrUnparseable is returned when no JSON object can be recovered from a model reply
var ErrUnparseable = errors.New("no JSON object found in response")

// ParseError represents an error decoding a recovered JSON object
type ParseError struct {
	Message string
	Preview string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Preview returns the first n runes of text for log lines
func Preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
