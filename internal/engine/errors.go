package engine

import (
	"errors"
	"fmt"
)

// ErrChatNotFound marks a delivery failure as permanent: the chat is gone
// or the bot was removed from it. The retry layer will not retry it and
// the reminder engine deactivates the reminder instead of re-claiming.
var ErrChatNotFound = errors.New("chat not found")

// ValidationError rejects a mutation before it reaches persisted state.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

func validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
