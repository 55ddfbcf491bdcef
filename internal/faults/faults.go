package faults

import (
	"errors"
	"fmt"
)

// Category classifies engine errors so callers can decide whether a retry
// makes sense. The category never changes for a given code.
type Category string

const (
	Validation    Category = "validation"
	Policy        Category = "policy_violation"
	Capacity      Category = "capacity"
	StateConflict Category = "state_conflict"
	NotFound      Category = "not_found"
	Forbidden     Category = "forbidden"
)

// Error carries a stable machine-readable code plus a human message.
type Error struct {
	Category Category
	Code     string
	Message  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New builds a coded error.
func New(category Category, code, message string) *Error {
	return &Error{Category: category, Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(category Category, code, format string, args ...interface{}) *Error {
	return &Error{Category: category, Code: code, Message: fmt.Sprintf(format, args...)}
}

// CategoryOf extracts the category from err, unwrapping as needed.
// The second return is false for uncoded errors.
func CategoryOf(err error) (Category, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Category, true
	}
	return "", false
}

// CodeOf extracts the machine code from err, or "" for uncoded errors.
func CodeOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return CodeOf(err) == code
}
