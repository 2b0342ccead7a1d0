package application

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	ErrInvalidWindow     = errors.New("invalid time window")
	ErrHistoryDirMissing = errors.New("history directory not found")
	ErrTrackerNotFound   = errors.New("tracker client not found")
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// TimeParseError represents a window bound that could not be parsed
type TimeParseError struct {
	Field string
	Input string
	Err   error
}

func (e *TimeParseError) Error() string {
	return fmt.Sprintf("cannot parse %s time %q: %v", e.Field, e.Input, e.Err)
}

func (e *TimeParseError) Unwrap() error {
	return e.Err
}

func (e *TimeParseError) Is(target error) bool {
	return target == ErrInvalidWindow
}
