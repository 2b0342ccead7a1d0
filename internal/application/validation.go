package application

import (
	"fmt"
	"os"
	"strings"
)

// ValidateRequired checks if a string field is non-empty (after trimming whitespace).
// Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", formatFieldName(fieldName)),
		}
	}
	return nil
}

// formatFieldName converts camelCase field names to space-separated words
// for more readable error messages (e.g., "historyDir" -> "history directory")
func formatFieldName(fieldName string) string {
	replacements := map[string]string{
		"historyDir": "history directory",
		"start":      "start time",
		"end":        "end time",
	}

	if formatted, ok := replacements[fieldName]; ok {
		return formatted
	}
	return fieldName
}

// ValidateDirectory checks that path exists and is a directory.
// A missing directory wraps ErrHistoryDirMissing.
func ValidateDirectory(fieldName, path string) error {
	if err := ValidateRequired(fieldName, path); err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrHistoryDirMissing, path)
		}
		return fmt.Errorf("failed to access %s: %w", formatFieldName(fieldName), err)
	}
	if !info.IsDir() {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is not a directory: %s", formatFieldName(fieldName), path),
		}
	}
	return nil
}
