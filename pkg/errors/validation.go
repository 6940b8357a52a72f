package errors

import (
	"strings"
	"unicode"
)

// ValidatePath validates a local file path used as an item source.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// ValidateCursor validates an opaque pagination cursor received from a client.
// Cursors are short printable tokens; anything else is rejected before it
// reaches a data source.
func ValidateCursor(cursor string) error {
	const maxCursorLength = 512
	if len(cursor) > maxCursorLength {
		return New(ErrCodeInvalidCursor, "cursor too long (max %d characters)", maxCursorLength)
	}
	for _, r := range cursor {
		if !unicode.IsPrint(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidCursor, "cursor contains invalid characters")
		}
	}
	return nil
}
