package errors

import (
	"strings"
	"unicode"
)

// ValidateNodeID validates a node identifier received from an external
// surface (HTTP request, TUI input) before it touches view state.
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters or null bytes
//   - Maximum length of 1024 characters
//
// Identifiers that pass validation but match no node are harmless: the
// visibility tracker treats unknown ids as no-ops.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "node id cannot be empty")
	}

	const maxIDLength = 1024
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "node id too long (max %d characters)", maxIDLength)
	}

	for _, r := range id {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node id contains invalid control characters")
		}
	}

	return nil
}

// ValidatePath validates a file path supplied on the command line for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateDocumentBytes validates a raw JSON document payload before decoding.
// maxBytes <= 0 disables the size check.
func ValidateDocumentBytes(data []byte, maxBytes int) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return New(ErrCodeInvalidDocument, "document is empty")
	}

	if maxBytes > 0 && len(data) > maxBytes {
		return New(ErrCodeLimitExceeded, "document size %d exceeds limit of %d bytes", len(data), maxBytes)
	}

	return nil
}
