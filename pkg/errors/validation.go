package errors

import (
	"strings"
	"unicode"
)

// ValidateNodeID validates a participant ID for safety and correctness.
// IDs end up in cache keys, file names and DOT labels, so the rules are
// intentionally conservative:
//   - No empty IDs
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "node ID cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidInput, "node ID too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node ID contains control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\\",   // Backslash (Windows path)
		"\x00", // Null byte
	}
	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidInput, "node ID contains invalid sequence: %q", pattern)
		}
	}

	return nil
}

// validEngines are the resolution engine names accepted across CLI and API.
var validEngines = map[string]bool{
	"linear":    true,
	"lp":        true,
	"iterative": true,
}

// ValidateEngine validates a resolution engine name.
func ValidateEngine(name string) error {
	if name == "" {
		return New(ErrCodeInvalidEngine, "engine cannot be empty")
	}
	if !validEngines[name] {
		return New(ErrCodeInvalidEngine, "unknown engine %q (valid: linear, lp, iterative)", name)
	}
	return nil
}
