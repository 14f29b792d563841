package util

import (
	"strings"
)

// TruncateBytes trims a string to at most maxBytes bytes. A non-positive
// limit leaves the input untouched. The cut is byte exact and may split a
// multi-byte rune.
func TruncateBytes(input string, maxBytes int) (string, bool) {
	if maxBytes <= 0 || len(input) <= maxBytes {
		return input, false
	}
	return input[:maxBytes], true
}

// ClampBytes is TruncateBytes without the "unlimited" escape hatch: a limit
// of zero or less yields the empty string.
func ClampBytes(input string, maxBytes int) (string, bool) {
	if maxBytes <= 0 {
		return "", input != ""
	}
	return TruncateBytes(input, maxBytes)
}

// Preview flattens text onto one line and limits it to maxBytes for log fields.
func Preview(text string, maxBytes int) string {
	if text == "" {
		return ""
	}
	flat := strings.Join(strings.Fields(text), " ")
	out, truncated := TruncateBytes(flat, maxBytes)
	if truncated {
		return out + "..."
	}
	return out
}
