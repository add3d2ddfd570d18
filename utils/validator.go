// utils/validator.go - Input validation
package utils

import (
	"fmt"
	"strings"
)

// SanitizeInput removes potentially harmful characters
func SanitizeInput(input string) string {
	// Remove leading/trailing spaces
	input = strings.TrimSpace(input)

	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	return input
}

// FormatUID renders the public certificate number, e.g. CG-000042.
func FormatUID(uid int) string {
	return fmt.Sprintf("CG-%06d", uid)
}
