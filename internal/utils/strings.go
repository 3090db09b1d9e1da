package utils

import (
	"strings"
)

// NormalizeString trims whitespace and normalizes string input
func NormalizeString(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeEmail normalizes email addresses (lowercase and trim)
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail accepts any non-empty address containing "@".
func IsValidEmail(email string) bool {
	normalized := NormalizeEmail(email)
	return normalized != "" && strings.Contains(normalized, "@")
}

// NormalizeKey lowercases and trims identifiers such as usernames and room
// type tags.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
