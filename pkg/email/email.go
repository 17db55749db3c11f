// Package email holds the address rules shared by intake and notification.
package email

import (
	"regexp"
	"strings"
	"unicode"
)

var formatPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidFormat reports whether s looks like local@domain.tld.
func IsValidFormat(s string) bool {
	return formatPattern.MatchString(s)
}

// Normalize trims and lower-cases an address for comparison.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeAll normalizes each address, dropping empties and duplicates.
// Order of first occurrence is preserved.
//
//	NormalizeAll([]string{"  A@X.com ", "b@y.org", "a@x.com", ""})
//	// Returns: []string{"a@x.com", "b@y.org"}
func NormalizeAll(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		normalized := Normalize(v)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; !ok {
			seen[normalized] = struct{}{}
			result = append(result, normalized)
		}
	}

	return result
}

// DeriveNameFromEmail guesses a first name from the local part, used when a
// recipient has an address but no name ("jane.doe@x.org" -> "Jane").
func DeriveNameFromEmail(address string) string {
	localPart := address
	if at := strings.IndexByte(address, '@'); at >= 0 {
		localPart = address[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "Team"
	}
	return capitalize(parts[0])
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
