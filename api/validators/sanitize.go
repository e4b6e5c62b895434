package validators

import (
	"strings"
	"unicode"
)

// SanitizeString trims input, drops non-printable runes and caps the result
// at maxLen bytes. Header-sourced identifiers go through it before they reach
// log fields or store keys.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.Map(func(r rune) rune {
		if !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(input))
	if maxLen > 0 && len(cleaned) > maxLen {
		return cleaned[:maxLen]
	}
	return cleaned
}
