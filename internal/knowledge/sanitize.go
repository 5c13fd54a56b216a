package knowledge

import (
	"strings"
	"unicode"
)

// Sanitize strips Unicode control characters (except tab/CR/LF), collapses
// runs of whitespace to a single space, and trims the result. Grounded on
// original_source's UnicodeSanitizer: strip-then-collapse-then-trim, in
// that order (spec.md §4.10 step 4).
func Sanitize(input string) string {
	var stripped strings.Builder
	stripped.Grow(len(input))
	for _, r := range input {
		if unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r' {
			continue
		}
		stripped.WriteRune(r)
	}

	var collapsed strings.Builder
	collapsed.Grow(stripped.Len())
	lastWasSpace := false
	for _, r := range stripped.String() {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				collapsed.WriteRune(' ')
				lastWasSpace = true
			}
			continue
		}
		collapsed.WriteRune(r)
		lastWasSpace = false
	}

	return strings.TrimSpace(collapsed.String())
}
