// Package strcase converts Go identifiers to the casing used on the wire.
package strcase

import (
	"strings"
	"unicode"
)

// ToLowerSnake turns an identifier such as "MaxAttempts" or "SessionID" into
// snake_case. Acronyms stay together: "HTTPStatus" becomes "http_status".
// Spaces and hyphens are treated as word separators.
func ToLowerSnake(s string) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(len(runes) + 4)

	underscore := func() {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
			b.WriteByte('_')
		}
	}

	for i, r := range runes {
		switch {
		case r == ' ' || r == '-' || r == '_':
			underscore()
			continue
		case unicode.IsUpper(r) && i > 0:
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				underscore()
			}
		}

		b.WriteRune(unicode.ToLower(r))
	}

	return strings.TrimSuffix(b.String(), "_")
}
