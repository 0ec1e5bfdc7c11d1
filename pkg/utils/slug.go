package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const maxSlugLen = 60

// Slugify folds a title into a URL-safe slug: accents stripped,
// lowercased, non-alphanumeric runs collapsed to single dashes.
func Slugify(s string) string {
	folded := stripMarks(strings.ToLower(strings.TrimSpace(s)))

	var b strings.Builder
	lastDash := true // suppress a leading dash
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	out := strings.TrimRight(b.String(), "-")
	if len(out) > maxSlugLen {
		out = strings.TrimRight(out[:maxSlugLen], "-")
	}
	return out
}

// Handleify derives a URL handle from a display name or email address.
// For emails only the local part is used: "John Doe" and
// "john.doe@example.com" both become "john-doe".
func Handleify(s string) string {
	if at := strings.IndexByte(s, '@'); at >= 0 {
		s = s[:at]
	}
	return Slugify(s)
}

// Fold lowercases and strips accents; used for search-index columns.
func Fold(s string) string {
	return stripMarks(strings.ToLower(strings.TrimSpace(s)))
}

func stripMarks(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return norm.NFC.String(b.String())
}
