// Package naming derives stable, storage-safe collection identifiers from
// free-form product names and search terms.
package naming

import (
	"strings"
	"unicode"
)

// MaxIdentifierLength bounds the full identifier, prefix included.
// MongoDB caps collection names at 64 bytes; 60 leaves headroom for any
// database-qualified form.
const MaxIdentifierLength = 60

const separator = "_reviews_"

// turkishASCII transliterates the Turkish alphabet to its closest ASCII
// equivalents. Applied before lowercasing-sensitive stripping so both
// cases map correctly (İ lowercases to i̇ with a combining dot otherwise).
var turkishASCII = strings.NewReplacer(
	"ç", "c", "ğ", "g", "ı", "i", "ö", "o", "ş", "s", "ü", "u",
	"Ç", "c", "Ğ", "g", "İ", "i", "I", "i", "Ö", "o", "Ş", "s", "Ü", "u",
)

// CollectionID derives the storage-safe identifier a harvest groups its
// records under. Pure and deterministic: the same text and platform always
// yield the same identifier.
//
// Examples:
//   - CollectionID("İstanbul Kedi Mama", "hepsiburada") → "hepsiburada_reviews_istanbul_kedi_mama"
//   - CollectionID("!!!", "amazon") → "amazon_reviews_"
func CollectionID(sourceText, platform string) string {
	prefix := strings.ReplaceAll(strings.ToLower(platform), " ", "") + separator

	safe := SafeText(sourceText)

	// Truncate the safe text, never the prefix, to honor the length cap.
	if max := MaxIdentifierLength - len(prefix); len(safe) > max {
		if max < 0 {
			max = 0
		}
		safe = strings.TrimRight(safe[:max], "_")
	}

	return prefix + safe
}

// SafeText reduces arbitrary human text to lowercase ASCII letters, digits
// and single underscores. Empty or all-punctuation input yields "".
func SafeText(text string) string {
	s := turkishASCII.Replace(text)
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	lastUnderscore := true // suppress a leading underscore
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		case unicode.IsSpace(r), r == '_':
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
		// Everything else is stripped.
	}

	return strings.TrimRight(b.String(), "_")
}
