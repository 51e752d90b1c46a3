package chunker

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// stableIDLen is the number of hex characters kept from the digest.
const stableIDLen = 16

// Slugify turns a heading title into a GitHub-style anchor: lowercase,
// punctuation dropped, spaces and dashes collapsed into single dashes.
func Slugify(title string) string {
	// Casers carry state, so each call gets its own.
	s := cases.Lower(language.Und).String(strings.TrimSpace(title))

	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r) || r == '_':
			b.WriteRune(r)
			dash = false
		case r == '-' || r == ' ':
			if !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// StableID hashes the given parts into a fixed-width identifier. Equal
// parts always produce equal IDs.
func StableID(parts ...string) string {
	sum := sha1.Sum([]byte(strings.Join(parts, "||")))
	return hex.EncodeToString(sum[:])[:stableIDLen]
}
