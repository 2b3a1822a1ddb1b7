package core

import (
	"strings"
	"unicode"
)

const maxSanitizedLen = 100

// SanitizeName makes a user-supplied name safe to use as a path segment:
// filesystem-hostile characters become "-", whitespace runs become a single
// "_", leading dots are stripped and the result is capped at 100 characters.
func SanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	inSpace := false
	for _, r := range name {
		switch {
		case unicode.IsSpace(r):
			if !inSpace {
				b.WriteByte('_')
			}
			inSpace = true
			continue
		case strings.ContainsRune(`<>:"/\|?*`, r):
			b.WriteByte('-')
		default:
			b.WriteRune(r)
		}
		inSpace = false
	}
	out := strings.TrimLeft(b.String(), ".")
	return truncateRunes(out, maxSanitizedLen)
}

// truncateRunes caps s at n runes, never splitting a multi-byte character.
func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Slug produces the folder-leaf form of a name: sanitized, lower-cased and
// hyphenated.
func Slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(SanitizeName(name)), "_", "-")
}

// MediaPathFor builds the relative sidecar path for an event created on
// createdDate, e.g. "tracks/Launch/teaser-1-2026-08-31".
func MediaPathFor(trackName, eventName string, createdDate string) string {
	return "tracks/" + SanitizeName(trackName) + "/" + Slug(eventName) + "-" + createdDate
}
