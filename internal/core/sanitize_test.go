package core

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeName_HostileCharacters(t *testing.T) {
	got := SanitizeName(`a<b>c:d"e/f\g|h?i*j`)
	assert.Equal(t, "a-b-c-d-e-f-g-h-i-j", got)
}

func TestSanitizeName_WhitespaceCollapses(t *testing.T) {
	assert.Equal(t, "Launch_Week", SanitizeName("Launch   Week"))
	assert.Equal(t, "a_b_c", SanitizeName("a \t b\nc"))
}

func TestSanitizeName_LeadingDotsStripped(t *testing.T) {
	assert.Equal(t, "hidden", SanitizeName("...hidden"))
	assert.Equal(t, "a.b", SanitizeName(".a.b"))
}

func TestSanitizeName_ReservedMix(t *testing.T) {
	got := SanitizeName("../etc:passwd")
	assert.NotContains(t, got, "/")
	assert.NotContains(t, got, ":")
	assert.False(t, strings.HasPrefix(got, "."))
}

func TestSanitizeName_Truncates(t *testing.T) {
	got := SanitizeName(strings.Repeat("x", 250))
	assert.Len(t, got, 100)
}

func TestSanitizeName_TruncatesOnRuneBoundary(t *testing.T) {
	got := SanitizeName(strings.Repeat("水", 120))
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 100, utf8.RuneCountInString(got))
}

func TestSanitizeName_MultiByteUnderCapUntouched(t *testing.T) {
	name := strings.Repeat("水", 40)
	got := SanitizeName(name)
	assert.Equal(t, name, got)
	assert.True(t, utf8.ValidString(got))
}

func TestSanitizeName_PlainNameUntouched(t *testing.T) {
	assert.Equal(t, "Launch", SanitizeName("Launch"))
}

func TestSlug_LowercasesAndHyphenates(t *testing.T) {
	assert.Equal(t, "teaser-1", Slug("Teaser 1"))
	assert.Equal(t, "big-announcement", Slug("Big  Announcement"))
}

func TestMediaPathFor(t *testing.T) {
	got := MediaPathFor("Launch", "Teaser 1", "2026-09-01")
	assert.Equal(t, "tracks/Launch/teaser-1-2026-09-01", got)
}
