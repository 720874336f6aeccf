// Package namecanon turns exported file and directory names into stable
// vault names: the trailing identifier token is stripped, characters the
// target filesystem or renderer rejects are substituted, and over-long names
// are shortened without losing their distinguishing tail.
package namecanon

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// DefaultMaxLength bounds cleaned names when the caller passes maxLen <= 0.
const DefaultMaxLength = 50

// idLength is the size of the hexadecimal identifier token the exporter
// appends to every page and directory name.
const idLength = 32

const (
	forbidden = `<>:"/\|?*`
	ellipsis  = "..."
	tailKeep  = 10
)

// CleanName canonicalizes a file name (base name including extension).
// It returns the cleaned name and the extracted identifier token, if any.
// The function is pure and never fails: every input maps to a usable name.
func CleanName(name string, maxLen int) (clean, id string) {
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}
	name = norm.NFC.String(name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	stem, id = stripID(stem)
	return bound(substitute(stem), ext, maxLen), id
}

// CleanDirName canonicalizes a directory name. Directories have no
// extension, so the whole name is treated as the stem.
func CleanDirName(name string, maxLen int) (clean, id string) {
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}
	stem, id := stripID(norm.NFC.String(name))
	return bound(substitute(stem), "", maxLen), id
}

// Sanitize cleans a file name while keeping any identifier token in place.
// It is the collision fallback: when two cleaned siblings would collide,
// the decorated name is re-cleaned without stripping so uniqueness
// survives.
func Sanitize(name string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}
	name = norm.NFC.String(name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return bound(substitute(stem), ext, maxLen)
}

// SanitizeDir is Sanitize for directory names, which have no extension.
func SanitizeDir(name string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}
	return bound(substitute(norm.NFC.String(name)), "", maxLen)
}

// StripID removes a trailing identifier token from a name stem without any
// other cleaning. The result is the human title the page carried before
// export decoration; callers use it for alias derivation.
func StripID(stem string) (stripped, id string) {
	return stripID(norm.NFC.String(stem))
}

// IsID reports whether s is a well-formed identifier token: exactly 32
// hexadecimal characters. Looser matches (shorter hex runs, stray
// punctuation) are rejected so unrelated numeric suffixes survive cleaning.
func IsID(s string) bool {
	if len(s) != idLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// stripID removes a trailing whitespace-delimited identifier token from the
// stem. A token with no preceding text is kept: stripping it would leave an
// empty name.
func stripID(stem string) (string, string) {
	cut := strings.LastIndexFunc(stem, unicode.IsSpace)
	if cut < 0 {
		return stem, ""
	}
	tok := stem[cut+1:]
	if !IsID(tok) {
		return stem, ""
	}
	return strings.TrimRightFunc(stem[:cut], unicode.IsSpace), tok
}

// substitute replaces forbidden and control characters with hyphens.
func substitute(s string) string {
	if !strings.ContainsAny(s, forbidden) && !strings.ContainsFunc(s, unicode.IsControl) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(forbidden, r) || unicode.IsControl(r) {
			b.WriteRune('-')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// bound shortens stem+ext to at most maxLen runes. Long stems keep a prefix
// and the last tailKeep runes joined by an ellipsis so numeric counters and
// other distinguishing suffixes survive; stems too short for that pattern
// fall back to prefix truncation; when even the extension does not fit the
// whole name is cut unconditionally.
func bound(stem, ext string, maxLen int) string {
	name := stem + ext
	if utf8.RuneCountInString(name) <= maxLen {
		return name
	}
	stemRunes := []rune(stem)
	avail := maxLen - utf8.RuneCountInString(ext)
	head := avail - tailKeep - len(ellipsis)
	if head > 0 && len(stemRunes) > head+tailKeep {
		return string(stemRunes[:head]) + ellipsis + string(stemRunes[len(stemRunes)-tailKeep:]) + ext
	}
	if avail > 0 {
		if avail > len(stemRunes) {
			avail = len(stemRunes)
		}
		return string(stemRunes[:avail]) + ext
	}
	return string([]rune(name)[:maxLen])
}
