package service

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
	repeatedSeparators  = regexp.MustCompile(`[_.]{2,}`)
)

// SanitizeFilename makes a filename safe for use as a storage key.
// Accents are stripped, spaces become underscores, anything outside
// [A-Za-z0-9._-] is dropped, runs of "_" or "." collapse to a single "_",
// and leading or trailing "_" and "." are trimmed.
func SanitizeFilename(filename string) string {
	stripAccents := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	if stripped, _, err := transform.String(stripAccents, filename); err == nil {
		filename = stripped
	}

	filename = strings.ReplaceAll(filename, " ", "_")
	filename = unsafeFilenameChars.ReplaceAllString(filename, "")
	filename = repeatedSeparators.ReplaceAllString(filename, "_")

	return strings.Trim(filename, "_.")
}

// replaceExtension swaps the extension of filename for ext (".docx").
// A name without an extension gets ext appended.
func replaceExtension(filename, ext string) string {
	base := filepath.Base(filename)
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base + ext
}
