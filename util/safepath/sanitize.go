package safepath

import (
	"errors"
	"regexp"
	"strings"
)

var ErrInvalidName = errors.New("name contains characters that are not allowed")

// reservedChars cannot appear in names on common filesystems; they reject the
// whole name instead of being stripped.
const reservedChars = `<>:"\|?*`

// disallowed matches everything outside word characters, whitespace, '-', '/',
// hiragana, katakana, kanji and the long vowel mark.
var disallowed = regexp.MustCompile(`[^\w\s\-/\x{3041}-\x{3093}\x{30A1}-\x{30F3}\x{4E00}-\x{9FA5}ー]`)

// SanitizeName cleans a folder name. The result may be empty.
func SanitizeName(name string) (string, error) {
	if strings.ContainsAny(name, reservedChars) {
		return "", ErrInvalidName
	}
	return strings.TrimSpace(disallowed.ReplaceAllString(name, "")), nil
}

// ValidateFileName accepts a single path element suitable as a file name.
// File names keep their dots and other punctuation, so they are validated
// rather than sanitized. '%' is refused since Resolve could never reach the
// name again.
func ValidateFileName(name string) error {
	if strings.ContainsAny(name, reservedChars) || strings.ContainsAny(name, "/%\x00") {
		return ErrInvalidName
	}
	switch strings.TrimSpace(name) {
	case "", ".", "..":
		return ErrInvalidName
	}
	return nil
}
