package moderation

import (
	"strings"
	"unicode/utf8"
)

// MaxContentLength is the maximum number of characters kept in a message.
const MaxContentLength = 4000

var escaper = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// Sanitize escapes markup characters then clamps the text to MaxContentLength runes.
// The output never contains one of the escaped characters, so Sanitize is idempotent.
func Sanitize(text string) string {
	escaped := escaper.Replace(text)
	if utf8.RuneCountInString(escaped) <= MaxContentLength {
		return escaped
	}
	return string([]rune(escaped)[:MaxContentLength])
}

// SanitizeValue sanitizes a decoded value, anything but a string yields "".
func SanitizeValue(v any) string {
	text, ok := v.(string)
	if !ok {
		return ""
	}
	return Sanitize(text)
}

// IsBlank reports whether sanitized content carries nothing to send.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
