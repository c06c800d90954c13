package sanitization

import (
	"regexp"
	"strings"
)

var (
	htmlReplacer = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#039;",
	)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// EscapeHTML escapes the five HTML special characters so user input can be
// interpolated into element content and quoted attribute values.
func EscapeHTML(input string) string {
	return htmlReplacer.Replace(input)
}

// SanitizeHeader collapses all whitespace, including CR and LF, into single
// spaces so the value is safe to use on a single header line such as a mail
// subject.
func SanitizeHeader(input string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(input, " "))
}
