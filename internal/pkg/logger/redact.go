package logger

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// RedactEmail keeps the first two characters of the local part and the
// domain: "john.doe@example.com" becomes "jo***@example.com". Local parts
// of two characters or fewer are masked entirely.
func RedactEmail(email string) string {
	local, domain, ok := strings.Cut(strings.TrimSpace(email), "@")
	if !ok || domain == "" || strings.Contains(domain, "@") {
		return "***@***"
	}
	if utf8.RuneCountInString(local) <= 2 {
		return "***@" + domain
	}
	prefix := []rune(local)[:2]
	return string(prefix) + "***@" + domain
}

// RedactText replaces free text from the contact form (names, messages)
// with its length, so log lines still show whether a field was empty.
func RedactText(s string) string {
	if s == "" {
		return ""
	}
	return "[redacted " + strconv.Itoa(utf8.RuneCountInString(s)) + " chars]"
}
