// Package email derives fallback identity fields from an address, for
// submissions that omit the optional name fields.
package email

import (
	"strings"
	"unicode"
)

// DeriveNameFromEmail splits the local part on common separators and
// returns (first, last) with leading capitals. Single-segment local parts
// get "User" as the last name; an unusable address yields ("User", "User").
func DeriveNameFromEmail(addr string) (string, string) {
	local := addr
	if at := strings.IndexByte(addr, '@'); at > 0 {
		local = addr[:at]
	}

	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "User", "User"
	}

	first := capitalize(parts[0])
	last := "User"
	if len(parts) > 1 {
		last = capitalize(parts[len(parts)-1])
	}
	return first, last
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
