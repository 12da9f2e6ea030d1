// Package string normalizes request input before validation.
package string

import (
	"strings"
	"unicode"
)

// TrimStrings trims surrounding whitespace in place.
func TrimStrings(ss ...*string) {
	for _, p := range ss {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
}

// CompactFields trims each name and drops blanks and repeats. The first
// occurrence keeps its position.
func CompactFields(names []string) []string {
	if names == nil {
		return nil
	}
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// SnakeCase turns a Go field name into the form request bodies use:
// "IssuedTo" is "issued_to", "IpfsCID" is "ipfs_cid". Existing separators
// ('_', '-', ' ') collapse into one underscore.
func SnakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(name) + 4)
	pending := false
	for i, r := range runes {
		if r == '_' || r == '-' || r == ' ' {
			pending = b.Len() > 0
			continue
		}
		if pending || (i > 0 && startsWord(runes, i)) {
			b.WriteByte('_')
		}
		pending = false
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// startsWord reports whether runes[i] opens a word: an upper-case rune after
// a lower-case rune or digit, or the last capital of an acronym that runs
// into a lower-case word.
func startsWord(runes []rune, i int) bool {
	r, prev := runes[i], runes[i-1]
	if !unicode.IsUpper(r) || prev == '_' || prev == '-' || prev == ' ' {
		return false
	}
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	return unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
