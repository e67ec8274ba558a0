package matrix

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern represents a compiled filter condition supporting substring and
// regex matching. Patterns wrapped in slashes compile as regular
// expressions; everything else matches case-insensitively as a substring.
type Pattern struct {
	raw   string
	regex *regexp.Regexp
	lower string
}

// Compile transforms raw pattern strings into Pattern values.
func Compile(patterns []string) ([]Pattern, error) {
	result := make([]Pattern, 0, len(patterns))
	for _, raw := range patterns {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.HasPrefix(raw, "/") && strings.HasSuffix(raw, "/") && len(raw) >= 2 {
			expr := raw[1 : len(raw)-1]
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("compile regexp %q: %w", raw, err)
			}
			result = append(result, Pattern{raw: raw, regex: re})
			continue
		}
		result = append(result, Pattern{raw: raw, lower: strings.ToLower(raw)})
	}
	return result, nil
}

// Match reports whether the pattern matches the supplied string.
func (p Pattern) Match(s string) bool {
	if s == "" {
		return false
	}
	if p.regex != nil {
		return p.regex.MatchString(s)
	}
	return strings.Contains(strings.ToLower(s), p.lower)
}

// MatchAny reports whether any pattern matches s. An empty pattern list
// matches everything.
func MatchAny(patterns []Pattern, s string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if p.Match(s) {
			return true
		}
	}
	return false
}

// FilterEntries keeps matrix entries whose version matches any pattern.
func FilterEntries(entries []Entry, patterns []Pattern) []Entry {
	if len(patterns) == 0 {
		return entries
	}
	result := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if MatchAny(patterns, entry.Version) {
			result = append(result, entry)
		}
	}
	return result
}
