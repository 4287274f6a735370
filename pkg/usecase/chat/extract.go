package chat

import "regexp"

// extractJSONObject returns the first balanced {...} span in s. The models
// wrap their JSON in prose or code fences more often than not, so this scans
// for the opening brace and walks the text tracking nesting, string
// literals, and escapes.
func extractJSONObject(s string) (string, bool) {
	start := -1
	for i, r := range s {
		if r == '{' {
			start = i
			break
		}
	}
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString:
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
		case c == '"':
			inString = true
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// The answer prompt asks for bare matplotlib code, but models frequently
// fence it anyway; match the import-to-show span wherever it appears.
var plotCodePattern = regexp.MustCompile(`(?s)import matplotlib\.pyplot.*?plt\.show\(\)`)

// extractPlotCode pulls the matplotlib snippet out of a model reply.
func extractPlotCode(reply string) (string, bool) {
	match := plotCodePattern.FindString(reply)
	if match == "" {
		return "", false
	}
	return match, true
}
