package generation

import (
	"strings"

	apperrors "github.com/yungbote/cloudsim-backend/internal/pkg/errors"
)

// ExtractJSON strips markdown fences from a completion and returns the first
// balanced top-level {...} object. Braces inside JSON strings are ignored.
func ExtractJSON(text string) ([]byte, error) {
	cleaned := stripFences(text)
	for start := strings.IndexByte(cleaned, '{'); start >= 0; {
		if end := matchBrace(cleaned, start); end > start {
			return []byte(cleaned[start : end+1]), nil
		}
		next := strings.IndexByte(cleaned[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, apperrors.New(apperrors.CodeNoStructuredPayload, "generation.ExtractJSON", nil, "no balanced object in completion")
}

func stripFences(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "```") {
			continue
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}

// matchBrace returns the index of the brace closing the one at start, or -1.
func matchBrace(s string, start int) int {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
