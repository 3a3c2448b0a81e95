// Package parsers contains the tolerant readers for model output: JSON
// extraction from prose, the reply envelope, and tool-call recovery.
package parsers

import (
	"encoding/json"
	"regexp"
	"strings"

	errx "github.com/Tripmate-core-poc-v1/server/internal/core/error"
)

var (
	fencedJSONPattern = regexp.MustCompile("(?is)```json([\\s\\S]*?)```")
	bracePattern      = regexp.MustCompile(`(?s)\{.*\}`)
)

// ExtractJSONObject digs a JSON object out of model output that may wrap it in
// prose or a code fence. Candidates are tried in order: fenced ```json block,
// greedy brace match, first balanced object, then the trimmed text itself.
func ExtractJSONObject(text string) (map[string]any, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, errx.Parse(nil, "empty model output")
	}

	var candidates []string
	if m := fencedJSONPattern.FindStringSubmatch(trimmed); len(m) == 2 {
		candidates = append(candidates, m[1])
	}
	if m := bracePattern.FindString(trimmed); m != "" {
		candidates = append(candidates, m)
	}
	if balanced := firstBalancedObject(trimmed); balanced != "" {
		candidates = append(candidates, balanced)
	}
	candidates = append(candidates, trimmed)

	var lastErr error
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		var out map[string]any
		if err := json.Unmarshal([]byte(candidate), &out); err != nil {
			lastErr = err
			continue
		}
		if out != nil {
			return out, nil
		}
	}
	return nil, errx.Parse(lastErr, "model output carries no JSON object")
}

// firstBalancedObject scans for the first brace-balanced object, honoring
// strings and escapes, so trailing prose after the JSON does not break it.
func firstBalancedObject(text string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, r := range text {
		if start == -1 {
			if r == '{' {
				start = i
				depth = 1
			}
			continue
		}

		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}
	}
	return ""
}
