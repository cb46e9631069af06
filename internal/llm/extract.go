package llm

import (
	"strings"

	"github.com/tidwall/gjson"
)

// ExtractTranslation pulls the "translation" field out of a model reply.
// Models wrap JSON in code fences or prose more often than not, so the
// reply is unfenced first and scanned for an embedded object if needed.
// ok is false when no such field can be found.
func ExtractTranslation(content string) (string, bool) {
	return ExtractField(content, "translation")
}

// ExtractField returns the string value at a gjson path inside a JSON
// object embedded in content.
func ExtractField(content, path string) (string, bool) {
	for _, candidate := range jsonCandidates(content) {
		if result := gjson.Get(candidate, path); result.Exists() && result.Type == gjson.String {
			return result.String(), true
		}
	}
	return "", false
}

// jsonCandidates lists the substrings of content worth parsing as JSON:
// the unfenced body first, then the outermost brace-delimited span.
func jsonCandidates(content string) []string {
	body := stripFences(strings.TrimSpace(content))

	candidates := []string{body}
	if start := strings.Index(body, "{"); start >= 0 {
		if end := strings.LastIndex(body, "}"); end > start {
			candidates = append(candidates, body[start:end+1])
		}
	}
	return candidates
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
