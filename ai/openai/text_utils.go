package openai

import "strings"

// cleanSummary strips the wrapping small models like to add around an
// otherwise plain answer.
func cleanSummary(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```text")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	for _, prefix := range []string{"Updated summary:", "Summary:"} {
		if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
			s = strings.TrimSpace(s[len(prefix):])
			break
		}
	}
	return strings.Trim(s, "\"")
}
