package tools

import "strings"

// Match returns the tools whose trigger condition is satisfied by the raw
// user message, in catalog order. A tool matches when at least one of its
// keywords occurs in the message (case-insensitive substring) and, if the
// tool declares context keywords, at least one of those occurs too.
//
// Matching operates on the user's text only; it is independent of anything
// the model says later.
func (c *Catalog) Match(userMessage string) []Definition {
	lower := strings.ToLower(userMessage)

	var matched []Definition
	for _, tool := range c.Tools {
		if len(tool.KeywordContext) > 0 && !containsAny(lower, tool.KeywordContext) {
			continue
		}
		if containsAny(lower, tool.Keywords) {
			matched = append(matched, tool)
		}
	}
	return matched
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
