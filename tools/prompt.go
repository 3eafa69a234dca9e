package tools

import (
	"fmt"
	"strings"
)

const promptPreamble = "You have access to structured data tools. When the user's request matches a tool, " +
	"respond ONLY with the JSON tool-call specified below — no prose, no markdown, just raw JSON."

// BuildPrompt assembles the system instruction block for a set of matched
// tools. It returns "" when no tools matched. The block explains the
// raw-JSON-only reply contract and concatenates each tool's literal
// instructions under a named header. The result is sent to the model as a
// system message and never shown to the user.
func BuildPrompt(matched []Definition) string {
	if len(matched) == 0 {
		return ""
	}

	blocks := make([]string, 0, len(matched))
	for _, tool := range matched {
		blocks = append(blocks, fmt.Sprintf("### Tool: %s\n%s", tool.Name, tool.LLMInstructions))
	}

	return promptPreamble + "\n\n" + strings.Join(blocks, "\n\n")
}
