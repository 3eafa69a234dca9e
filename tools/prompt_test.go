package tools

import (
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	defs := []Definition{
		{ID: "time", Name: "World Time", LLMInstructions: "Reply with {\"tool\": \"time\", \"query\": \"<city>\"}."},
		{ID: "weather", Name: "Weather", LLMInstructions: "Reply with {\"tool\": \"weather\", \"query\": \"<city>\"}."},
	}

	t.Run("no matches yields empty prompt", func(t *testing.T) {
		if got := BuildPrompt(nil); got != "" {
			t.Errorf("BuildPrompt(nil) = %q, want empty", got)
		}
	})

	t.Run("single tool", func(t *testing.T) {
		prompt := BuildPrompt(defs[:1])

		if !strings.Contains(prompt, "### Tool: World Time") {
			t.Error("prompt missing tool header")
		}
		if !strings.Contains(prompt, defs[0].LLMInstructions) {
			t.Error("prompt missing literal instructions")
		}
		if !strings.Contains(prompt, "respond ONLY with the JSON tool-call") {
			t.Error("prompt missing reply contract")
		}
	})

	t.Run("multiple tools keep order", func(t *testing.T) {
		prompt := BuildPrompt(defs)

		timeIdx := strings.Index(prompt, "### Tool: World Time")
		weatherIdx := strings.Index(prompt, "### Tool: Weather")
		if timeIdx < 0 || weatherIdx < 0 {
			t.Fatal("prompt missing a tool header")
		}
		if timeIdx > weatherIdx {
			t.Error("tool blocks out of catalog order")
		}
	})
}
