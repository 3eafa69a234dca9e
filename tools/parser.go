package tools

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Invocation is a validated tool call recovered from a model reply:
// the registered tool id plus the tool-specific parameters.
//
// Endpoint carries the backend endpoint of the originating definition; it is
// filled in by the engine before dispatch and rendering, so renderers that
// need follow-up fetches (finance) know where to go.
type Invocation struct {
	Tool     string
	Params   map[string]any
	Endpoint string
}

// Get returns a string parameter, or "" if absent or not a string.
func (inv Invocation) Get(key string) string {
	if v, ok := inv.Params[key].(string); ok {
		return v
	}
	return ""
}

// payload returns the wire form of the invocation: the tool-specific
// parameters plus the tool id, as sent to the backend.
func (inv Invocation) payload() map[string]any {
	out := make(map[string]any, len(inv.Params)+1)
	for k, v := range inv.Params {
		out[k] = v
	}
	out["tool"] = inv.Tool
	return out
}

var (
	openFence  = regexp.MustCompile("(?i)^```(?:json)?\n?")
	closeFence = regexp.MustCompile("\n?```$")
)

// ParseCall inspects a raw model reply for a structured tool call. It strips
// surrounding code fences, requires the remainder to be strict JSON, and
// accepts the value only if it is an object whose "tool" field names a
// registered definition. Anything else — prose, invalid JSON, an unknown tool
// id — yields (zero, false); parsing never fails with an error.
//
// The same function serves the replay path: persisted conversations store the
// original reply text, never a rendered fragment, so historical tool calls
// are re-derived by parsing each assistant message again.
func (c *Catalog) ParseCall(reply string) (Invocation, bool) {
	cleaned := strings.TrimSpace(reply)
	cleaned = openFence.ReplaceAllString(cleaned, "")
	cleaned = closeFence.ReplaceAllString(cleaned, "")

	var parsed map[string]any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return Invocation{}, false
	}

	id, ok := parsed["tool"].(string)
	if !ok || c.Find(id) == nil {
		return Invocation{}, false
	}

	params := make(map[string]any, len(parsed))
	for k, v := range parsed {
		if k != "tool" {
			params[k] = v
		}
	}

	return Invocation{Tool: id, Params: params}, true
}
