package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newTestEngine builds an engine over the shared test catalog with a stub
// backend serving all three tools.
func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tools/time":
			w.Write([]byte(`{
				"location": {"name": "Tokyo", "country": "Japan"},
				"time": {"datetime": "2025-03-07T15:30:45+09:00", "timezone": "Asia/Tokyo", "utc_offset": "+09:00", "abbreviation": "JST", "dst": false}
			}`))
		case "/tools/weather":
			w.Write([]byte(`{
				"location": {"name": "Paris", "country": "France"},
				"weather": {"current_weather": {"temperature": 18.4, "windspeed": 12.0, "winddirection": 90, "weathercode": 2, "is_day": 1}}
			}`))
		case "/tools/finance":
			w.Write([]byte(`{"error": "No matching symbols found."}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	engine, err := NewEngine(testCatalog(), NewDispatcher(server.URL))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return engine
}

func TestNewEngineRejectsUnknownRenderer(t *testing.T) {
	catalog := &Catalog{Tools: []Definition{{
		ID:              "bogus",
		Name:            "Bogus",
		Keywords:        []string{"bogus"},
		BackendEndpoint: "/tools/bogus",
		Renderer:        "hologram",
	}}}

	if _, err := NewEngine(catalog, NewDispatcher("http://localhost")); err == nil {
		t.Fatal("NewEngine() accepted an unknown renderer")
	}
}

func TestEngineDetectAndPrompt(t *testing.T) {
	engine := newTestEngine(t)

	matched := engine.Detect("What's the weather in Paris?")
	if len(matched) != 1 || matched[0].ID != "weather" {
		t.Fatalf("Detect() = %v, want weather", matched)
	}

	prompt := engine.BuildPrompt(matched)
	if prompt == "" {
		t.Fatal("BuildPrompt() returned empty for a matched tool")
	}

	if engine.BuildPrompt(engine.Detect("tell me a story")) != "" {
		t.Error("BuildPrompt() non-empty with no matched tools")
	}
}

func TestEngineTryRender(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	t.Run("prose reply is not a tool call", func(t *testing.T) {
		if frag := engine.TryRender(ctx, "The weather in Paris is lovely."); frag != nil {
			t.Errorf("TryRender() = %v, want nil for prose", frag)
		}
	})

	t.Run("time call renders a clock card", func(t *testing.T) {
		frag := engine.TryRender(ctx, `{"tool": "time", "location": "Tokyo"}`)
		if frag == nil {
			t.Fatal("TryRender() = nil for a valid call")
		}
		if !strings.Contains(frag.View(80), "Tokyo, Japan") {
			t.Error("time card missing location")
		}
	})

	t.Run("fenced weather call renders", func(t *testing.T) {
		frag := engine.TryRender(ctx, "```json\n{\"tool\": \"weather\", \"location\": \"Paris\"}\n```")
		if frag == nil {
			t.Fatal("TryRender() = nil for a fenced call")
		}
		if !strings.Contains(frag.View(80), "Paris, France") {
			t.Error("weather card missing location")
		}
	})

	t.Run("domain failure degrades to an error card", func(t *testing.T) {
		frag := engine.TryRender(ctx, `{"tool": "finance", "query": "zzzzzz"}`)
		if frag == nil {
			t.Fatal("TryRender() = nil for a failed call, want error card")
		}
		view := frag.View(80)
		if !strings.Contains(view, "No matching symbols found.") {
			t.Errorf("error card missing domain message: %q", view)
		}
		if !strings.Contains(view, "Finance") {
			t.Errorf("error card missing tool name: %q", view)
		}
	})
}

func TestEngineRecall(t *testing.T) {
	engine := newTestEngine(t)

	messages := []RecallMessage{
		{Role: "user", Content: "what time is it in tokyo"},
		{Role: "assistant", Content: `{"tool": "time", "location": "Tokyo"}`},
		{Role: "user", Content: "thanks"},
		{Role: "assistant", Content: "You're welcome!"},
		{Role: "assistant", Content: `{"tool": "finance", "query": "zzzzzz"}`},
	}

	replaced := make(map[int]Fragment)
	engine.Recall(context.Background(), messages, func(i int, frag Fragment) {
		replaced[i] = frag
	})

	// Only the successful tool call is replaced; the prose message stays
	// text and the failed finance replay is left alone.
	if len(replaced) != 1 {
		t.Fatalf("Recall replaced %d messages, want 1", len(replaced))
	}
	frag, ok := replaced[1]
	if !ok {
		t.Fatal("Recall did not replace the time call at index 1")
	}
	if !strings.Contains(frag.View(80), "Tokyo, Japan") {
		t.Error("recalled fragment missing location")
	}
}
