package tools

import "testing"

func testCatalog() *Catalog {
	return &Catalog{
		Tools: []Definition{
			{
				ID:              "time",
				Name:            "World Time",
				Keywords:        []string{"time in", "what time", "current time"},
				BackendEndpoint: "/tools/time",
				Renderer:        "time",
			},
			{
				ID:              "weather",
				Name:            "Weather",
				Keywords:        []string{"weather", "forecast", "temperature in"},
				BackendEndpoint: "/tools/weather",
				Renderer:        "weather",
			},
			{
				ID:              "finance",
				Name:            "Finance",
				Keywords:        []string{"stock", "ticker", "how is", "quote"},
				KeywordContext:  []string{"price", "stock", "share", "market", "trading"},
				BackendEndpoint: "/tools/finance",
				Renderer:        "finance",
			},
		},
	}
}

func TestCatalogMatch(t *testing.T) {
	catalog := testCatalog()

	tests := []struct {
		name    string
		message string
		want    []string
	}{
		{
			name:    "time keyword",
			message: "What time is it in Tokyo?",
			want:    []string{"time"},
		},
		{
			name:    "case insensitive",
			message: "WEATHER in paris please",
			want:    []string{"weather"},
		},
		{
			name:    "no match",
			message: "Tell me a joke",
			want:    nil,
		},
		{
			name:    "context keyword missing",
			message: "how is your day going",
			want:    nil,
		},
		{
			name:    "context keyword present",
			message: "how is the AAPL stock doing",
			want:    []string{"finance"},
		},
		{
			name:    "multiple tools in catalog order",
			message: "what time is it and what's the weather",
			want:    []string{"time", "weather"},
		},
		{
			name:    "keyword inside larger word counts",
			message: "I checked the stockpile prices",
			want:    []string{"finance"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched := catalog.Match(tt.message)

			if len(matched) != len(tt.want) {
				t.Fatalf("Match() returned %d tools, want %d", len(matched), len(tt.want))
			}
			for i, def := range matched {
				if def.ID != tt.want[i] {
					t.Errorf("Match()[%d] = %q, want %q", i, def.ID, tt.want[i])
				}
			}
		})
	}
}

func TestCatalogFind(t *testing.T) {
	catalog := testCatalog()

	if def := catalog.Find("weather"); def == nil || def.ID != "weather" {
		t.Errorf("Find(weather) = %v, want weather definition", def)
	}
	if def := catalog.Find("nope"); def != nil {
		t.Errorf("Find(nope) = %v, want nil", def)
	}
}
