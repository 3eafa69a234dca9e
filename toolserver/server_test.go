package toolserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// stubUpstreams fakes the geocoding, forecast, time and finance services and
// returns a tool server wired to them.
func stubUpstreams(t *testing.T) *httptest.Server {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/geocode"):
			if r.URL.Query().Get("name") == "Atlantis" {
				w.Write([]byte(`{"results": []}`))
				return
			}
			w.Write([]byte(`{"results": [{
				"name": "Paris", "country": "France", "country_code": "FR",
				"latitude": 48.85, "longitude": 2.35, "timezone": "Europe/Paris"
			}]}`))

		case strings.HasPrefix(r.URL.Path, "/forecast"):
			if r.URL.Query().Get("current_weather") != "true" {
				t.Error("forecast request missing current_weather=true")
			}
			w.Write([]byte(`{
				"current_weather": {"temperature": 18.4, "windspeed": 12.0, "winddirection": 90, "weathercode": 2, "is_day": 1},
				"hourly": {"time": ["2025-03-07T00:00"], "temperature_2m": [10.0]}
			}`))

		case strings.HasPrefix(r.URL.Path, "/time/"):
			if !strings.HasSuffix(r.URL.Path, "/Europe/Paris") {
				t.Errorf("time request for unexpected zone: %s", r.URL.Path)
			}
			w.Write([]byte(`{
				"datetime": "2025-03-07T15:30:45+01:00", "timezone": "Europe/Paris",
				"utc_offset": "+01:00", "abbreviation": "CET", "dst": false
			}`))

		case strings.HasPrefix(r.URL.Path, "/fsearch"):
			if r.URL.Query().Get("q") == "zzzzzz" {
				w.Write([]byte(`{"quotes": []}`))
				return
			}
			w.Write([]byte(`{"quotes": [
				{"symbol": "AAPL", "longname": "Apple Inc.", "quoteType": "EQUITY", "exchDisp": "NASDAQ"},
				{"symbol": "", "longname": "ghost entry"},
				{"symbol": "APLE", "shortname": "Apple Hospitality", "quoteType": "EQUITY", "exchange": "NYQ"}
			]}`))

		case strings.HasPrefix(r.URL.Path, "/fchart/"):
			if r.URL.Query().Get("range") != "1mo" {
				t.Errorf("chart range = %s, want 1mo fallback", r.URL.Query().Get("range"))
			}
			w.Write([]byte(`{"chart": {"result": [{
				"meta": {"symbol": "AAPL", "currency": "USD", "regularMarketPrice": 187.23},
				"timestamp": [1700000000, 1700086400, 1700172800],
				"indicators": {"quote": [{
					"open": [180.0, 182.0, 185.0],
					"high": [183.0, 186.0, 188.0],
					"low": [179.0, 181.0, 184.0],
					"close": [182.0, null, 187.23],
					"volume": [1000, 2000, 3000]
				}]}
			}]}}`))

		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(upstream.Close)

	srv := New(Config{
		GeocodeURL:       upstream.URL + "/geocode",
		ForecastURL:      upstream.URL + "/forecast",
		TimeAPIURL:       upstream.URL + "/time",
		FinanceSearchURL: upstream.URL + "/fsearch",
		FinanceChartURL:  upstream.URL + "/fchart",
		Client:           upstream.Client(),
	})

	tools := httptest.NewServer(srv.Handler())
	t.Cleanup(tools.Close)
	return tools
}

func post(t *testing.T, server *httptest.Server, path string, payload any) map[string]json.RawMessage {
	t.Helper()

	body, _ := json.Marshal(payload)
	resp, err := http.Post(server.URL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST %s status = %d, want 200", path, resp.StatusCode)
	}

	var decoded map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("POST %s: decoding response: %v", path, err)
	}
	return decoded
}

func errorField(t *testing.T, decoded map[string]json.RawMessage) string {
	t.Helper()
	raw, ok := decoded["error"]
	if !ok {
		return ""
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("error field not a string: %v", err)
	}
	return msg
}

func TestHandleTime(t *testing.T) {
	server := stubUpstreams(t)

	t.Run("resolves location and zone", func(t *testing.T) {
		decoded := post(t, server, "/tools/time", map[string]any{"tool": "time", "location": "Paris"})
		if msg := errorField(t, decoded); msg != "" {
			t.Fatalf("unexpected error: %s", msg)
		}

		var loc struct {
			Name    string `json:"name"`
			Country string `json:"country"`
		}
		json.Unmarshal(decoded["location"], &loc)
		if loc.Name != "Paris" || loc.Country != "FR" {
			t.Errorf("location = %+v", loc)
		}

		var tm struct {
			Datetime string `json:"datetime"`
			Timezone string `json:"timezone"`
		}
		json.Unmarshal(decoded["time"], &tm)
		if tm.Timezone != "Europe/Paris" || tm.Datetime == "" {
			t.Errorf("time = %+v", tm)
		}
	})

	t.Run("empty location is a domain error", func(t *testing.T) {
		decoded := post(t, server, "/tools/time", map[string]any{"tool": "time"})
		if errorField(t, decoded) == "" {
			t.Error("missing error for empty location")
		}
	})

	t.Run("unknown location is a domain error", func(t *testing.T) {
		decoded := post(t, server, "/tools/time", map[string]any{"tool": "time", "location": "Atlantis"})
		if msg := errorField(t, decoded); !strings.Contains(msg, "Atlantis") {
			t.Errorf("error = %q, want location name in message", msg)
		}
	})
}

func TestHandleWeather(t *testing.T) {
	server := stubUpstreams(t)

	decoded := post(t, server, "/tools/weather", map[string]any{"tool": "weather", "location": "Paris, France"})
	if msg := errorField(t, decoded); msg != "" {
		t.Fatalf("unexpected error: %s", msg)
	}

	var weather struct {
		CurrentWeather struct {
			Temperature float64 `json:"temperature"`
		} `json:"current_weather"`
	}
	json.Unmarshal(decoded["weather"], &weather)
	if weather.CurrentWeather.Temperature != 18.4 {
		t.Errorf("temperature = %v, want 18.4", weather.CurrentWeather.Temperature)
	}
}

func TestHandleFinanceSearch(t *testing.T) {
	server := stubUpstreams(t)

	t.Run("maps quotes to candidates", func(t *testing.T) {
		decoded := post(t, server, "/tools/finance", map[string]any{"tool": "finance", "query": "apple"})
		if msg := errorField(t, decoded); msg != "" {
			t.Fatalf("unexpected error: %s", msg)
		}

		var candidates []struct {
			Symbol   string `json:"symbol"`
			Name     string `json:"name"`
			Exchange string `json:"exchange"`
		}
		json.Unmarshal(decoded["candidates"], &candidates)

		// Quote with empty symbol is dropped
		if len(candidates) != 2 {
			t.Fatalf("candidates = %d, want 2", len(candidates))
		}
		if candidates[0].Symbol != "AAPL" || candidates[0].Name != "Apple Inc." || candidates[0].Exchange != "NASDAQ" {
			t.Errorf("candidates[0] = %+v", candidates[0])
		}
		// shortname fallback when longname is missing
		if candidates[1].Name != "Apple Hospitality" {
			t.Errorf("candidates[1].Name = %q, want shortname fallback", candidates[1].Name)
		}
	})

	t.Run("no results is a domain error", func(t *testing.T) {
		decoded := post(t, server, "/tools/finance", map[string]any{"tool": "finance", "query": "zzzzzz"})
		if errorField(t, decoded) == "" {
			t.Error("missing error for empty result set")
		}
	})

	t.Run("empty query is a domain error", func(t *testing.T) {
		decoded := post(t, server, "/tools/finance", map[string]any{"tool": "finance"})
		if errorField(t, decoded) == "" {
			t.Error("missing error for empty query")
		}
	})
}

func TestHandleFinanceChart(t *testing.T) {
	server := stubUpstreams(t)

	t.Run("normalizes bars and drops closeless ones", func(t *testing.T) {
		// Bogus range falls back to 1mo (checked by the stub)
		decoded := post(t, server, "/tools/finance", map[string]any{
			"tool": "finance", "action": "chart", "symbol": "AAPL", "range": "7mo", "interval": "1d",
		})
		if msg := errorField(t, decoded); msg != "" {
			t.Fatalf("unexpected error: %s", msg)
		}

		var quotes []struct {
			Timestamp int64   `json:"timestamp"`
			Close     float64 `json:"close"`
		}
		json.Unmarshal(decoded["quotes"], &quotes)

		// Middle bar has a null close and is dropped
		if len(quotes) != 2 {
			t.Fatalf("quotes = %d, want 2", len(quotes))
		}
		if quotes[1].Close != 187.23 {
			t.Errorf("last close = %v, want 187.23", quotes[1].Close)
		}

		var meta struct {
			Symbol string `json:"symbol"`
		}
		json.Unmarshal(decoded["meta"], &meta)
		if meta.Symbol != "AAPL" {
			t.Errorf("meta symbol = %q, want AAPL", meta.Symbol)
		}
	})

	t.Run("invalid symbol is a domain error", func(t *testing.T) {
		decoded := post(t, server, "/tools/finance", map[string]any{
			"tool": "finance", "action": "chart", "symbol": "../etc/passwd",
		})
		if errorField(t, decoded) == "" {
			t.Error("missing error for invalid symbol")
		}
	})
}
