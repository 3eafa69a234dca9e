package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func financeSearchJSON(symbols ...string) json.RawMessage {
	var entries []string
	for _, s := range symbols {
		entries = append(entries, fmt.Sprintf(
			`{"symbol": %q, "name": "%s Inc.", "type": "EQUITY", "exchange": "NMS"}`, s, s))
	}
	return json.RawMessage(fmt.Sprintf(`{"candidates": [%s]}`, strings.Join(entries, ",")))
}

func TestFinanceRendererDirectMode(t *testing.T) {
	r := &FinanceRenderer{}

	tests := []struct {
		name  string
		query string
		top   string
	}{
		{"exact symbol match", "aapl", "AAPL"},
		{"ticker-shaped query", "MSFT", "MSFT2"},
		{"index symbol", "^GSPC", "^GSPC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frag, err := r.Render(financeSearchJSON(tt.top, "OTHER"), Invocation{
				Tool:   "finance",
				Params: map[string]any{"query": tt.query},
			})
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}

			card := frag.(*FinanceCard)
			if card.AwaitingChoice() {
				t.Fatal("direct mode card should not await a choice")
			}

			symbol, pending := card.PendingFetch()
			if !pending {
				t.Fatal("PendingFetch() = false, want pending fetch")
			}
			if symbol != tt.top {
				t.Errorf("pending symbol = %q, want %q", symbol, tt.top)
			}
		})
	}
}

func TestFinanceRendererConfirmMode(t *testing.T) {
	r := &FinanceRenderer{}

	frag, err := r.Render(
		financeSearchJSON("AAPL", "APLE", "APLD", "AAPU", "AAPD", "AAPB", "AAPX"),
		Invocation{Tool: "finance", Params: map[string]any{"query": "apple computers"}},
	)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	card := frag.(*FinanceCard)
	if !card.AwaitingChoice() {
		t.Fatal("AwaitingChoice() = false, want confirmation mode")
	}
	if len(card.candidates) != maxCandidates {
		t.Errorf("candidates = %d, want %d", len(card.candidates), maxCandidates)
	}
	if _, pending := card.PendingFetch(); pending {
		t.Error("confirmation card should have no pending fetch")
	}

	view := card.View(80)
	for _, want := range []string{"Which did you mean?", "AAPL", "1-5 or enter"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestFinanceRendererNoCandidates(t *testing.T) {
	r := &FinanceRenderer{}

	_, err := r.Render(json.RawMessage(`{"candidates": []}`), Invocation{Tool: "finance"})

	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("Render() error = %v, want *DomainError", err)
	}
}

func TestFinanceCardChoose(t *testing.T) {
	r := &FinanceRenderer{}
	frag, err := r.Render(
		financeSearchJSON("AAPL", "APLE", "APLD"),
		Invocation{Tool: "finance", Params: map[string]any{"query": "apple stock price"}},
	)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	card := frag.(*FinanceCard)

	t.Run("cursor movement clamps", func(t *testing.T) {
		card.MoveCursor(-3)
		if card.cursor != 0 {
			t.Errorf("cursor = %d, want 0", card.cursor)
		}
		card.MoveCursor(10)
		if card.cursor != 2 {
			t.Errorf("cursor = %d, want 2", card.cursor)
		}
		card.MoveCursor(-1)
		if card.cursor != 1 {
			t.Errorf("cursor = %d, want 1", card.cursor)
		}
	})

	t.Run("out of range index rejected", func(t *testing.T) {
		if _, ok := card.Choose(7); ok {
			t.Error("Choose(7) accepted an out-of-range index")
		}
	})

	t.Run("negative index picks cursor", func(t *testing.T) {
		symbol, ok := card.Choose(-1)
		if !ok {
			t.Fatal("Choose(-1) = false, want true")
		}
		if symbol != "APLE" {
			t.Errorf("chosen symbol = %q, want APLE (cursor position)", symbol)
		}
		if card.AwaitingChoice() {
			t.Error("card still awaiting choice after Choose")
		}
		if s, pending := card.PendingFetch(); !pending || s != "APLE" {
			t.Errorf("PendingFetch() = %q, %v; want APLE, true", s, pending)
		}
	})

	t.Run("choose on non-confirm card is a no-op", func(t *testing.T) {
		if _, ok := card.Choose(0); ok {
			t.Error("Choose() accepted after leaving confirmation state")
		}
	})
}

func TestFinanceCardApplyChart(t *testing.T) {
	price := 187.23
	prev := 180.00
	volume := int64(52_000_000)

	chart := &ChartData{
		Symbol: "AAPL",
		Meta: ChartMeta{
			Symbol:              "AAPL",
			Currency:            "USD",
			LongName:            "Apple Inc.",
			RegularMarketPrice:  &price,
			ChartPreviousClose:  &prev,
			RegularMarketVolume: &volume,
		},
		Quotes: []Quote{
			{Timestamp: 1, Close: 181},
			{Timestamp: 2, Close: 184},
			{Timestamp: 3, Close: 187.23},
		},
	}

	t.Run("chart state", func(t *testing.T) {
		card := &FinanceCard{state: financeLoading, pendingSymbol: "AAPL", chartRange: "1mo"}
		card.ApplyChart(chart, nil)

		view := card.View(80)
		for _, want := range []string{"AAPL", "Apple Inc.", "187.23", "USD", "▲", "4.02%", "52.00M", "1mo"} {
			if !strings.Contains(view, want) {
				t.Errorf("View() missing %q", want)
			}
		}
	})

	t.Run("error state", func(t *testing.T) {
		card := &FinanceCard{state: financeLoading, pendingSymbol: "AAPL"}
		card.ApplyChart(nil, errors.New("backend unreachable"))

		view := card.View(80)
		if !strings.Contains(view, "Finance error") || !strings.Contains(view, "backend unreachable") {
			t.Errorf("error view missing failure text: %q", view)
		}
	})
}

func TestFinanceCardFetchChart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)

		if payload["action"] != "chart" {
			t.Errorf("action = %v, want chart", payload["action"])
		}
		if payload["symbol"] != "TSLA" {
			t.Errorf("symbol = %v, want TSLA", payload["symbol"])
		}
		if payload["range"] != "5d" {
			t.Errorf("range = %v, want 5d", payload["range"])
		}

		w.Write([]byte(`{"symbol": "TSLA", "meta": {"symbol": "TSLA", "currency": "USD"}, "quotes": [{"timestamp": 1, "close": 240.5}]}`))
	}))
	defer server.Close()

	card := &FinanceCard{
		dispatcher: NewDispatcher(server.URL),
		endpoint:   "/tools/finance",
		state:      financeLoading,
		chartRange: "5d",
		interval:   "1d",
	}

	chart, err := card.FetchChart(context.Background(), "TSLA")
	if err != nil {
		t.Fatalf("FetchChart() error = %v", err)
	}
	if chart.Symbol != "TSLA" {
		t.Errorf("chart symbol = %q, want TSLA", chart.Symbol)
	}
	if len(chart.Quotes) != 1 || chart.Quotes[0].Close != 240.5 {
		t.Errorf("quotes = %+v", chart.Quotes)
	}

	// FetchChart must not mutate the card; ApplyChart does
	if card.chart != nil {
		t.Error("FetchChart mutated the card")
	}
	card.ApplyChart(chart, nil)
	if card.chart == nil {
		t.Error("ApplyChart did not install the chart")
	}
}
