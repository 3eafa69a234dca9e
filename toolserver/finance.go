package toolserver

import (
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

var (
	allowedRanges = map[string]bool{
		"1d": true, "5d": true, "1mo": true, "3mo": true, "6mo": true,
		"1y": true, "2y": true, "5y": true, "10y": true, "ytd": true, "max": true,
	}
	allowedIntervals = map[string]bool{
		"1m": true, "2m": true, "5m": true, "15m": true, "30m": true,
		"60m": true, "90m": true, "1h": true, "1d": true, "5d": true,
		"1wk": true, "1mo": true, "3mo": true,
	}
	symbolPattern = regexp.MustCompile(`^[A-Za-z0-9.\-^=]+$`)
)

// handleFinance serves both finance actions: symbol search (default) and
// chart retrieval.
func (s *Server) handleFinance(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Action   string `json:"action"`
		Query    string `json:"query"`
		Symbol   string `json:"symbol"`
		Range    string `json:"range"`
		Interval string `json:"interval"`
	}
	if !decodeRequest(w, r, &in) {
		return
	}

	if in.Action == "chart" {
		s.financeChart(w, r, in.Symbol, in.Range, in.Interval)
		return
	}
	s.financeSearch(w, r, in.Query)
}

func (s *Server) financeSearch(w http.ResponseWriter, r *http.Request, query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		writeError(w, "No query provided")
		return
	}

	params := url.Values{
		"q":           {query},
		"quotesCount": {"6"},
		"newsCount":   {"0"},
	}

	var decoded struct {
		Quotes []struct {
			Symbol    string `json:"symbol"`
			LongName  string `json:"longname"`
			ShortName string `json:"shortname"`
			QuoteType string `json:"quoteType"`
			ExchDisp  string `json:"exchDisp"`
			Exchange  string `json:"exchange"`
		} `json:"quotes"`
	}
	if err := s.fetchJSON(r, s.financeSearchURL+"?"+params.Encode(), &decoded); err != nil {
		writeError(w, "Symbol search failed")
		return
	}
	if len(decoded.Quotes) == 0 {
		writeError(w, "No results found for: "+query)
		return
	}

	candidates := make([]map[string]string, 0, len(decoded.Quotes))
	for _, q := range decoded.Quotes {
		if q.Symbol == "" {
			continue
		}
		name := q.LongName
		if name == "" {
			name = q.ShortName
		}
		exchange := q.ExchDisp
		if exchange == "" {
			exchange = q.Exchange
		}
		candidates = append(candidates, map[string]string{
			"symbol":   q.Symbol,
			"name":     name,
			"type":     q.QuoteType,
			"exchange": exchange,
		})
	}

	writeJSON(w, map[string]any{"candidates": candidates})
}

func (s *Server) financeChart(w http.ResponseWriter, r *http.Request, symbol, chartRange, interval string) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		writeError(w, "No symbol provided")
		return
	}
	if !symbolPattern.MatchString(symbol) || len(symbol) > 20 {
		writeError(w, "Invalid symbol format")
		return
	}
	if !allowedRanges[chartRange] {
		chartRange = "1mo"
	}
	if !allowedIntervals[interval] {
		interval = "1d"
	}

	params := url.Values{
		"range":    {chartRange},
		"interval": {interval},
	}

	var decoded struct {
		Chart struct {
			Result []struct {
				Meta       json.RawMessage `json:"meta"`
				Timestamp  []int64         `json:"timestamp"`
				Indicators struct {
					Quote []struct {
						Open   []*float64 `json:"open"`
						High   []*float64 `json:"high"`
						Low    []*float64 `json:"low"`
						Close  []*float64 `json:"close"`
						Volume []*int64   `json:"volume"`
					} `json:"quote"`
				} `json:"indicators"`
			} `json:"result"`
			Error *struct {
				Description string `json:"description"`
			} `json:"error"`
		} `json:"chart"`
	}
	if err := s.fetchJSON(r, s.financeChartURL+"/"+url.PathEscape(symbol)+"?"+params.Encode(), &decoded); err != nil {
		writeError(w, "Chart request failed for: "+symbol)
		return
	}

	if len(decoded.Chart.Result) == 0 {
		msg := "No data for: " + symbol
		if decoded.Chart.Error != nil && decoded.Chart.Error.Description != "" {
			msg = decoded.Chart.Error.Description
		}
		writeError(w, msg)
		return
	}

	result := decoded.Chart.Result[0]

	var bars struct {
		Open   []*float64
		High   []*float64
		Low    []*float64
		Close  []*float64
		Volume []*int64
	}
	if len(result.Indicators.Quote) > 0 {
		q := result.Indicators.Quote[0]
		bars.Open, bars.High, bars.Low, bars.Close, bars.Volume = q.Open, q.High, q.Low, q.Close, q.Volume
	}

	at := func(vs []*float64, i int) *float64 {
		if i < len(vs) {
			return vs[i]
		}
		return nil
	}

	// Bars without a close are gaps, not data; drop them.
	quotes := make([]map[string]any, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		closePrice := at(bars.Close, i)
		if closePrice == nil {
			continue
		}
		var volume *int64
		if i < len(bars.Volume) {
			volume = bars.Volume[i]
		}
		quotes = append(quotes, map[string]any{
			"timestamp": ts,
			"open":      at(bars.Open, i),
			"high":      at(bars.High, i),
			"low":       at(bars.Low, i),
			"close":     *closePrice,
			"volume":    volume,
		})
	}

	writeJSON(w, map[string]any{
		"symbol":     symbol,
		"meta":       result.Meta,
		"timestamps": result.Timestamp,
		"quotes":     quotes,
	})
}
