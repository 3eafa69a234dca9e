// Package toolserver hosts the per-tool backend fetchers behind an HTTP
// surface the tool dispatcher POSTs to. Each handler accepts a JSON
// invocation and answers either a tool-specific payload or {"error": ...}
// with status 200 — domain failures are data, not transport errors.
//
// Upstream endpoints are configurable so tests can point the server at
// stubs.
package toolserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config points the server at its upstream data sources. Zero values use the
// public services.
type Config struct {
	GeocodeURL       string
	ForecastURL      string
	TimeAPIURL       string
	FinanceSearchURL string
	FinanceChartURL  string
	Client           *http.Client
}

// Server implements the tool backend contract for the time, weather and
// finance tools.
type Server struct {
	geocodeURL       string
	forecastURL      string
	timeAPIURL       string
	financeSearchURL string
	financeChartURL  string
	client           *http.Client
}

// New creates a tool backend server.
func New(cfg Config) *Server {
	s := &Server{
		geocodeURL:       cfg.GeocodeURL,
		forecastURL:      cfg.ForecastURL,
		timeAPIURL:       cfg.TimeAPIURL,
		financeSearchURL: cfg.FinanceSearchURL,
		financeChartURL:  cfg.FinanceChartURL,
		client:           cfg.Client,
	}
	if s.geocodeURL == "" {
		s.geocodeURL = "https://geocoding-api.open-meteo.com/v1/search"
	}
	if s.forecastURL == "" {
		s.forecastURL = "https://api.open-meteo.com/v1/forecast"
	}
	if s.timeAPIURL == "" {
		s.timeAPIURL = "https://time.now/developer/api/timezone"
	}
	if s.financeSearchURL == "" {
		s.financeSearchURL = "https://query2.finance.yahoo.com/v1/finance/search"
	}
	if s.financeChartURL == "" {
		s.financeChartURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	}
	if s.client == nil {
		s.client = &http.Client{Timeout: 15 * time.Second}
	}
	return s
}

// Handler returns the HTTP surface: one POST route per tool.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /tools/time", s.handleTime)
	mux.HandleFunc("POST /tools/weather", s.handleWeather)
	mux.HandleFunc("POST /tools/finance", s.handleFinance)
	return mux
}

func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, "failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, "invalid JSON request")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(payload)
}

// writeError reports a domain error. Status stays 200: the dispatcher treats
// the error field as the failure signal.
func writeError(w http.ResponseWriter, msg string) {
	writeJSON(w, map[string]string{"error": msg})
}

// fetchJSON GETs an upstream URL and decodes the response, requiring HTTP 200.
func (s *Server) fetchJSON(r *http.Request, url string, dst any) error {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "orchat-tools/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upstream status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
