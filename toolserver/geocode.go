package toolserver

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

type geoPlace struct {
	Name        string  `json:"name"`
	Country     string  `json:"country"`
	CountryCode string  `json:"country_code"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timezone    string  `json:"timezone"`
}

func (p geoPlace) countryLabel() string {
	if p.CountryCode != "" {
		return p.CountryCode
	}
	return p.Country
}

var whitespace = regexp.MustCompile(`\s+`)

// searchCandidates builds fallback query forms for a free-text location:
// the comma-normalized form, the original, and — for multi-word input — the
// first token alone. Geocoding services often miss "Paris France" but hit
// "Paris".
func searchCandidates(location string) []string {
	normalized := strings.ReplaceAll(location, ",", " ")
	normalized = strings.TrimSpace(whitespace.ReplaceAllString(normalized, " "))

	candidates := []string{normalized, location}
	if parts := strings.Fields(normalized); len(parts) > 1 {
		candidates = append(candidates, parts[0])
	}

	seen := make(map[string]bool, len(candidates))
	unique := candidates[:0]
	for _, c := range candidates {
		if c != "" && !seen[c] {
			seen[c] = true
			unique = append(unique, c)
		}
	}
	return unique
}

func (s *Server) geocodeQuery(r *http.Request, query string) ([]geoPlace, error) {
	params := url.Values{
		"name":     {query},
		"count":    {"5"},
		"language": {"en"},
		"format":   {"json"},
	}

	var decoded struct {
		Results []geoPlace `json:"results"`
	}
	if err := s.fetchJSON(r, s.geocodeURL+"?"+params.Encode(), &decoded); err != nil {
		return nil, err
	}
	return decoded.Results, nil
}

// resolveLocation geocodes a free-text location using the candidate fallback
// chain. Returns nil when no candidate produced a hit.
func (s *Server) resolveLocation(r *http.Request, location string) *geoPlace {
	for _, candidate := range searchCandidates(location) {
		results, err := s.geocodeQuery(r, candidate)
		if err != nil {
			continue
		}
		if len(results) > 0 {
			return &results[0]
		}
	}
	return nil
}
