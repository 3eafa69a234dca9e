package toolserver

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// handleTime resolves a location to its timezone and fetches the current
// time for it. Response shape:
//
//	{location: {name, country, lat, lon},
//	 time: {datetime, timezone, utc_offset, abbreviation, dst, ...}}
func (s *Server) handleTime(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Location string `json:"location"`
	}
	if !decodeRequest(w, r, &in) {
		return
	}

	location := strings.TrimSpace(in.Location)
	if location == "" {
		writeError(w, "No location provided")
		return
	}

	place := s.resolveLocation(r, location)
	if place == nil {
		writeError(w, "Location not found: "+location)
		return
	}
	if place.Timezone == "" {
		writeError(w, "Could not determine timezone for: "+location)
		return
	}

	// Timezone names contain slashes ("Europe/Paris"); escape per segment.
	segments := strings.Split(place.Timezone, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}

	var timeData map[string]json.RawMessage
	if err := s.fetchJSON(r, s.timeAPIURL+"/"+strings.Join(segments, "/"), &timeData); err != nil {
		writeError(w, "Time API request failed")
		return
	}
	if _, ok := timeData["datetime"]; !ok {
		writeError(w, "Invalid time data received")
		return
	}

	writeJSON(w, map[string]any{
		"location": map[string]any{
			"name":    place.Name,
			"country": place.countryLabel(),
			"lat":     place.Latitude,
			"lon":     place.Longitude,
		},
		"time": timeData,
	})
}
