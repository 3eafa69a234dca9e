package toolserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// handleWeather resolves a location and fetches the current conditions plus
// one day of hourly temperatures. Response shape:
//
//	{location: {name, country, lat, lon},
//	 weather: {current_weather: {...}, hourly: {time: [], temperature_2m: []}}}
func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
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

	params := url.Values{
		"latitude":        {fmt.Sprintf("%g", place.Latitude)},
		"longitude":       {fmt.Sprintf("%g", place.Longitude)},
		"current_weather": {"true"},
		"hourly":          {"temperature_2m,precipitation_probability"},
		"forecast_days":   {"1"},
		"timezone":        {"auto"},
	}

	var forecast map[string]json.RawMessage
	if err := s.fetchJSON(r, s.forecastURL+"?"+params.Encode(), &forecast); err != nil {
		writeError(w, "Weather request failed")
		return
	}
	if _, ok := forecast["current_weather"]; !ok {
		writeError(w, "Invalid weather data received")
		return
	}

	writeJSON(w, map[string]any{
		"location": map[string]any{
			"name":    place.Name,
			"country": place.countryLabel(),
			"lat":     place.Latitude,
			"lon":     place.Longitude,
		},
		"weather": forecast,
	})
}
