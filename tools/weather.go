package tools

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// WeatherRenderer renders open-meteo style forecast data as a weather card.
// The now field is injectable for tests; the hourly outlook is anchored at
// the current wall-clock hour.
type WeatherRenderer struct {
	Now func() time.Time
}

type weatherPayload struct {
	Location locationInfo `json:"location"`
	Weather  struct {
		CurrentWeather struct {
			Temperature   float64 `json:"temperature"`
			Windspeed     float64 `json:"windspeed"`
			Winddirection float64 `json:"winddirection"`
			Weathercode   int     `json:"weathercode"`
			IsDay         int     `json:"is_day"`
		} `json:"current_weather"`
		Hourly struct {
			Time          []string  `json:"time"`
			Temperature2M []float64 `json:"temperature_2m"`
		} `json:"hourly"`
	} `json:"weather"`
}

type hourlyPoint struct {
	hour int
	temp float64
}

type weatherFragment struct {
	city        string
	description string
	icon        string
	temperature float64
	windspeed   float64
	windDir     string
	high, low   float64
	hasRange    bool
	outlook     []hourlyPoint
}

func (r *WeatherRenderer) Render(data json.RawMessage, call Invocation) (Fragment, error) {
	var payload weatherPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid weather data: %w", err)
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	current := payload.Weather.CurrentWeather
	hourly := payload.Weather.Hourly

	frag := &weatherFragment{
		city:        payload.Location.label(),
		description: wmoDescription(current.Weathercode),
		icon:        wmoIcon(current.Weathercode, current.IsDay == 1),
		temperature: current.Temperature,
		windspeed:   current.Windspeed,
		windDir:     windDirection(current.Winddirection),
	}

	if len(hourly.Temperature2M) > 0 {
		todayTemps := hourly.Temperature2M
		if len(todayTemps) > 24 {
			todayTemps = todayTemps[:24]
		}
		frag.high, frag.low = todayTemps[0], todayTemps[0]
		for _, t := range todayTemps {
			if t > frag.high {
				frag.high = t
			}
			if t < frag.low {
				frag.low = t
			}
		}
		frag.hasRange = true
	}

	// Forward-looking 12-hour band starting at the current wall-clock hour.
	// Hourly times from the backend are naive local times for the location;
	// comparing them in the process-local zone mirrors how a browser client
	// anchors the band, and keeps the outlook aligned to "now".
	cutoff := now()
	for i := 0; i < len(hourly.Time) && i < len(hourly.Temperature2M) && len(frag.outlook) < 12; i++ {
		t, err := time.ParseInLocation("2006-01-02T15:04", hourly.Time[i], cutoff.Location())
		if err != nil {
			continue
		}
		if !t.Before(cutoff) {
			frag.outlook = append(frag.outlook, hourlyPoint{hour: t.Hour(), temp: hourly.Temperature2M[i]})
		}
	}

	return frag, nil
}

func (f *weatherFragment) View(width int) string {
	w := cardWidth(width)

	lines := []string{
		cardTitleStyle.Render(f.icon + " " + sanitize(f.city)),
		cardDimStyle.Render(f.description),
		"",
		cardAccentStyle.Bold(true).Render(fmt.Sprintf("%.0f°C", f.temperature)),
	}

	meta := fmt.Sprintf("💨 %.0f km/h %s", f.windspeed, f.windDir)
	if f.hasRange {
		meta = fmt.Sprintf("H: %.1f°  L: %.1f°   %s", f.high, f.low, meta)
	}
	lines = append(lines, meta)

	if len(f.outlook) > 0 {
		temps := make([]float64, len(f.outlook))
		for i, p := range f.outlook {
			temps[i] = p.temp
		}
		lines = append(lines,
			"",
			cardDimStyle.Render("Next 12 hours"),
			cardAccentStyle.Render(sparkline(temps)),
			cardDimStyle.Render(fmt.Sprintf("%s → %s",
				hourLabel(f.outlook[0].hour), hourLabel(f.outlook[len(f.outlook)-1].hour))),
		)
	}

	lines = append(lines, "", cardDimStyle.Render("via Open-Meteo · open-meteo.com"))

	return cardStyle.Width(w).Render(strings.Join(lines, "\n"))
}

func hourLabel(hr int) string {
	switch {
	case hr == 0:
		return "12a"
	case hr < 12:
		return fmt.Sprintf("%da", hr)
	case hr == 12:
		return "12p"
	default:
		return fmt.Sprintf("%dp", hr-12)
	}
}

// wmoDescription maps a WMO weather code to a short human description.
func wmoDescription(code int) string {
	descriptions := map[int]string{
		0:  "Clear sky",
		1:  "Mainly clear",
		2:  "Partly cloudy",
		3:  "Overcast",
		45: "Foggy",
		48: "Icy fog",
		51: "Light drizzle",
		53: "Moderate drizzle",
		55: "Dense drizzle",
		61: "Slight rain",
		63: "Moderate rain",
		65: "Heavy rain",
		71: "Slight snow",
		73: "Moderate snow",
		75: "Heavy snow",
		80: "Slight showers",
		81: "Moderate showers",
		82: "Violent showers",
		95: "Thunderstorm",
		96: "Thunderstorm + hail",
		99: "Thunderstorm + heavy hail",
	}
	if desc, ok := descriptions[code]; ok {
		return desc
	}
	return "Unknown conditions"
}

func wmoIcon(code int, isDay bool) string {
	switch {
	case code == 0:
		if isDay {
			return "☀️"
		}
		return "🌙"
	case code <= 2:
		if isDay {
			return "⛅"
		}
		return "🌤️"
	case code == 3:
		return "☁️"
	case code <= 48:
		return "🌫️"
	case code <= 55:
		return "🌦️"
	case code <= 65:
		return "🌧️"
	case code <= 75:
		return "❄️"
	case code <= 82:
		return "🌩️"
	default:
		return "⛈️"
	}
}

func windDirection(deg float64) string {
	dirs := []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}
	return dirs[int(deg/45+0.5)%8]
}
