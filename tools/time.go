package tools

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimeRenderer renders the time tool's backend payload as a clock card.
type TimeRenderer struct{}

type timePayload struct {
	Location locationInfo `json:"location"`
	Time     struct {
		Datetime     string `json:"datetime"`
		Timezone     string `json:"timezone"`
		UTCOffset    string `json:"utc_offset"`
		Abbreviation string `json:"abbreviation"`
		DST          bool   `json:"dst"`
	} `json:"time"`
}

type locationInfo struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func (l locationInfo) label() string {
	if l.Country != "" {
		return l.Name + ", " + l.Country
	}
	return l.Name
}

type timeFragment struct {
	city      string
	timezone  string
	timeStr   string
	dateStr   string
	utcOffset string
	abbrev    string
	dst       bool
}

var trailingOffset = regexp.MustCompile(`[+-]\d{2}:\d{2}$`)

// Render formats the backend's ISO-8601 datetime-with-offset into localized
// 12-hour time and weekday/date strings. The components are taken numerically
// from the string rather than parsed into a local time.Time: the datetime is
// already in the requested location's zone, and routing it through the local
// zone would convert it twice.
func (r *TimeRenderer) Render(data json.RawMessage, call Invocation) (Fragment, error) {
	var payload timePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid time data: %w", err)
	}

	datePart, timePart, ok := strings.Cut(payload.Time.Datetime, "T")
	if !ok {
		return nil, fmt.Errorf("invalid time data: malformed datetime %q", payload.Time.Datetime)
	}

	dateFields := strings.Split(datePart, "-")
	if len(dateFields) != 3 {
		return nil, fmt.Errorf("invalid time data: malformed date %q", datePart)
	}
	year, _ := strconv.Atoi(dateFields[0])
	month, _ := strconv.Atoi(dateFields[1])
	day, _ := strconv.Atoi(dateFields[2])

	timeOnly := trailingOffset.ReplaceAllString(timePart, "")
	timeOnly = strings.TrimSuffix(timeOnly, "Z")
	timeFields := strings.Split(timeOnly, ":")
	if len(timeFields) < 2 {
		return nil, fmt.Errorf("invalid time data: malformed time %q", timePart)
	}
	hour, _ := strconv.Atoi(timeFields[0])
	minute, _ := strconv.Atoi(timeFields[1])
	second := 0
	if len(timeFields) > 2 {
		secFloat, _ := strconv.ParseFloat(timeFields[2], 64)
		second = int(secFloat)
	}

	h12 := hour % 12
	if h12 == 0 {
		h12 = 12
	}
	ampm := "AM"
	if hour >= 12 {
		ampm = "PM"
	}

	// Weekday from the calendar date alone; UTC keeps the local zone out of it.
	weekday := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Weekday()

	return &timeFragment{
		city:      payload.Location.label(),
		timezone:  payload.Time.Timezone,
		timeStr:   fmt.Sprintf("%d:%02d:%02d %s", h12, minute, second, ampm),
		dateStr:   fmt.Sprintf("%s, %s %d, %d", weekday, time.Month(month), day, year),
		utcOffset: payload.Time.UTCOffset,
		abbrev:    payload.Time.Abbreviation,
		dst:       payload.Time.DST,
	}, nil
}

func (f *timeFragment) View(width int) string {
	w := cardWidth(width)

	dstBadge := "Standard time"
	if f.dst {
		dstBadge = "DST active"
	}

	lines := []string{
		cardTitleStyle.Render("🕐 " + sanitize(f.city)),
		cardDimStyle.Render(sanitize(f.timezone)),
		"",
		cardAccentStyle.Bold(true).Render(f.timeStr),
		f.dateStr,
		"",
		cardDimStyle.Render(fmt.Sprintf("UTC %s · %s · %s", sanitize(f.utcOffset), sanitize(f.abbrev), dstBadge)),
		cardDimStyle.Render("via Time.Now · time.now"),
	}

	return cardStyle.Width(w).Render(strings.Join(lines, "\n"))
}
