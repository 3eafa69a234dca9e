package tools

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Fragment is a renderable tool card. Fragments are view-only: the content of
// a fragment is always re-derived from the persisted reply text, never stored.
type Fragment interface {
	View(width int) string
}

// Renderer turns backend data for one tool into a Fragment. Implementations
// exist per tool (time, weather, finance) and are resolved from the catalog's
// renderer reference when the engine is built.
type Renderer interface {
	Render(data json.RawMessage, call Invocation) (Fragment, error)
}

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("7")).
			Padding(0, 1)

	cardTitleStyle  = lipgloss.NewStyle().Bold(true)
	cardDimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	cardAccentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	cardUpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	cardDownStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	cardErrorStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Foreground(lipgloss.Color("9")).
			Padding(0, 1)
)

// errorFragment is the inline error card shown when a tool fails.
type errorFragment struct {
	message string
}

// ErrorCard builds a renderable error fragment for a failed tool call.
func ErrorCard(message string) Fragment {
	return &errorFragment{message: message}
}

func (f *errorFragment) View(width int) string {
	return cardErrorStyle.Width(cardWidth(width)).Render("⚠ " + sanitize(f.message))
}

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)

// sanitize strips ANSI escapes and control characters from backend-supplied
// text before it is embedded in a card. Tool backends relay third-party API
// content, which must not be able to inject terminal control sequences.
func sanitize(s string) string {
	s = ansiEscape.ReplaceAllString(s, "")
	return strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, s)
}

// cardWidth clamps the card to a readable width inside the chat column.
func cardWidth(available int) int {
	w := available - 2
	if w > 56 {
		w = 56
	}
	if w < 24 {
		w = 24
	}
	return w
}

func truncateCell(s string, max int) string {
	if runewidth.StringWidth(s) <= max {
		return s
	}
	return runewidth.Truncate(s, max, "...")
}

// formatPrice renders a number with thousands separators and two decimals,
// matching the en-US convention the finance card uses.
func formatPrice(v float64) string {
	s := fmt.Sprintf("%.2f", v)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	dot := strings.Index(s, ".")
	whole, frac := s[:dot], s[dot:]

	var b strings.Builder
	for i, ch := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}

	out := b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}

func formatVolume(n int64) string {
	switch {
	case n >= 1e9:
		return fmt.Sprintf("%.2fB", float64(n)/1e9)
	case n >= 1e6:
		return fmt.Sprintf("%.2fM", float64(n)/1e6)
	case n >= 1e3:
		return fmt.Sprintf("%.1fK", float64(n)/1e3)
	default:
		return fmt.Sprintf("%d", n)
	}
}

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// sparkline renders a min-max normalized series as block characters, one
// column per value.
func sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	minV, maxV := values[0], values[0]
	for _, v := range values {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	span := maxV - minV
	if span == 0 {
		span = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int((v - minV) / span * float64(len(sparkLevels)-1))
		b.WriteRune(sparkLevels[idx])
	}
	return b.String()
}

// resample reduces a series to at most n points by picking evenly spaced
// samples, keeping the first and last values.
func resample(values []float64, n int) []float64 {
	if len(values) <= n || n < 2 {
		return values
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		pos := float64(i) * float64(len(values)-1) / float64(n-1)
		out[i] = values[int(pos+0.5)]
	}
	return out
}
