package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Candidate is one symbol-search result from the finance backend.
type Candidate struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Exchange string `json:"exchange"`
}

// Quote is one bar of chart data. Close is always present; the backend drops
// bars without a close.
type Quote struct {
	Timestamp int64    `json:"timestamp"`
	Open      *float64 `json:"open"`
	High      *float64 `json:"high"`
	Low       *float64 `json:"low"`
	Close     float64  `json:"close"`
	Volume    *int64   `json:"volume"`
}

// ChartMeta carries the subset of Yahoo Finance chart metadata the card uses.
type ChartMeta struct {
	Symbol               string   `json:"symbol"`
	Currency             string   `json:"currency"`
	ShortName            string   `json:"shortName"`
	LongName             string   `json:"longName"`
	RegularMarketPrice   *float64 `json:"regularMarketPrice"`
	ChartPreviousClose   *float64 `json:"chartPreviousClose"`
	PreviousClose        *float64 `json:"previousClose"`
	RegularMarketOpen    *float64 `json:"regularMarketOpen"`
	RegularMarketDayHigh *float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow  *float64 `json:"regularMarketDayLow"`
	FiftyTwoWeekHigh     *float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow      *float64 `json:"fiftyTwoWeekLow"`
	RegularMarketVolume  *int64   `json:"regularMarketVolume"`
}

// ChartData is the finance backend's chart response.
type ChartData struct {
	Symbol string    `json:"symbol"`
	Meta   ChartMeta `json:"meta"`
	Quotes []Quote   `json:"quotes"`
}

type financeState int

const (
	financeConfirm financeState = iota
	financeLoading
	financeChart
	financeError
)

const maxCandidates = 5

// tickerPattern matches queries that look like a bare ticker symbol.
var tickerPattern = regexp.MustCompile(`^[A-Z0-9.\-^=]{1,10}$`)

// FinanceRenderer renders finance symbol-search results. Unlike the time and
// weather cards it is not a one-shot view: the returned FinanceCard is a
// state machine that starts in either direct (loading) or confirmation mode
// and later updates in place once chart data arrives.
type FinanceRenderer struct {
	Dispatcher *Dispatcher
}

type financeSearchPayload struct {
	Candidates []Candidate `json:"candidates"`
}

// Render decides between direct mode and confirmation mode. Direct mode is
// used when the top candidate's symbol equals the query case-insensitively,
// or the query looks like a bare ticker; either way the top candidate's chart
// is fetched without asking. Otherwise the card lists up to five candidates
// for the user to pick from.
func (r *FinanceRenderer) Render(data json.RawMessage, call Invocation) (Fragment, error) {
	var payload financeSearchPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid finance data: %w", err)
	}
	if len(payload.Candidates) == 0 {
		return nil, &DomainError{Message: "No matching symbols found."}
	}

	card := &FinanceCard{
		dispatcher: r.Dispatcher,
		endpoint:   call.Endpoint,
		query:      call.Get("query"),
		chartRange: orDefault(call.Get("range"), "1mo"),
		interval:   orDefault(call.Get("interval"), "1d"),
	}

	queryUpper := strings.ToUpper(strings.TrimSpace(card.query))
	top := payload.Candidates[0]

	if strings.ToUpper(top.Symbol) == queryUpper || tickerPattern.MatchString(queryUpper) {
		card.state = financeLoading
		card.pendingSymbol = top.Symbol
		card.pendingName = top.Name
	} else {
		card.state = financeConfirm
		card.candidates = payload.Candidates
		if len(card.candidates) > maxCandidates {
			card.candidates = card.candidates[:maxCandidates]
		}
	}

	return card, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// FinanceCard is the finance tool's interactive fragment. Transitions:
//
//	confirm --Choose--> loading --ApplyChart--> chart | error
//	loading --ApplyChart--> chart | error
//
// Fetching happens off the event loop (FetchChart); state transitions happen
// on it (Choose, ApplyChart), so View never races a mutation.
type FinanceCard struct {
	dispatcher *Dispatcher
	endpoint   string

	state      financeState
	query      string
	chartRange string
	interval   string

	candidates []Candidate
	cursor     int

	pendingSymbol string
	pendingName   string

	chart  *ChartData
	errMsg string
}

// AwaitingChoice reports whether the card is showing the confirmation list.
func (c *FinanceCard) AwaitingChoice() bool {
	return c.state == financeConfirm
}

// PendingFetch returns the symbol whose chart should be fetched, if the card
// is in loading state without data yet.
func (c *FinanceCard) PendingFetch() (string, bool) {
	if c.state == financeLoading && c.chart == nil {
		return c.pendingSymbol, true
	}
	return "", false
}

// MoveCursor moves the confirmation-list cursor, clamped to the list.
func (c *FinanceCard) MoveCursor(delta int) {
	if c.state != financeConfirm {
		return
	}
	c.cursor += delta
	if c.cursor < 0 {
		c.cursor = 0
	}
	if c.cursor >= len(c.candidates) {
		c.cursor = len(c.candidates) - 1
	}
}

// Choose picks a candidate by index (negative for the cursor position) and
// moves the card into loading state. Returns the symbol to fetch.
func (c *FinanceCard) Choose(index int) (string, bool) {
	if c.state != financeConfirm {
		return "", false
	}
	if index < 0 {
		index = c.cursor
	}
	if index >= len(c.candidates) {
		return "", false
	}

	picked := c.candidates[index]
	c.state = financeLoading
	c.pendingSymbol = picked.Symbol
	c.pendingName = picked.Name
	return picked.Symbol, true
}

// FetchChart retrieves chart data for a symbol from the finance backend.
// It does not mutate the card; pass the result to ApplyChart on the event
// loop.
func (c *FinanceCard) FetchChart(ctx context.Context, symbol string) (*ChartData, error) {
	raw, err := c.dispatcher.Dispatch(ctx, c.endpoint, map[string]any{
		"action":   "chart",
		"symbol":   symbol,
		"range":    c.chartRange,
		"interval": c.interval,
	})
	if err != nil {
		return nil, err
	}

	var chart ChartData
	if err := json.Unmarshal(raw, &chart); err != nil {
		return nil, fmt.Errorf("invalid chart data: %w", err)
	}
	return &chart, nil
}

// ApplyChart installs fetched chart data (or the fetch failure) into the card.
func (c *FinanceCard) ApplyChart(chart *ChartData, err error) {
	if err != nil {
		c.state = financeError
		c.errMsg = err.Error()
		return
	}
	c.state = financeChart
	c.chart = chart
}

func (c *FinanceCard) View(width int) string {
	w := cardWidth(width)

	switch c.state {
	case financeConfirm:
		return c.viewConfirm(w)
	case financeLoading:
		return cardStyle.Width(w).Render(cardDimStyle.Render(fmt.Sprintf("Loading %s…", sanitize(c.pendingSymbol))))
	case financeError:
		return cardErrorStyle.Width(w).Render("⚠ Finance error: " + sanitize(c.errMsg))
	default:
		return c.viewChart(w)
	}
}

func (c *FinanceCard) viewConfirm(w int) string {
	lines := []string{
		cardTitleStyle.Render("Which did you mean?"),
		cardDimStyle.Render(fmt.Sprintf("Results for %q", sanitize(c.query))),
		"",
	}

	for i, cand := range c.candidates {
		indicator := "  "
		if i == c.cursor {
			indicator = "▶ "
		}

		meta := cand.Type
		if cand.Exchange != "" {
			meta += " · " + cand.Exchange
		}

		row := fmt.Sprintf("%s%d. %-8s %s",
			indicator, i+1,
			sanitize(cand.Symbol),
			truncateCell(sanitize(cand.Name), w-20))
		if i == c.cursor {
			row = cardAccentStyle.Bold(true).Render(row)
		}
		lines = append(lines, row, "      "+cardDimStyle.Render(sanitize(meta)))
	}

	lines = append(lines, "", cardDimStyle.Render("1-5 or enter to select · Data via Yahoo Finance"))
	return cardStyle.Width(w).Render(strings.Join(lines, "\n"))
}

func (c *FinanceCard) viewChart(w int) string {
	chart := c.chart
	meta := chart.Meta

	symbol := meta.Symbol
	if symbol == "" {
		symbol = chart.Symbol
	}

	name := meta.LongName
	if name == "" {
		name = meta.ShortName
	}
	if name == "" {
		name = c.pendingName
	}

	currency := meta.Currency
	if currency == "" {
		currency = "USD"
	}

	price := 0.0
	if meta.RegularMarketPrice != nil {
		price = *meta.RegularMarketPrice
	} else if len(chart.Quotes) > 0 {
		price = chart.Quotes[len(chart.Quotes)-1].Close
	}

	prevClose := meta.ChartPreviousClose
	if prevClose == nil {
		prevClose = meta.PreviousClose
	}

	lines := []string{
		cardTitleStyle.Render(sanitize(symbol)) + "  " + cardDimStyle.Render(truncateCell(sanitize(name), w-12)),
		cardAccentStyle.Bold(true).Render(formatPrice(price)) + " " + cardDimStyle.Render(sanitize(currency)),
	}

	up := true
	if prevClose != nil {
		change := price - *prevClose
		changePct := change / *prevClose * 100
		up = change >= 0

		arrow, style := "▲", cardUpStyle
		if !up {
			arrow, style = "▼", cardDownStyle
		}
		lines = append(lines, style.Render(fmt.Sprintf("%s %s (%.2f%%)",
			arrow, formatPrice(abs(change)), abs(changePct))))
	}

	if len(chart.Quotes) >= 2 {
		closes := make([]float64, len(chart.Quotes))
		for i, q := range chart.Quotes {
			closes[i] = q.Close
		}
		style := cardUpStyle
		if !up {
			style = cardDownStyle
		}
		lines = append(lines,
			"",
			style.Render(sparkline(resample(closes, w-6))),
			cardDimStyle.Render(c.chartRange),
		)
	}

	var metaRows []string
	addRow := func(label string, v *float64) {
		if v != nil {
			metaRows = append(metaRows, fmt.Sprintf("%-9s %s", label, formatPrice(*v)))
		}
	}
	addRow("Open", meta.RegularMarketOpen)
	addRow("High", meta.RegularMarketDayHigh)
	addRow("Low", meta.RegularMarketDayLow)
	addRow("52w High", meta.FiftyTwoWeekHigh)
	addRow("52w Low", meta.FiftyTwoWeekLow)
	if meta.RegularMarketVolume != nil {
		metaRows = append(metaRows, fmt.Sprintf("%-9s %s", "Volume", formatVolume(*meta.RegularMarketVolume)))
	}
	if len(metaRows) > 0 {
		lines = append(lines, "")
		for _, row := range metaRows {
			lines = append(lines, cardDimStyle.Render(row))
		}
	}

	lines = append(lines, "", cardDimStyle.Render("Data via Yahoo Finance · finance.yahoo.com"))
	return cardStyle.Width(w).Render(strings.Join(lines, "\n"))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
