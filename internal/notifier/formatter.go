package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"StockPredictor/internal/exporter"
	"StockPredictor/internal/model"
	"StockPredictor/internal/tracker"
)

// Style selects the markup used by the formatters.
type Style int

const (
	StyleHTML  Style = iota // Telegram parse_mode=HTML
	StylePlain              // terminal output
)

func (s Style) bold(text string) string {
	if s == StyleHTML {
		return "<b>" + text + "</b>"
	}
	return text
}

func (s Style) escape(text string) string {
	if s == StyleHTML {
		return html.EscapeString(text)
	}
	return text
}

func fixed(v model.Value, places int32) string {
	f, ok := v.Get()
	if !ok {
		return "N/A"
	}
	return decimal.NewFromFloat(f).StringFixed(places)
}

func signed(v model.Value, places int32) string {
	f, ok := v.Get()
	if !ok {
		return "N/A"
	}
	d := decimal.NewFromFloat(f)
	if d.IsPositive() {
		return "+" + d.StringFixed(places)
	}
	return d.StringFixed(places)
}

func actionIcon(a model.Action) string {
	switch a {
	case model.ActionBuy:
		return "🟢"
	case model.ActionSell:
		return "🔴"
	default:
		return "⚪"
	}
}

func zoneIcon(z model.RSIZone) string {
	switch z {
	case model.ZoneOversold:
		return "🟩"
	case model.ZoneOverbought:
		return "🟥"
	default:
		return "🟨"
	}
}

// FormatAnalysisReport formats one analysis and an optional table of recent rows.
func FormatAnalysisReport(a *model.Analysis, table *exporter.Table, style Style) string {
	var b strings.Builder
	ind := a.Indicators
	sig := a.Signal

	b.WriteString(fmt.Sprintf("📊 %s | %s\n", style.bold(style.escape(a.Symbol)), ind.Date.Format("2006-01-02")))
	if p := a.Profile; p != nil {
		b.WriteString(style.escape(fmt.Sprintf("%s | %s | Mkt cap %s | P/E %s",
			p.Name, orNA(p.Sector), marketCap(p.MarketCap), positive(p.TrailingPE))) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("Close: %s (%s, %s%%)\n",
		fixed(model.Some(ind.Close), 2), signed(ind.Change, 2), signed(ind.ChangePct, 2)))
	b.WriteString(fmt.Sprintf("52w range: %.2f - %.2f (position %.0f%%)\n",
		ind.Low52w, ind.High52w, ind.Position52w*100))

	windows := make([]int, 0, len(ind.SMA))
	for w := range ind.SMA {
		windows = append(windows, w)
	}
	sort.Ints(windows)
	parts := make([]string, 0, len(windows))
	for _, w := range windows {
		parts = append(parts, fmt.Sprintf("SMA%d %s", w, fixed(ind.SMA[w], 2)))
	}
	if len(parts) > 0 {
		b.WriteString(strings.Join(parts, " | ") + "\n")
	}
	b.WriteString(fmt.Sprintf("Volatility(20): %s\n\n", fixed(ind.Volatility, 4)))

	b.WriteString(style.bold("Indicators:") + "\n")
	b.WriteString(fmt.Sprintf("  RSI: %s %s %s\n", fixed(ind.RSI, 2), zoneIcon(sig.Zone), sig.Zone))
	b.WriteString(fmt.Sprintf("  MACD: %s | Signal: %s | Hist: %s\n",
		fixed(ind.MACD, 4), fixed(ind.MACDSignal, 4), signed(ind.MACDHistogram, 4)))
	if ind.NextReturn.Defined() {
		b.WriteString(fmt.Sprintf("  Next-day return (%s): %s%% → Target %s\n",
			ind.LabelDate.Format("2006-01-02"),
			signed(model.Some(ind.NextReturn.Or(0)*100), 2), fixed(ind.Target, 0)))
	}

	b.WriteString(fmt.Sprintf("\n%s %s %s\n", actionIcon(sig.Action), style.bold("Signal: "+string(sig.Action)), style.escape(sig.Reason)))

	if table != nil && len(table.Rows) > 0 {
		b.WriteString("\n" + style.bold(fmt.Sprintf("Last %d rows:", len(table.Rows))) + "\n")
		if style == StyleHTML {
			b.WriteString("<pre>" + html.EscapeString(FormatTable(table)) + "</pre>\n")
		} else {
			b.WriteString(FormatTable(table))
		}
	}
	return b.String()
}

// FormatProfile formats a company profile. Ratios that are missing or not
// positive print as N/A.
func FormatProfile(p *model.CompanyProfile, style Style) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🏢 %s (%s)\n\n", style.bold(style.escape(p.Name)), style.escape(p.Symbol)))

	line := func(label, value string) {
		b.WriteString(fmt.Sprintf("%s: %s\n", label, style.escape(value)))
	}
	line("Sector", orNA(p.Sector))
	line("Industry", orNA(p.Industry))
	line("Country", orNA(p.Country))
	if p.Employees > 0 {
		line("Employees", decimal.NewFromInt(p.Employees).String())
	} else {
		line("Employees", "N/A")
	}
	line("Website", orNA(p.Website))
	line("Market cap", marketCap(p.MarketCap))

	b.WriteString("\n" + style.bold("Valuation:") + "\n")
	line("  P/E (trailing)", positive(p.TrailingPE))
	line("  P/E (forward)", positive(p.ForwardPE))
	line("  EPS (trailing)", nonZero(p.TrailingEPS))
	line("  EPS (forward)", nonZero(p.ForwardEPS))
	line("  PEG", positive(p.PEGRatio))
	line("  P/B", positive(p.PriceToBook))
	line("  Profit margin", percent(p.ProfitMargin))
	line("  ROE", percent(p.ReturnOnEq))
	line("  Dividend yield", percent(p.DividendYield))
	if p.High52w.Defined() && p.Low52w.Defined() {
		line("  52w range", fixed(p.Low52w, 2)+" - "+fixed(p.High52w, 2))
	}

	if p.Summary != "" {
		b.WriteString("\n" + style.escape(p.Summary) + "\n")
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func positive(v model.Value) string {
	if v.Or(0) <= 0 {
		return "N/A"
	}
	return fixed(v, 2)
}

func nonZero(v model.Value) string {
	if v.Or(0) == 0 {
		return "N/A"
	}
	return fixed(v, 2)
}

func percent(v model.Value) string {
	if !v.Defined() {
		return "N/A"
	}
	return fixed(model.Some(v.Or(0)*100), 2) + "%"
}

// marketCap abbreviates to T, B or M with two decimals.
func marketCap(v model.Value) string {
	f := v.Or(0)
	switch {
	case f <= 0:
		return "N/A"
	case f >= 1e12:
		return "$" + fixed(model.Some(f/1e12), 2) + "T"
	case f >= 1e9:
		return "$" + fixed(model.Some(f/1e9), 2) + "B"
	case f >= 1e6:
		return "$" + fixed(model.Some(f/1e6), 2) + "M"
	default:
		return "$" + decimal.NewFromFloat(f).StringFixed(0)
	}
}

// FormatTable renders a row table as fixed-width text.
func FormatTable(t *exporter.Table) string {
	header := append([]string{"Date"}, t.Columns...)
	cells := make([][]string, 0, len(t.Rows)+1)
	cells = append(cells, header)
	for _, r := range t.Rows {
		line := make([]string, 0, len(header))
		line = append(line, r.Date)
		for _, v := range r.Values {
			line = append(line, fixed(v, exporter.TablePlaces))
		}
		cells = append(cells, line)
	}

	widths := make([]int, len(header))
	for _, line := range cells {
		for i, c := range line {
			if len(c) > widths[i] {
				widths[i] = len(c)
			}
		}
	}

	var b strings.Builder
	for _, line := range cells {
		for i, c := range line {
			if i > 0 {
				b.WriteString("  ")
			}
			if i == 0 {
				b.WriteString(c + strings.Repeat(" ", widths[i]-len(c)))
			} else {
				b.WriteString(strings.Repeat(" ", widths[i]-len(c)) + c)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatTransition describes a signal relative to the previous session.
func FormatTransition(tr tracker.Transition, style Style) string {
	switch {
	case tr.Previous == "":
		return fmt.Sprintf("🆕 First signal for %s: %s", style.escape(tr.Symbol), tr.Current)
	case tr.Changed:
		return fmt.Sprintf("🔔 %s %s → %s", style.bold("Signal changed:"), tr.Previous, tr.Current)
	default:
		return fmt.Sprintf("%s unchanged for %d sessions", tr.Current, tr.Streak)
	}
}

// FormatError formats a failed analysis run.
func FormatError(symbol string, err error, style Style) string {
	return fmt.Sprintf("⚠️ %s: %s", style.bold(style.escape(symbol)), style.escape(err.Error()))
}

// FormatWatchlist lists the configured symbols.
func FormatWatchlist(symbols []string, cron string, style Style) string {
	var b strings.Builder
	b.WriteString("📋 " + style.bold("Watchlist") + "\n\n")
	for _, s := range symbols {
		b.WriteString("  • " + style.escape(s) + "\n")
	}
	if cron != "" {
		b.WriteString(fmt.Sprintf("\nDaily run: %s\n", style.escape(cron)))
	}
	return b.String()
}

// HelpText lists the supported commands.
func HelpText() string {
	return "Commands:\n" +
		"/signal SYMBOL - analyse a symbol now\n" +
		"/info SYMBOL - company profile\n" +
		"/watchlist - show watched symbols\n" +
		"/help - this message"
}
