// Package format turns raw upstream text and numbers into HTML-safe
// fragments for the viewer page.
package format

import (
	"html"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

var boldPattern = regexp.MustCompile(`\*\*(.+?)\*\*`)

// EscapeText neutralizes every HTML-significant character in s.
func EscapeText(s string) string {
	if s == "" {
		return ""
	}
	return html.EscapeString(s)
}

// FormatContent escapes s, then expands **bold** spans and line breaks.
// Escaping runs first so the inserted tags survive untouched.
func FormatContent(s string) string {
	if s == "" {
		return ""
	}
	out := EscapeText(s)
	out = boldPattern.ReplaceAllString(out, "<strong>${1}</strong>")
	return strings.ReplaceAll(out, "\n", "<br>")
}

// FormatNumber groups thousands the en-US way and keeps at most three
// fraction digits.
func FormatNumber(n float64) string {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return "0"
	}
	rounded := math.Round(n*1000) / 1000
	if rounded == 0 {
		rounded = 0 // drop negative zero
	}
	return humanize.Commaf(rounded)
}

// FormatCurrency renders n as a dollar amount, e.g. 1234.5 -> "$1,234.5".
func FormatCurrency(n float64) string {
	return "$" + FormatNumber(n)
}

// FormatSpent renders a ledger spend total.
func FormatSpent(n float64) string {
	return "-" + FormatCurrency(n)
}

// FormatRevenue renders a ledger revenue total.
func FormatRevenue(n float64) string {
	return "+" + FormatCurrency(n)
}

// FormatNet renders the net change. Non-negative values get an explicit
// plus sign; negative values keep the sign inside the amount ("$-50").
func FormatNet(n float64) string {
	if n >= 0 {
		return "+" + FormatCurrency(n)
	}
	return FormatCurrency(n)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

const dateOnlyLayout = "2006-01-02"

// FormatDate renders a started_at timestamp as an en-US short date in
// loc. It reports false when raw is empty or unparseable.
func FormatDate(raw string, loc *time.Location) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if loc == nil {
		loc = time.Local
	}
	// a bare date is midnight UTC, shown in loc
	if t, err := time.Parse(dateOnlyLayout, raw); err == nil {
		return t.In(loc).Format("1/2/2006"), true
	}
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, raw, loc)
		if err == nil {
			return t.In(loc).Format("1/2/2006"), true
		}
	}
	return "", false
}
