package format

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEscapeText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "plain", input: "hello", expected: "hello"},
		{name: "tags", input: "<script>x</script>", expected: "&lt;script&gt;x&lt;/script&gt;"},
		{name: "ampersand", input: "a & b", expected: "a &amp; b"},
		{name: "quotes", input: `say "hi"`, expected: "say &#34;hi&#34;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EscapeText(tt.input))
		})
	}
}

var entityPattern = regexp.MustCompile(`&(amp|lt|gt|#34|#39);`)

func TestEscapeTextLeavesNoRawMarkup(t *testing.T) {
	inputs := []string{`<a href="x">&</a>`, `""<<>>&&`, `<img src=x onerror="alert(1)">`}
	for _, in := range inputs {
		out := EscapeText(in)
		for _, ch := range []string{"<", ">", `"`} {
			assert.NotContains(t, out, ch, "input %q", in)
		}
		assert.NotContains(t, entityPattern.ReplaceAllString(out, ""), "&", "input %q", in)
	}
}

func TestFormatContent(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "bold and newline", input: "**a** b\nc", expected: "<strong>a</strong> b<br>c"},
		{name: "escape before bold", input: "**<b>**", expected: "<strong>&lt;b&gt;</strong>"},
		{name: "non greedy", input: "**a** and **b**", expected: "<strong>a</strong> and <strong>b</strong>"},
		{name: "unclosed", input: "**a", expected: "**a"},
		{name: "bold does not span lines", input: "**a\nb**", expected: "**a<br>b**"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatContent(tt.input))
		})
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{name: "zero", input: 0, expected: "$0"},
		{name: "default treasury", input: 1000, expected: "$1,000"},
		{name: "fraction", input: 1234.5, expected: "$1,234.5"},
		{name: "rounds to three digits", input: 0.12345, expected: "$0.123"},
		{name: "millions", input: 2500000, expected: "$2,500,000"},
		{name: "negative", input: -1500, expected: "$-1,500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatCurrency(tt.input))
		})
	}
}

func TestLedgerFormatting(t *testing.T) {
	assert.Equal(t, "-$12.5", FormatSpent(12.5))
	assert.Equal(t, "+$3,000", FormatRevenue(3000))
	assert.Equal(t, "+$0", FormatNet(0))
	assert.Equal(t, "+$42", FormatNet(42))
	assert.Equal(t, "$-42", FormatNet(-42))
}

func TestFormatDate(t *testing.T) {
	loc := time.UTC

	got, ok := FormatDate("2025-03-07T14:05:00Z", loc)
	assert.True(t, ok)
	assert.Equal(t, "3/7/2025", got)

	got, ok = FormatDate("2025-12-24T09:00:00.123456", loc)
	assert.True(t, ok)
	assert.Equal(t, "12/24/2025", got)

	_, ok = FormatDate("", loc)
	assert.False(t, ok)

	_, ok = FormatDate("yesterday", loc)
	assert.False(t, ok)
}

func TestFormatDateOnlyIsUTCMidnight(t *testing.T) {
	west := time.FixedZone("UTC-5", -5*60*60)

	got, ok := FormatDate("2025-03-07", west)
	assert.True(t, ok)
	assert.Equal(t, "3/6/2025", got)

	got, ok = FormatDate("2025-03-07", time.UTC)
	assert.True(t, ok)
	assert.Equal(t, "3/7/2025", got)

	got, ok = FormatDate("2025-03-07T00:30", west)
	assert.True(t, ok)
	assert.Equal(t, "3/7/2025", got)
}
