package statement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"statement.csv", FormatCSV},
		{"STATEMENT.CSV", FormatCSV},
		{"march.xlsx", FormatExcel},
		{"march.XLS", FormatExcel},
		{"/tmp/upload/bank.pdf", FormatPDF},
		{"notes.txt", FormatText},
		{"README", FormatText},
		{"archive.csv.gz", FormatText},
		{"", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.path))
		})
	}
}

func TestFormat_Tabular(t *testing.T) {
	assert.True(t, FormatCSV.Tabular())
	assert.True(t, FormatExcel.Tabular())
	assert.False(t, FormatPDF.Tabular())
	assert.False(t, FormatText.Tabular())
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name          string
		in            string
		want          float64
		wantDefaulted bool
	}{
		{name: "rupee prefix with thousands", in: "Rs. 1,250.75", want: 1250.75},
		{name: "negative dollars", in: "-$45.00", want: -45},
		{name: "rupee symbol", in: "₹ 2,000", want: 2000},
		{name: "inr suffix", in: "350.50 INR", want: 350.5},
		{name: "lowercase rs", in: "rs 99", want: 99},
		{name: "plain number", in: "-4.50", want: -4.5},
		{name: "surrounding spaces", in: "  12  ", want: 12},
		{name: "negative zero", in: "-0.00", want: 0},
		{name: "not available", in: "N/A", want: 0, wantDefaulted: true},
		{name: "empty", in: "", want: 0, wantDefaulted: true},
		{name: "blank", in: "   ", want: 0, wantDefaulted: true},
		{name: "only a dash", in: "-", want: 0, wantDefaulted: true},
		{name: "two decimal points", in: "1.2.3", want: 0, wantDefaulted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAmount(tt.in)
			assert.Equal(t, tt.want, got.Value)
			assert.Equal(t, tt.wantDefaulted, got.Defaulted)
			if tt.wantDefaulted {
				assert.NotEmpty(t, got.Reason)
			}
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name          string
		cell          Cell
		want          string
		wantDefaulted bool
	}{
		{name: "iso", cell: TextCell("2024-03-05"), want: "2024-03-05"},
		{name: "iso single digits", cell: TextCell("2024-3-5"), want: "2024-03-05"},
		{name: "us slashes", cell: TextCell("03/05/2024"), want: "2024-03-05"},
		{name: "us single digits", cell: TextCell("3/5/2024"), want: "2024-03-05"},
		{name: "padded", cell: TextCell("  2024-01-31 "), want: "2024-01-31"},
		{name: "native date", cell: Cell{Text: "3/5/24", Time: time.Date(2024, 3, 5, 13, 30, 0, 0, time.UTC), IsTime: true}, want: "2024-03-05"},
		{name: "unknown layout kept", cell: TextCell("05 Mar 2024"), want: "05 Mar 2024", wantDefaulted: true},
		{name: "day first kept", cell: TextCell("31/01/2024"), want: "31/01/2024", wantDefaulted: true},
		{name: "blank", cell: TextCell(""), want: "Unknown", wantDefaulted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDate(tt.cell)
			assert.Equal(t, tt.want, got.Value)
			assert.Equal(t, tt.wantDefaulted, got.Defaulted)
		})
	}
}

func TestXLSXCell(t *testing.T) {
	tests := []struct {
		name       string
		shown      string
		raw        string
		wantTime   bool
		wantDate   string
		wantNumber bool
		number     float64
	}{
		{name: "formatted serial date", shown: "3/5/24", raw: "45356", wantTime: true, wantDate: "2024-03-05", wantNumber: true, number: 45356},
		{name: "iso formatted serial date", shown: "2024-03-05", raw: "45356", wantTime: true, wantDate: "2024-03-05", wantNumber: true, number: 45356},
		{name: "month name", shown: "05-Mar-24", raw: "45356", wantTime: true, wantDate: "2024-03-05", wantNumber: true, number: 45356},
		{name: "text date", shown: "2024-03-05", raw: "2024-03-05"},
		{name: "formatted number", shown: "1,250.00", raw: "1250", wantNumber: true, number: 1250},
		{name: "negative number", shown: "-45.00", raw: "-45", wantNumber: true, number: -45},
		{name: "parenthesised negative", shown: "(125.50)", raw: "-125.5", wantNumber: true, number: -125.5},
		{name: "rounded display", shown: "-5", raw: "-4.5", wantNumber: true, number: -4.5},
		{name: "text", shown: "Coffee", raw: "Coffee"},
		{name: "not a number", shown: "NaN", raw: "NaN"},
		{name: "no raw value", shown: "3/5/24", raw: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := xlsxCell(tt.shown, tt.raw)
			assert.Equal(t, tt.shown, c.Text)
			assert.Equal(t, tt.wantTime, c.IsTime)
			if tt.wantTime {
				assert.Equal(t, tt.wantDate, NormalizeDate(c).Value)
			}
			assert.Equal(t, tt.wantNumber, c.IsNumber)
			assert.Equal(t, tt.number, c.Number)
		})
	}
}

func TestXLSCell(t *testing.T) {
	c := xlsCell("2024-03-05T00:00:00Z")
	assert.True(t, c.IsTime)
	assert.Equal(t, "2024-03-05", NormalizeDate(c).Value)

	assert.False(t, c.IsNumber)

	assert.False(t, xlsCell("Groceries").IsTime)
	assert.False(t, xlsCell("Groceries").IsNumber)

	n := xlsCell("-125.5")
	assert.True(t, n.IsNumber)
	assert.Equal(t, -125.5, n.Number)
	assert.Equal(t, "-125.5", n.Text)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abcdef", 3))
	assert.Equal(t, "₹₹", truncateRunes("₹₹₹", 2))
	assert.Equal(t, "short", truncateRunes("short", 40))
	assert.Equal(t, "", truncateRunes("anything", 0))
}
