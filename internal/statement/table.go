package statement

import (
	"strings"
	"time"
)

// Cell is one tabular value. Text always holds the displayed value.
// Spreadsheet cells holding a real date carry it in Time with IsTime set,
// and numeric cells carry their stored value in Number with IsNumber set.
type Cell struct {
	Text     string
	Time     time.Time
	IsTime   bool
	Number   float64
	IsNumber bool
}

// TextCell builds a plain text cell.
func TextCell(s string) Cell {
	return Cell{Text: s}
}

// Table is a header row plus data rows in source order.
type Table struct {
	Header []string
	Rows   [][]Cell
}

// cell returns row[idx], or an empty cell for short rows.
func (t *Table) cell(row []Cell, idx int) Cell {
	if idx < 0 || idx >= len(row) {
		return Cell{}
	}
	return row[idx]
}

// newTable builds a Table from string records, using the first non-blank
// record as the header and dropping blank rows.
func newTable(records [][]string) *Table {
	t := &Table{}
	for _, rec := range records {
		if isBlankRecord(rec) {
			continue
		}
		if t.Header == nil {
			t.Header = trimAll(rec)
			continue
		}
		row := make([]Cell, len(rec))
		for i, v := range rec {
			row[i] = TextCell(v)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
