package statement

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// maxExcelSerial is 9999-12-31, the last date Excel can represent.
const maxExcelSerial = 2958465

// dateLikeRe matches displayed spreadsheet values such as "3/5/24",
// "2024-03-05", "05-Mar-24" or "Mar 5, 2024".
var dateLikeRe = regexp.MustCompile(`^(\d{1,4}[-/. ][A-Za-z0-9]{1,9}[-/. ,]+\d{1,4}|[A-Za-z]{3,9}[-/. ]\d{1,2}\b)`)

// readTable loads a tabular statement from disk.
func readTable(path string, format Format) (*Table, error) {
	switch format {
	case FormatCSV:
		return readCSV(path)
	case FormatExcel:
		if strings.EqualFold(filepath.Ext(path), ".xls") {
			return readXLS(path)
		}
		return readXLSX(path)
	default:
		return nil, fmt.Errorf("readTable: %s is not a tabular format", format)
	}
}

// newDecodingReader strips a leading BOM, converting UTF-16 input to UTF-8.
// Input without a BOM is passed through untouched.
func newDecodingReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(encoding.Nop.NewDecoder()))
}

func readCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("readCSV: open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(newDecodingReader(f))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("readCSV: parse %q: %w", path, err)
	}

	return newTable(records), nil
}

func readXLSX(path string) (table *Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("readXLSX: spreadsheet library crashed: %v", r)
		}
	}()

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("readXLSX: open %q: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &Table{}, nil
	}

	shown, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("readXLSX: read rows: %w", err)
	}
	raw, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("readXLSX: read raw rows: %w", err)
	}

	table = &Table{}
	for i, rec := range shown {
		if isBlankRecord(rec) {
			continue
		}
		if table.Header == nil {
			table.Header = trimAll(rec)
			continue
		}
		var rawRec []string
		if i < len(raw) {
			rawRec = raw[i]
		}
		row := make([]Cell, len(rec))
		for j, v := range rec {
			row[j] = xlsxCell(v, valueAt(rawRec, j))
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// xlsxCell keeps the stored value of numeric cells, so number formats such
// as "(#,##0.00)" or "#,##0" cannot change an amount. Date cells are numeric
// cells whose displayed value is formatted as a date.
func xlsxCell(shown, raw string) Cell {
	c := TextCell(shown)
	n, isNumber := storedNumber(raw)
	if !isNumber {
		return c
	}
	c.Number = n
	c.IsNumber = true

	if raw == shown || n <= 0 || n > maxExcelSerial || !dateLikeRe.MatchString(strings.TrimSpace(shown)) {
		return c
	}

	t, err := excelize.ExcelDateToTime(n, false)
	if err != nil {
		return c
	}
	c.Time = t
	c.IsTime = true
	return c
}

// storedNumber parses a raw spreadsheet value. Text and non-finite values
// are not numbers.
func storedNumber(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func readXLS(path string) (table *Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("readXLS: spreadsheet library crashed: %v", r)
		}
	}()

	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("readXLS: open %q: %w", path, err)
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return &Table{}, nil
	}

	table = &Table{}
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := xlsRow(sheet, i)
		if row == nil {
			continue
		}
		// rows written without a ROW record report no columns
		width := row.LastCol()
		if len(table.Header) > width {
			width = len(table.Header)
		}
		rec := make([]string, width)
		for j := range rec {
			rec[j] = row.Col(j)
		}
		if isBlankRecord(rec) {
			continue
		}
		if table.Header == nil {
			table.Header = trimAll(rec)
			continue
		}
		cells := make([]Cell, len(rec))
		for j, v := range rec {
			cells[j] = xlsCell(v)
		}
		table.Rows = append(table.Rows, cells)
	}
	return table, nil
}

// xlsRow returns row i of the sheet, or nil when the sheet has no such row.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

// xlsCell treats RFC 3339 timestamps, which is how the xls reader renders
// date cells, as native dates. Numeric cells are rendered unformatted, so
// their text is the stored number.
func xlsCell(v string) Cell {
	c := TextCell(v)
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(v)); err == nil {
		c.Time = t
		c.IsTime = true
		return c
	}
	if n, isNumber := storedNumber(v); isNumber {
		c.Number = n
		c.IsNumber = true
	}
	return c
}

func valueAt(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return rec[idx]
}
