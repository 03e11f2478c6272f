package statement

import (
	"path/filepath"
	"strings"
)

// Format classifies an input file by how it has to be read.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
	FormatPDF   Format = "pdf"
	FormatText  Format = "text"
)

// Tabular reports whether the format is read as header-labelled rows.
func (f Format) Tabular() bool {
	return f == FormatCSV || f == FormatExcel
}

// DetectFormat classifies path purely by its suffix, case-insensitively.
// Unknown or missing extensions are treated as plain text.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".xlsx", ".xls":
		return FormatExcel
	case ".pdf":
		return FormatPDF
	default:
		return FormatText
	}
}
