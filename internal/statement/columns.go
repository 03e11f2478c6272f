package statement

import "strings"

var (
	dateKeywords        = []string{"date", "transaction date", "posted date"}
	descriptionKeywords = []string{"description", "merchant", "details", "payee", "narration"}
	amountKeywords      = []string{"amount", "transaction amount", "value"}
	debitKeywords       = []string{"debit"}
	creditKeywords      = []string{"credit"}
)

const noColumn = -1

// columns holds the resolved header index of every canonical field, or
// noColumn when the header has no match.
type columns struct {
	date        int
	description int
	amount      int
	debit       int
	credit      int
}

// unified reports whether a single signed amount column was found.
func (c columns) unified() bool {
	return c.amount != noColumn
}

// resolveColumns maps a header onto canonical fields. A column that only
// matches "debit" is a debit side, so the debit/credit rules apply to it.
func resolveColumns(header []string) columns {
	amountOrDebit := append(append([]string{}, amountKeywords...), debitKeywords...)

	c := columns{
		date:        findColumn(header, dateKeywords),
		description: findColumn(header, descriptionKeywords),
		amount:      findColumn(header, amountOrDebit),
		debit:       noColumn,
		credit:      noColumn,
	}

	if c.amount != noColumn && !containsAny(header[c.amount], amountKeywords) {
		c.debit = c.amount
		c.amount = noColumn
	}
	if c.amount == noColumn {
		if c.debit == noColumn {
			c.debit = findColumn(header, debitKeywords)
		}
		c.credit = findColumn(header, creditKeywords)
	}
	return c
}

// findColumn returns the first header, in header order, that contains any
// keyword case-insensitively.
func findColumn(header []string, keywords []string) int {
	for i, name := range header {
		if containsAny(name, keywords) {
			return i
		}
	}
	return noColumn
}

func containsAny(name string, keywords []string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
