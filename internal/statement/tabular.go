package statement

import (
	"context"
	"math"
	"strings"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/logger"
)

// RecordsFromTable maps header-labelled rows onto transactions. Values that
// cannot be read degrade to defaults and are logged at debug level. The
// currency guessed from the descriptions, or fallback, is attached to the
// first record.
func RecordsFromTable(ctx context.Context, t *Table, fallback domain.Currency) []domain.Transaction {
	log := logger.FromContext(ctx)
	cols := resolveColumns(t.Header)

	log.Debug().
		Int("date_col", cols.date).
		Int("description_col", cols.description).
		Int("amount_col", cols.amount).
		Int("debit_col", cols.debit).
		Int("credit_col", cols.credit).
		Msg("Resolved statement columns")

	txs := make([]domain.Transaction, 0, len(t.Rows))
	for i, row := range t.Rows {
		date := ok(domain.UnknownValue)
		if cols.date != noColumn {
			date = NormalizeDate(t.cell(row, cols.date))
		}
		amount := rowAmount(t, row, cols)

		if date.Defaulted {
			log.Debug().Int("row", i+1).Str("field", "date").Str("reason", date.Reason).Msg("Field degraded to default")
		}
		if amount.Defaulted {
			log.Debug().Int("row", i+1).Str("field", "amount").Str("reason", amount.Reason).Msg("Field degraded to default")
		}

		if math.IsNaN(amount.Value) || math.IsInf(amount.Value, 0) {
			log.Debug().Int("row", i+1).Msg("Dropping row with non-finite amount")
			continue
		}

		txs = append(txs, domain.Transaction{
			Date:        date.Value,
			Description: rowDescription(t, row, cols),
			Amount:      amount.Value,
		})
	}

	if len(txs) == 0 {
		txs = append(txs, domain.Placeholder())
	}
	txs[0].Currency = DetectCurrency(txs, fallback)
	return txs
}

func rowDescription(t *Table, row []Cell, cols columns) string {
	if cols.description == noColumn {
		return domain.UnknownValue
	}
	desc := strings.TrimSpace(t.cell(row, cols.description).Text)
	if desc == "" {
		return domain.UnknownValue
	}
	return desc
}

// rowAmount resolves the signed amount of one row. With separate debit and
// credit columns the amount is credit minus debit, a blank side counting as 0.
func rowAmount(t *Table, row []Cell, cols columns) Parsed[float64] {
	if cols.unified() {
		return cellAmount(t.cell(row, cols.amount))
	}
	if cols.debit == noColumn && cols.credit == noColumn {
		return defaulted(0.0, "no amount column")
	}

	var debit, credit float64
	if cols.debit != noColumn {
		debit = sideAmount(t.cell(row, cols.debit))
	}
	if cols.credit != noColumn {
		credit = sideAmount(t.cell(row, cols.credit))
	}

	v := credit - debit
	if v == 0 {
		// normalises -0
		v = 0
	}
	return ok(v)
}

// sideAmount reads one side of a debit/credit pair. Blank or unreadable
// cells count as zero.
func sideAmount(c Cell) float64 {
	return cellAmount(c).Value
}

// cellAmount reads a stored spreadsheet number as is and parses anything
// else from its text.
func cellAmount(c Cell) Parsed[float64] {
	if c.IsNumber {
		v := c.Number
		if v == 0 {
			// normalises -0
			v = 0
		}
		return ok(v)
	}
	return ParseAmount(c.Text)
}
