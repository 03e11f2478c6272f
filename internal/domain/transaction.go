package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// UnknownValue is used for dates and descriptions that could not be resolved.
	UnknownValue = "Unknown"

	// NoTransactionsDescription labels the placeholder emitted for an empty statement.
	NoTransactionsDescription = "No transactions found"
)

// Currency is the single-symbol hint guessed from transaction text.
type Currency string

const (
	CurrencyRupee  Currency = "₹"
	CurrencyDollar Currency = "$"
)

// Valid reports whether c is one of the supported currency symbols.
func (c Currency) Valid() bool {
	return c == CurrencyRupee || c == CurrencyDollar
}

// Transaction is one normalized statement entry.
// Field names and tags define the interchange format handed to the insight
// generator, so they are capitalised on the wire.
type Transaction struct {
	Date        string   `json:"Date"`        // ISO date or "Unknown"
	Description string   `json:"Description"` // free text, "Unknown" when unavailable
	Amount      float64  `json:"Amount"`      // negative = expense, positive = credit
	Currency    Currency `json:"_currency,omitempty"`
}

// Placeholder returns the single record substituted for an empty result set.
func Placeholder() Transaction {
	return Transaction{
		Date:        UnknownValue,
		Description: NoTransactionsDescription,
		Amount:      0,
	}
}

// MarshalTransactions serializes records to the indented JSON interchange form.
// Non-ASCII and HTML characters are written as-is.
func MarshalTransactions(txs []Transaction) (string, error) {
	if txs == nil {
		txs = []Transaction{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(txs); err != nil {
		return "", fmt.Errorf("MarshalTransactions: encode: %w", err)
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// UnmarshalTransactions parses the interchange JSON back into records.
func UnmarshalTransactions(data string) ([]Transaction, error) {
	var txs []Transaction
	if err := json.Unmarshal([]byte(data), &txs); err != nil {
		return nil, fmt.Errorf("UnmarshalTransactions: decode: %w", err)
	}
	return txs, nil
}
