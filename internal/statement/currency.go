package statement

import (
	"strings"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// currencyScanLimit is how many leading records are searched for a signal.
const currencyScanLimit = 10

var (
	rupeeSignals  = []string{"₹", "inr", "rupee"}
	dollarSignals = []string{"$", "usd", "dollar"}
)

// DetectCurrency guesses the statement currency from the descriptions of the
// first records. The first record carrying a signal decides; with no signal
// the fallback is returned.
func DetectCurrency(txs []domain.Transaction, fallback domain.Currency) domain.Currency {
	for i, tx := range txs {
		if i == currencyScanLimit {
			break
		}
		desc := strings.ToLower(tx.Description)
		switch {
		case containsSignal(desc, rupeeSignals):
			return domain.CurrencyRupee
		case containsSignal(desc, dollarSignals):
			return domain.CurrencyDollar
		}
	}
	return fallback
}

func containsSignal(s string, signals []string) bool {
	for _, sig := range signals {
		if strings.Contains(s, sig) {
			return true
		}
	}
	return false
}
