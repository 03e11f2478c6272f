package statement

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/llm"
	"github.com/dvloznov/finance-insights/internal/logger"
)

const (
	// maxExtractorInput caps the statement text sent to the extractor.
	maxExtractorInput = 5000

	// maxFallbackText caps the raw text used when the extractor fails.
	maxFallbackText = 3000

	// placeholderDescriptionLen is how much of an unparseable response is
	// kept as the placeholder description.
	placeholderDescriptionLen = 40

	// FallbackLabel prefixes the raw text substituted for a failed extraction.
	FallbackLabel = "Raw bank statement data:\n"
)

// FallbackPolicy decides what happens to the raw text substituted for a
// failed extraction.
type FallbackPolicy string

const (
	// FallbackReparse runs the line pattern over the fallback text like any
	// other extractor response.
	FallbackReparse FallbackPolicy = "reparse"

	// FallbackPlaceholder skips parsing and emits one placeholder record
	// describing the fallback text.
	FallbackPlaceholder FallbackPolicy = "placeholder"
)

// Valid reports whether p is a known policy.
func (p FallbackPolicy) Valid() bool {
	return p == FallbackReparse || p == FallbackPlaceholder
}

var extractorLineRe = regexp.MustCompile(
	`(?i)Date:\s*(?P<date>.+?)\s*\|\s*Description:\s*(?P<description>.+?)\s*\|\s*Amount:\s*(?P<amount>[-\d.,]+)`,
)

// buildExtractorPrompt wraps statement text in the extraction instructions.
func buildExtractorPrompt(content string) string {
	var b strings.Builder
	b.WriteString("You are a financial data extraction expert. Extract transaction information from this bank statement.\n\n")
	b.WriteString("Bank Statement Content:\n")
	b.WriteString(content)
	b.WriteString("\n\n")
	b.WriteString("Extract ALL transactions and format them as a simple list. For each transaction, identify:\n")
	b.WriteString("- Date (if available)\n")
	b.WriteString("- Description/Merchant\n")
	b.WriteString("- Amount (mark expenses as negative)\n\n")
	b.WriteString("Format your response as a clear list of transactions, one per line, like this:\n")
	b.WriteString("Date: 2024-01-01 | Description: Grocery Store | Amount: -125.50\n")
	b.WriteString("Date: 2024-01-02 | Description: Coffee Shop | Amount: -4.50\n\n")
	b.WriteString("If dates are not clear, use \"Unknown\" for the date.\n")
	b.WriteString("If amounts are not clear, estimate based on context or use 0.\n")
	b.WriteString("Focus on actual spending transactions, ignore headers, footers, and account summaries.\n\n")
	b.WriteString("Extract the transactions now:")
	return b.String()
}

// extraction is the extractor outcome: the text to parse and whether it is
// the raw-text substitute for a failed call.
type extraction struct {
	Text     string
	Fallback bool
}

// extract asks the completer to restate raw statement text as one
// transaction per line. A failed call is not an error: the truncated raw
// text is returned instead, flagged as a fallback.
func extract(ctx context.Context, c llm.Completer, raw string) extraction {
	log := logger.FromContext(ctx)

	resp, err := c.Complete(ctx, buildExtractorPrompt(truncateRunes(raw, maxExtractorInput)))
	if err != nil {
		log.Warn().Err(err).Msg("Transaction extractor failed, falling back to raw text")
		return extraction{
			Text:     FallbackLabel + truncateRunes(raw, maxFallbackText),
			Fallback: true,
		}
	}
	return extraction{Text: resp}
}

// ParseExtractorResponse turns "Date: d | Description: x | Amount: n" lines
// into transactions. Lines that do not match are skipped; with no match at
// all a single record describing the response is returned.
func ParseExtractorResponse(ctx context.Context, resp string) []domain.Transaction {
	log := logger.FromContext(ctx)

	var txs []domain.Transaction
	for n, line := range strings.Split(resp, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := extractorLineRe.FindStringSubmatch(line)
		if m == nil {
			log.Debug().Int("line", n+1).Msg("Skipping unmatched extractor line")
			continue
		}

		amount := ParseAmount(m[extractorLineRe.SubexpIndex("amount")])
		if amount.Defaulted {
			log.Debug().Int("line", n+1).Str("field", "amount").Str("reason", amount.Reason).Msg("Field degraded to default")
		}

		txs = append(txs, domain.Transaction{
			Date:        strings.TrimSpace(m[extractorLineRe.SubexpIndex("date")]),
			Description: strings.TrimSpace(m[extractorLineRe.SubexpIndex("description")]),
			Amount:      amount.Value,
		})
	}

	if len(txs) == 0 {
		return []domain.Transaction{unparsedPlaceholder(resp)}
	}
	return txs
}

func unparsedPlaceholder(resp string) domain.Transaction {
	return domain.Transaction{
		Date:        domain.UnknownValue,
		Description: truncateRunes(resp, placeholderDescriptionLen),
	}
}

// recordsFromText runs the unstructured path: extraction, then line parsing
// according to policy.
func recordsFromText(ctx context.Context, c llm.Completer, raw string, policy FallbackPolicy) []domain.Transaction {
	ex := extract(ctx, c, raw)
	if ex.Fallback && policy == FallbackPlaceholder {
		return []domain.Transaction{unparsedPlaceholder(ex.Text)}
	}
	return ParseExtractorResponse(ctx, ex.Text)
}

// truncateRunes returns at most n characters of s.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// ParseFallbackPolicy validates a policy name.
func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	p := FallbackPolicy(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("ParseFallbackPolicy: unknown policy %q", s)
	}
	return p, nil
}
