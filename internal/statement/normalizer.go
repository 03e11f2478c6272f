package statement

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/llm"
	"github.com/dvloznov/finance-insights/internal/logger"
)

// Config tunes the normalizer's heuristics.
type Config struct {
	// DefaultCurrency is attached to tabular statements with no currency
	// signal in their descriptions.
	DefaultCurrency domain.Currency
	// FallbackPolicy decides how a failed extraction is turned into records.
	FallbackPolicy FallbackPolicy
}

// DefaultConfig returns the rupee default and re-parsing fallback.
func DefaultConfig() Config {
	return Config{
		DefaultCurrency: domain.CurrencyRupee,
		FallbackPolicy:  FallbackReparse,
	}
}

// Normalizer turns a statement file of any supported format into
// transactions. Unstructured files go through the extractor completer.
type Normalizer struct {
	extractor llm.Completer
	cfg       Config
}

// NewNormalizer creates a Normalizer. Zero config fields take their defaults.
func NewNormalizer(extractor llm.Completer, cfg Config) *Normalizer {
	def := DefaultConfig()
	if !cfg.DefaultCurrency.Valid() {
		cfg.DefaultCurrency = def.DefaultCurrency
	}
	if !cfg.FallbackPolicy.Valid() {
		cfg.FallbackPolicy = def.FallbackPolicy
	}
	return &Normalizer{extractor: extractor, cfg: cfg}
}

// Normalize reads the file at path and returns its transactions in source
// order. The result is never empty. Only file I/O failures are errors.
func (n *Normalizer) Normalize(ctx context.Context, path string) ([]domain.Transaction, error) {
	format := DetectFormat(path)
	log := logger.FromContext(ctx).With().Str("format", string(format)).Logger()
	ctx = logger.WithContext(ctx, log)

	if format.Tabular() {
		table, err := readTable(path, format)
		if err != nil {
			return nil, fmt.Errorf("Normalize: %w", err)
		}
		txs := RecordsFromTable(ctx, table, n.cfg.DefaultCurrency)
		log.Info().Int("rows", len(table.Rows)).Int("transactions", len(txs)).Msg("Normalized tabular statement")
		return txs, nil
	}

	raw, err := readText(ctx, path, format)
	if err != nil {
		return nil, fmt.Errorf("Normalize: %w", err)
	}
	txs := recordsFromText(ctx, n.extractor, raw, n.cfg.FallbackPolicy)
	log.Info().Int("chars", len([]rune(raw))).Int("transactions", len(txs)).Msg("Normalized unstructured statement")
	return txs, nil
}

// NormalizeJSON is Normalize followed by serialization to the interchange
// JSON handed to the insight generator.
func (n *Normalizer) NormalizeJSON(ctx context.Context, path string) (string, error) {
	txs, err := n.Normalize(ctx, path)
	if err != nil {
		return "", err
	}

	out, err := domain.MarshalTransactions(txs)
	if err != nil {
		return "", fmt.Errorf("NormalizeJSON: %w", err)
	}
	return out, nil
}
