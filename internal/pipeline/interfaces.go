package pipeline

import (
	"context"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// Normalizer turns a staged statement file into transactions.
type Normalizer interface {
	Normalize(ctx context.Context, path string) ([]domain.Transaction, error)
}

// InsightGenerator produces the analysis and, from it, the recommendations.
type InsightGenerator interface {
	Analyze(ctx context.Context, transactionsJSON string) (string, error)
	Recommend(ctx context.Context, analysis string) (string, error)
}
