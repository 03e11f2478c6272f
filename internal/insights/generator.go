// Package insights turns normalized transactions into a spending analysis
// and budget recommendations using two chained completions.
package insights

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-insights/internal/llm"
	"github.com/dvloznov/finance-insights/internal/logger"
)

// Generator runs the analysis and recommendation completions. Both answers
// are returned verbatim. Recommend takes the finished analysis, so callers
// run the two steps in order.
type Generator struct {
	completer llm.Completer
}

// NewGenerator creates a Generator backed by c.
func NewGenerator(c llm.Completer) *Generator {
	return &Generator{completer: c}
}

// Analyze runs the spending analysis over the interchange JSON.
func (g *Generator) Analyze(ctx context.Context, transactionsJSON string) (string, error) {
	out, err := g.completer.Complete(ctx, BuildAnalysisPrompt(transactionsJSON))
	if err != nil {
		return "", fmt.Errorf("Analyze: complete: %w", err)
	}
	logger.FromContext(ctx).Info().Int("chars", len(out)).Msg("Spending analysis generated")
	return out, nil
}

// Recommend derives recommendations from a finished analysis.
func (g *Generator) Recommend(ctx context.Context, analysis string) (string, error) {
	out, err := g.completer.Complete(ctx, BuildRecommendationPrompt(analysis))
	if err != nil {
		return "", fmt.Errorf("Recommend: complete: %w", err)
	}
	logger.FromContext(ctx).Info().Int("chars", len(out)).Msg("Recommendations generated")
	return out, nil
}
