package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/dvloznov/finance-insights/internal/llm"
	"github.com/dvloznov/finance-insights/internal/pipeline"
	"github.com/dvloznov/finance-insights/internal/statement"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "Date,Description,Amount\n2024-01-01,Grocery Store $,-125.50\n2024-01-02,Refund,4.50\n"

// stubFetcher serves a fixed statement for any gs:// URI.
type stubFetcher struct {
	content string
	uris    []string
}

func (f *stubFetcher) Open(_ context.Context, uri string) (io.ReadCloser, error) {
	f.uris = append(f.uris, uri)
	return io.NopCloser(strings.NewReader(f.content)), nil
}

func newTestApp(t *testing.T, fetcher *stubFetcher) (*app, *bytes.Buffer) {
	t.Helper()

	extractor := llm.CompleterFunc(func(context.Context, string) (string, error) {
		return "Date: 2024-02-01 | Description: Rent | Amount: -900", nil
	})
	insightModel := llm.CompleterFunc(func(_ context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "30-DAY ACTION PLAN") {
			return "Cut groceries by 10%", nil
		}
		return "Groceries dominate spending", nil
	})

	normalizer := statement.NewNormalizer(extractor, statement.DefaultConfig())
	opts := pipeline.Options{
		Normalizer: normalizer,
		Generator:  insights.NewGenerator(insightModel),
		TempDir:    t.TempDir(),
		MaxBytes:   1 << 20,
	}
	if fetcher != nil {
		opts.Fetcher = fetcher
	}

	var out bytes.Buffer
	return &app{normalizer: normalizer, opts: opts, out: &out, log: zerolog.Nop()}, &out
}

func writeStatement(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNormalizeCmd(t *testing.T) {
	a, out := newTestApp(t, nil)
	cmd := &normalizeCmd{File: writeStatement(t, "march.csv", sampleCSV)}

	require.NoError(t, cmd.Run(context.Background(), a))

	txs, err := domain.UnmarshalTransactions(out.String())
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, -125.5, txs[0].Amount)
	assert.Equal(t, domain.CurrencyDollar, txs[0].Currency)
}

func TestNormalizeCmd_TextStatement(t *testing.T) {
	a, out := newTestApp(t, nil)
	cmd := &normalizeCmd{File: writeStatement(t, "march.txt", "01 Feb  RENT  900.00 DR")}

	require.NoError(t, cmd.Run(context.Background(), a))

	txs, err := domain.UnmarshalTransactions(out.String())
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "Rent", txs[0].Description)
	assert.Equal(t, -900.0, txs[0].Amount)
}

func TestAnalyzeCmd_LocalFile(t *testing.T) {
	a, out := newTestApp(t, nil)
	cmd := &analyzeCmd{File: writeStatement(t, "march.csv", sampleCSV)}

	require.NoError(t, cmd.Run(context.Background(), a))

	assert.Equal(t, "=== Spending Analysis ===\nGroceries dominate spending\n\n=== Recommendations ===\nCut groceries by 10%\n", out.String())
}

func TestAnalyzeCmd_JSONFromGCS(t *testing.T) {
	fetcher := &stubFetcher{content: sampleCSV}
	a, out := newTestApp(t, fetcher)
	cmd := &analyzeCmd{GCSURI: "gs://statements/march.csv", JSON: true}

	require.NoError(t, cmd.Run(context.Background(), a))
	assert.Equal(t, []string{"gs://statements/march.csv"}, fetcher.uris)

	var res analyzeResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 2, res.Transactions)
	assert.Equal(t, "Groceries dominate spending", res.Analysis)
	assert.Equal(t, "Cut groceries by 10%", res.Recommendations)
}

func TestAnalyzeCmd_ModelFailure(t *testing.T) {
	a, out := newTestApp(t, nil)
	a.opts.Generator = insights.NewGenerator(llm.CompleterFunc(func(context.Context, string) (string, error) {
		return "", llm.ErrEmptyCompletion
	}))
	cmd := &analyzeCmd{File: writeStatement(t, "march.csv", sampleCSV)}

	err := cmd.Run(context.Background(), a)
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrEmptyCompletion)

	var stageErr *pipeline.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "analyze", stageErr.Stage)
	assert.Empty(t, out.String())
}

func TestAnalyzeCmd_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     analyzeCmd
		wantErr bool
	}{
		{name: "file", cmd: analyzeCmd{File: "march.csv"}},
		{name: "gcs uri", cmd: analyzeCmd{GCSURI: "gs://b/o.csv"}},
		{name: "neither", cmd: analyzeCmd{}, wantErr: true},
		{name: "both", cmd: analyzeCmd{File: "march.csv", GCSURI: "gs://b/o.csv"}, wantErr: true},
		{name: "bad uri", cmd: analyzeCmd{GCSURI: "s3://b/o.csv"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
