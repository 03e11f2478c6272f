package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/gcs"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/dvloznov/finance-insights/internal/statement"
)

// ErrSourceTooLarge is returned when a statement exceeds the size limit.
var ErrSourceTooLarge = errors.New("statement exceeds size limit")

// defaultFilename is used when the source carries no usable name.
const defaultFilename = "statement"

// PipelineStep represents a single step in the analysis pipeline.
type PipelineStep interface {
	Name() string
	Execute(ctx context.Context, state *PipelineState) error
}

// Step 1: StageFileStep copies the statement into a private temp directory
// so the readers can work on a local path. The directory is released with
// the state.
type StageFileStep struct {
	TempDir  string // "" means the OS default
	MaxBytes int64  // 0 means unlimited
	Fetcher  gcs.Fetcher
}

func (s *StageFileStep) Name() string { return "stage" }

func (s *StageFileStep) Execute(ctx context.Context, state *PipelineState) error {
	body, name, err := s.open(ctx, state.Source)
	if err != nil {
		return err
	}
	defer body.Close()

	dir, err := os.MkdirTemp(s.TempDir, "statement-*")
	if err != nil {
		return fmt.Errorf("StageFileStep: create temp dir: %w", err)
	}
	state.onRelease(func() error { return os.RemoveAll(dir) })

	target := filepath.Join(dir, safeFilename(name))
	if err := s.copyTo(target, body); err != nil {
		return err
	}

	state.TempPath = target
	logger.FromContext(ctx).Debug().Str("path", target).Msg("Statement staged")
	return nil
}

func (s *StageFileStep) open(ctx context.Context, src Source) (io.ReadCloser, string, error) {
	switch {
	case src.Reader != nil:
		return io.NopCloser(src.Reader), src.Filename, nil
	case src.GCSURI != "":
		if s.Fetcher == nil {
			return nil, "", fmt.Errorf("StageFileStep: no storage configured for %s: %w", src.GCSURI, ErrNoSource)
		}
		rc, err := s.Fetcher.Open(ctx, src.GCSURI)
		if err != nil {
			return nil, "", fmt.Errorf("StageFileStep: %w", err)
		}
		name := src.Filename
		if name == "" {
			name = gcs.FilenameFromURI(src.GCSURI)
		}
		return rc, name, nil
	default:
		return nil, "", ErrNoSource
	}
}

func (s *StageFileStep) copyTo(target string, r io.Reader) error {
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("StageFileStep: create %q: %w", target, err)
	}

	src := r
	if s.MaxBytes > 0 {
		src = io.LimitReader(r, s.MaxBytes+1)
	}
	n, copyErr := io.Copy(f, src)
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		return fmt.Errorf("StageFileStep: write %q: %w", target, copyErr)
	case closeErr != nil:
		return fmt.Errorf("StageFileStep: close %q: %w", target, closeErr)
	case s.MaxBytes > 0 && n > s.MaxBytes:
		return fmt.Errorf("StageFileStep: more than %d bytes: %w", s.MaxBytes, ErrSourceTooLarge)
	}
	return nil
}

// safeFilename keeps only the base name, so the extension survives but no
// directory component of a client-supplied name does.
func safeFilename(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == "." || base == "/" || base == ".." || strings.TrimSpace(base) == "" {
		return defaultFilename
	}
	return base
}

// Step 2: DetectFormatStep classifies the staged file by extension.
type DetectFormatStep struct{}

func (s *DetectFormatStep) Name() string { return "detect" }

func (s *DetectFormatStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Format = statement.DetectFormat(state.TempPath)
	logger.FromContext(ctx).Info().Str("format", string(state.Format)).Msg("Statement format detected")
	return nil
}

// Step 3: NormalizeStep reads the staged file into transactions and releases
// it as soon as it has been read.
type NormalizeStep struct {
	Normalizer Normalizer
}

func (s *NormalizeStep) Name() string { return "normalize" }

func (s *NormalizeStep) Execute(ctx context.Context, state *PipelineState) error {
	state.report(StageProcessing, 20, "Processing bank statement...")

	txs, err := s.Normalizer.Normalize(ctx, state.TempPath)
	if releaseErr := state.Release(); releaseErr != nil {
		logger.FromContext(ctx).Warn().Err(releaseErr).Msg("Failed to remove staged statement")
	}
	if err != nil {
		return err
	}

	state.Transactions = txs
	state.report(StageProcessed, 40, fmt.Sprintf("Statement processed: %d transactions", len(txs)))
	return nil
}

// Step 4: SerializeStep renders the transactions as interchange JSON.
type SerializeStep struct{}

func (s *SerializeStep) Name() string { return "serialize" }

func (s *SerializeStep) Execute(ctx context.Context, state *PipelineState) error {
	out, err := domain.MarshalTransactions(state.Transactions)
	if err != nil {
		return err
	}
	state.TransactionsJSON = out
	return nil
}

// Step 5: AnalyzeStep produces the spending analysis.
type AnalyzeStep struct {
	Generator InsightGenerator
}

func (s *AnalyzeStep) Name() string { return "analyze" }

func (s *AnalyzeStep) Execute(ctx context.Context, state *PipelineState) error {
	state.report(StageAnalyzing, 50, "Analyzing spending patterns...")

	analysis, err := s.Generator.Analyze(ctx, state.TransactionsJSON)
	if err != nil {
		return err
	}
	state.Analysis = analysis
	return nil
}

// Step 6: RecommendStep derives recommendations from the analysis.
type RecommendStep struct {
	Generator InsightGenerator
}

func (s *RecommendStep) Name() string { return "recommend" }

func (s *RecommendStep) Execute(ctx context.Context, state *PipelineState) error {
	state.report(StageRecommending, 75, "Generating recommendations...")

	recs, err := s.Generator.Recommend(ctx, state.Analysis)
	if err != nil {
		return err
	}
	state.Recommendations = recs
	return nil
}
