package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/dvloznov/finance-insights/internal/config"
	"github.com/dvloznov/finance-insights/internal/gcs"
	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/dvloznov/finance-insights/internal/llm"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/dvloznov/finance-insights/internal/pipeline"
	"github.com/dvloznov/finance-insights/internal/statement"
	"github.com/rs/zerolog"
)

// runTimeout bounds a whole command, model calls included.
const runTimeout = 5 * time.Minute

type cli struct {
	Normalize normalizeCmd `cmd:"" help:"Print the normalized transactions of a statement as JSON."`
	Analyze   analyzeCmd   `cmd:"" help:"Analyze a statement and print the spending analysis and recommendations."`
}

// app holds what the commands share. Settings come from the environment,
// the same variables the server reads.
type app struct {
	normalizer     *statement.Normalizer
	opts           pipeline.Options
	gcsCredentials string
	out            io.Writer
	log            zerolog.Logger
}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Name("finance-insights-cli"),
		kong.Description("Bank statement normalizer and spending analyst."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load(nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Out: os.Stderr})

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	ctx = logger.WithContext(ctx, log)

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		cancel()
		log.Fatal().Err(err).Msg("Failed to initialize")
	}

	kctx.BindTo(ctx, (*context.Context)(nil))
	err = kctx.Run(a)
	cancel()
	kctx.FatalIfErrorf(err)
}

func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	extractor, err := llm.New(ctx, cfg.ExtractorLLM())
	if err != nil {
		return nil, fmt.Errorf("newApp: extractor: %w", err)
	}
	insightModel, err := llm.New(ctx, cfg.InsightLLM())
	if err != nil {
		return nil, fmt.Errorf("newApp: insight model: %w", err)
	}

	normalizer := statement.NewNormalizer(extractor, cfg.Normalizer())
	return &app{
		normalizer: normalizer,
		opts: pipeline.Options{
			Normalizer: normalizer,
			Generator:  insights.NewGenerator(insightModel),
			TempDir:    cfg.TempDir,
			MaxBytes:   cfg.MaxUploadBytes(),
		},
		gcsCredentials: cfg.GCSCredentialsFile,
		out:            os.Stdout,
		log:            log,
	}, nil
}

type normalizeCmd struct {
	File string `arg:"" type:"existingfile" help:"Statement file (csv, xlsx, xls, pdf or text)."`
}

func (c *normalizeCmd) Run(ctx context.Context, a *app) error {
	out, err := a.normalizer.NormalizeJSON(ctx, c.File)
	if err != nil {
		return fmt.Errorf("normalize: %w", err)
	}
	_, err = fmt.Fprintln(a.out, out)
	return err
}

type analyzeCmd struct {
	File   string `arg:"" optional:"" type:"existingfile" help:"Local statement file."`
	GCSURI string `name:"gcs-uri" help:"Read the statement from gs://bucket/object instead of a local file."`
	JSON   bool   `help:"Print the result as JSON."`
}

func (c *analyzeCmd) Validate() error {
	switch {
	case c.File == "" && c.GCSURI == "":
		return errors.New("a statement file or --gcs-uri is required")
	case c.File != "" && c.GCSURI != "":
		return errors.New("give either a statement file or --gcs-uri, not both")
	}
	if c.GCSURI != "" {
		if _, _, err := gcs.ParseURI(c.GCSURI); err != nil {
			return err
		}
	}
	return nil
}

type analyzeResult struct {
	RunID           string `json:"run_id"`
	Transactions    int    `json:"transactions"`
	Analysis        string `json:"analysis"`
	Recommendations string `json:"recommendations"`
}

func (c *analyzeCmd) Run(ctx context.Context, a *app) error {
	opts := a.opts
	src := pipeline.Source{GCSURI: c.GCSURI}

	if c.File != "" {
		f, err := os.Open(c.File)
		if err != nil {
			return fmt.Errorf("analyze: %w", err)
		}
		defer f.Close()
		src = pipeline.Source{Filename: filepath.Base(c.File), Reader: f}
	} else if opts.Fetcher == nil {
		fetcher, err := gcs.NewStorageFetcher(ctx, a.gcsCredentials)
		if err != nil {
			return fmt.Errorf("analyze: %w", err)
		}
		defer fetcher.Close()
		opts.Fetcher = fetcher
	}

	state, err := pipeline.NewRunner(opts).Run(ctx, src, func(p pipeline.Progress) {
		a.log.Info().Str("stage", p.Stage).Int("percent", p.Percent).Msg(p.Message)
	})
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	if c.JSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(analyzeResult{
			RunID:           state.RunID,
			Transactions:    len(state.Transactions),
			Analysis:        state.Analysis,
			Recommendations: state.Recommendations,
		})
	}

	_, err = fmt.Fprintf(a.out, "=== Spending Analysis ===\n%s\n\n=== Recommendations ===\n%s\n",
		state.Analysis, state.Recommendations)
	return err
}
