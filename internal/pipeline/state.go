package pipeline

import (
	"errors"
	"fmt"
	"io"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/statement"
)

// ErrNoSource is returned when a run has neither uploaded bytes nor a GCS URI.
var ErrNoSource = errors.New("no statement source")

// Source is where a run's statement comes from: an uploaded body, or a
// gs:// URI when Reader is nil.
type Source struct {
	Filename string
	Reader   io.Reader
	GCSURI   string
}

// Progress is reported as a run moves through its stages.
type Progress struct {
	Stage   string `json:"stage"`
	Percent int    `json:"percent"`
	Message string `json:"message"`
}

// Progress stages reported to callers.
const (
	StageProcessing   = "processing"
	StageProcessed    = "processed"
	StageAnalyzing    = "analyzing"
	StageRecommending = "recommending"
	StageComplete     = "complete"
)

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	RunID  string
	Source Source

	TempPath         string
	Format           statement.Format
	Transactions     []domain.Transaction
	TransactionsJSON string
	Analysis         string
	Recommendations  string

	// OnProgress, when set, receives every progress event.
	OnProgress func(Progress)

	releases []func() error
}

func (s *PipelineState) report(stage string, percent int, message string) {
	if s.OnProgress != nil {
		s.OnProgress(Progress{Stage: stage, Percent: percent, Message: message})
	}
}

// onRelease registers a cleanup run by Release.
func (s *PipelineState) onRelease(fn func() error) {
	s.releases = append(s.releases, fn)
}

// Release runs registered cleanups in reverse order. It is safe to call
// more than once.
func (s *PipelineState) Release() error {
	var errs []error
	for i := len(s.releases) - 1; i >= 0; i-- {
		if err := s.releases[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.releases = nil
	s.TempPath = ""

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("Release: %w", err)
	}
	return nil
}

// StageError names the step a run failed in.
type StageError struct {
	Step  int
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline step %d (%s) failed: %v", e.Step, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
