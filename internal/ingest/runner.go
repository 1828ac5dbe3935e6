// Package ingest drives the fetch -> normalize -> persist cycle for every
// registered source.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ovalline/pitwall/internal/content"
	"github.com/ovalline/pitwall/internal/source"
	"github.com/ovalline/pitwall/pkg/logger"
	"github.com/ovalline/pitwall/pkg/metrics"
)

// Stage names the states an ingestion request moves through. Rejected
// requests never reach the runner (the auth middleware answers 401/403);
// failed runs report the last stage they completed.
type Stage string

const (
	StageReceived      Stage = "received"
	StageAuthenticated Stage = "authenticated"
	StageFetched       Stage = "fetched"
	StageNormalized    Stage = "normalized"
	StagePersisted     Stage = "persisted"
	StageResponded     Stage = "responded"
)

// ErrUnknownSource is returned for source names nothing was registered under.
var ErrUnknownSource = errors.New("unknown source")

// StorageError wraps a failed write to the record store so handlers can tell
// our failures (500) from upstream ones (502).
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %v", e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

// RunError reports a failed run together with the last stage that completed
// before the failure.
type RunError struct {
	Source    string
	LastStage Stage
	Err       error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("ingest %s (after %s): %v", e.Source, e.LastStage, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// TrackTimeSummary counts the lap records extracted from a video run.
type TrackTimeSummary struct {
	Upserted int `json:"upserted"`
	Skipped  int `json:"skipped"`
}

// Summary is the response body of a successful run. Unchanged records are
// deliberately absent from the wire format: CRON re-runs over the same window
// are routine and their no-op writes are noise to the dashboards reading
// these counts.
type Summary struct {
	Source     string            `json:"source"`
	Inserted   int               `json:"inserted"`
	Updated    int               `json:"updated"`
	Skipped    int               `json:"skipped"`
	Unchanged  int               `json:"-"`
	TrackTimes *TrackTimeSummary `json:"trackTimes,omitempty"`
}

// Enricher performs source-specific processing on the raw items after they
// were persisted (lap time extraction for the video source).
type Enricher interface {
	Process(ctx context.Context, items []source.Item) (upserted, skipped int, err error)
}

type pipeline struct {
	fetcher  source.Fetcher
	enricher Enricher
}

// Runner owns the registered sources and executes their ingestion pipelines
// against one record store.
type Runner struct {
	records   content.Repository
	pipelines map[string]*pipeline
	order     []string
}

func NewRunner(records content.Repository) *Runner {
	return &Runner{
		records:   records,
		pipelines: make(map[string]*pipeline),
	}
}

// Register adds a source under its fetcher name. enricher may be nil.
// Registering the same name twice replaces the earlier pipeline.
func (r *Runner) Register(f source.Fetcher, enricher Enricher) {
	name := f.Name()
	if _, exists := r.pipelines[name]; !exists {
		r.order = append(r.order, name)
	}
	r.pipelines[name] = &pipeline{fetcher: f, enricher: enricher}
}

// Sources returns the registered source names in registration order.
func (r *Runner) Sources() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// RunSource executes one full pipeline. The returned error is a *RunError
// except for unknown names, which report ErrUnknownSource.
func (r *Runner) RunSource(ctx context.Context, name string) (*Summary, error) {
	p, ok := r.pipelines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}

	logger.Debugf("ingest %s: stage=%s", name, StageAuthenticated)

	items, err := p.fetcher.Fetch(ctx)
	if err != nil {
		return nil, r.fail(name, StageAuthenticated, err)
	}
	logger.Debugf("ingest %s: stage=%s items=%d", name, StageFetched, len(items))

	summary := &Summary{Source: name}
	now := time.Now().UTC()
	recs := make([]*content.Record, 0, len(items))
	for _, it := range items {
		rec, err := NormalizeItem(it, now)
		if err != nil {
			summary.Skipped++
			metrics.IngestItems.WithLabelValues(name, "skipped").Inc()
			logger.Warnf("ingest %s: skipping item: %v", name, err)
			continue
		}
		recs = append(recs, rec)
	}
	logger.Debugf("ingest %s: stage=%s records=%d skipped=%d", name, StageNormalized, len(recs), summary.Skipped)

	for _, rec := range recs {
		outcome, err := r.records.Upsert(ctx, rec)
		if err != nil {
			return nil, r.fail(name, StageNormalized, &StorageError{Err: err})
		}
		switch outcome {
		case content.OutcomeInserted:
			summary.Inserted++
		case content.OutcomeUpdated:
			summary.Updated++
		case content.OutcomeUnchanged:
			summary.Unchanged++
		}
		metrics.IngestItems.WithLabelValues(name, outcome.String()).Inc()
	}
	logger.Debugf("ingest %s: stage=%s", name, StagePersisted)

	if p.enricher != nil {
		upserted, skipped, err := p.enricher.Process(ctx, items)
		if err != nil {
			return nil, r.fail(name, StagePersisted, err)
		}
		summary.TrackTimes = &TrackTimeSummary{Upserted: upserted, Skipped: skipped}
	}

	metrics.IngestRuns.WithLabelValues(name, "ok").Inc()
	logger.Infof("ingest %s: inserted=%d updated=%d unchanged=%d skipped=%d",
		name, summary.Inserted, summary.Updated, summary.Unchanged, summary.Skipped)
	return summary, nil
}

// RunAll executes every registered source, continuing past per-source
// failures, and returns the successful summaries alongside the failures.
func (r *Runner) RunAll(ctx context.Context) ([]*Summary, []*RunError) {
	var summaries []*Summary
	var failures []*RunError
	for _, name := range r.order {
		summary, err := r.RunSource(ctx, name)
		if err != nil {
			var re *RunError
			if !errors.As(err, &re) {
				re = &RunError{Source: name, LastStage: StageReceived, Err: err}
			}
			failures = append(failures, re)
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries, failures
}

func (r *Runner) fail(name string, last Stage, err error) *RunError {
	metrics.IngestRuns.WithLabelValues(name, "error").Inc()
	logger.Errorf("ingest %s failed after stage %s: %v", name, last, err)
	return &RunError{Source: name, LastStage: last, Err: err}
}
