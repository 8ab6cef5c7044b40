package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/bwdmonkey/givvu-irs-501c3-data/internal/model"
)

// Source yields documents to extract. Next returns io.EOF when the
// sequence is exhausted; any other error aborts the run.
type Source interface {
	Next() (Document, error)
}

// Sink receives the records a run produces. Records arrive sorted by
// object ID so re-running the same batch writes byte-identical output.
type Sink interface {
	WriteFiling(f *model.Filing) error
	WriteSchedule(s *model.ScheduleM) error
	WriteWarning(w model.Warning) error
	WriteFailure(e model.FailureEntry) error
}

// BatchProcessor drives one extraction run end to end: feed documents to
// the pool, collect outcomes, sort, and hand records to the sink. Every
// input document is accounted for in the summary, either as a filing or
// as a failure entry.
type BatchProcessor struct {
	engine     Extractor
	workers    int
	docTimeout time.Duration
}

// NewBatchProcessor creates a batch driver over the given engine.
func NewBatchProcessor(engine Extractor, workers int, docTimeout time.Duration) *BatchProcessor {
	return &BatchProcessor{engine: engine, workers: workers, docTimeout: docTimeout}
}

// Run processes every document the source yields. Per-document problems
// become failure entries; only source iteration errors and sink write
// errors abort the run outright. Context cancellation stops intake,
// lets in-flight documents finish, and still writes every collected
// outcome to the sink before returning the partial summary alongside
// the context error, so the caller can record which object IDs
// completed and resume from there.
func (b *BatchProcessor) Run(ctx context.Context, source Source, sink Sink) (*model.RunSummary, error) {
	pool := NewPool(b.engine, b.workers, b.docTimeout)
	pool.Start()
	defer pool.Shutdown()

	feedErr := make(chan error, 1)
	go func() {
		defer pool.Close()
		for {
			if err := ctx.Err(); err != nil {
				feedErr <- err
				return
			}
			doc, err := source.Next()
			if errors.Is(err, io.EOF) {
				feedErr <- nil
				return
			}
			if err != nil {
				feedErr <- fmt.Errorf("read source: %w", err)
				return
			}
			pool.Submit(doc)
		}
	}()

	var outcomes []Outcome
	for out := range pool.Results() {
		outcomes = append(outcomes, out)
	}
	feed := <-feedErr
	if feed != nil && !errors.Is(feed, context.Canceled) && !errors.Is(feed, context.DeadlineExceeded) {
		return nil, feed
	}

	// Workers finish in arbitrary order; sorting here is what makes a
	// re-run of the same input byte-identical.
	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].ObjectID < outcomes[j].ObjectID
	})

	summary := &model.RunSummary{Documents: len(outcomes)}
	for _, out := range outcomes {
		if out.Err != nil {
			summary.Failures++
			if err := sink.WriteFailure(classifyFailure(out)); err != nil {
				return nil, fmt.Errorf("write failure entry: %w", err)
			}
			continue
		}
		summary.Filings++
		if err := sink.WriteFiling(out.Filing); err != nil {
			return nil, fmt.Errorf("write filing %s: %w", out.ObjectID, err)
		}
		if out.Schedule != nil {
			summary.Schedules++
			if err := sink.WriteSchedule(out.Schedule); err != nil {
				return nil, fmt.Errorf("write schedule %s: %w", out.ObjectID, err)
			}
		}
		for _, w := range out.Warnings {
			summary.Warnings++
			if err := sink.WriteWarning(w); err != nil {
				return nil, fmt.Errorf("write warning %s: %w", out.ObjectID, err)
			}
		}
	}
	return summary, feed
}

func classifyFailure(out Outcome) model.FailureEntry {
	kind := model.FailureParse
	switch {
	case errors.Is(out.Err, context.DeadlineExceeded), errors.Is(out.Err, context.Canceled):
		kind = model.FailureTimeout
	case isReadFailure(out.Err):
		kind = model.FailureRead
	}
	return model.FailureEntry{
		ObjectID: out.ObjectID,
		Kind:     kind,
		Message:  out.Err.Error(),
	}
}

// readFailure marks source-side read errors so they classify separately
// from parse failures.
type readFailure struct {
	err error
}

// ReadFailure wraps an error from loading a document's bytes.
func ReadFailure(err error) error {
	return &readFailure{err: err}
}

func (e *readFailure) Error() string { return e.err.Error() }
func (e *readFailure) Unwrap() error { return e.err }

func isReadFailure(err error) bool {
	var rf *readFailure
	return errors.As(err, &rf)
}
