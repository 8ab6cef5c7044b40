// Package worker runs document extraction concurrently: a fixed pool of
// goroutines pulls documents off a queue, runs the extraction engine with
// a per-document time budget, and emits outcomes on a results channel.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/bwdmonkey/givvu-irs-501c3-data/internal/extract"
	"github.com/bwdmonkey/givvu-irs-501c3-data/internal/model"
)

// Document is one unit of work: the raw bytes of an e-filed return plus
// enough identity to report on it. ReadErr carries a source-side read
// failure through the pool so the failure report stays complete.
type Document struct {
	ObjectID string
	Path     string
	Data     []byte
	ReadErr  error
}

// Outcome is what one document produced. Exactly one of Err or Filing is
// set; Schedule and Warnings accompany a successful Filing.
type Outcome struct {
	ObjectID string
	Filing   *model.Filing
	Schedule *model.ScheduleM
	Warnings []model.Warning
	Err      error
}

// Extractor processes one document. Satisfied by extract.Engine.
type Extractor interface {
	ExtractDocument(ctx context.Context, objectID string, data []byte) (*extract.Result, error)
}

// Pool executes extraction jobs on a fixed number of workers. Submit and
// Results must be driven from different goroutines; the queue is small
// and Submit blocks when the workers fall behind.
type Pool struct {
	workers    int
	engine     Extractor
	docTimeout time.Duration

	jobs    chan Document
	results chan Outcome

	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewPool creates a pool. docTimeout bounds each document; zero disables
// the per-document budget.
func NewPool(engine Extractor, workers int, docTimeout time.Duration) *Pool {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workers:    workers,
		engine:     engine,
		docTimeout: docTimeout,
		jobs:       make(chan Document, workers*2),
		results:    make(chan Outcome, workers*2),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start launches the workers. The results channel closes after Close once
// every queued document has been processed.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	go func() {
		p.wg.Wait()
		close(p.results)
	}()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case doc, ok := <-p.jobs:
			if !ok {
				return
			}
			out := p.process(doc)
			select {
			case p.results <- out:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

func (p *Pool) process(doc Document) Outcome {
	if doc.ReadErr != nil {
		return Outcome{ObjectID: doc.ObjectID, Err: doc.ReadErr}
	}

	ctx := p.ctx
	if p.docTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.docTimeout)
		defer cancel()
	}

	res, err := p.engine.ExtractDocument(ctx, doc.ObjectID, doc.Data)
	if err != nil {
		return Outcome{ObjectID: doc.ObjectID, Err: err}
	}
	return Outcome{
		ObjectID: doc.ObjectID,
		Filing:   res.Filing,
		Schedule: res.Schedule,
		Warnings: res.Warnings,
	}
}

// Submit queues one document. Blocks when the queue is full; returns
// immediately after Shutdown.
func (p *Pool) Submit(doc Document) {
	select {
	case <-p.ctx.Done():
	case p.jobs <- doc:
	}
}

// Close signals that no more documents will be submitted.
func (p *Pool) Close() {
	p.closeOnce.Do(func() { close(p.jobs) })
}

// Results is the outcome stream. It closes once all submitted documents
// have been processed after Close.
func (p *Pool) Results() <-chan Outcome {
	return p.results
}

// Shutdown abandons queued work and stops the workers.
func (p *Pool) Shutdown() {
	p.cancel()
	p.Close()
	p.wg.Wait()
}
