package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwdmonkey/givvu-irs-501c3-data/internal/extract"
	"github.com/bwdmonkey/givvu-irs-501c3-data/internal/model"
)

// stubEngine is a controllable Extractor for pool and batch tests.
type stubEngine struct {
	mu     sync.Mutex
	calls  int
	delay  time.Duration
	failOn map[string]error
}

func (s *stubEngine) ExtractDocument(ctx context.Context, objectID string, data []byte) (*extract.Result, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := s.failOn[objectID]; ok {
		return nil, err
	}

	filing := &model.Filing{ObjectID: objectID, FormType: "990"}
	res := &extract.Result{Filing: filing}
	if string(data) == "with-schedule" {
		res.Schedule = &model.ScheduleM{ObjectID: objectID}
	}
	return res, nil
}

func (s *stubEngine) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestPoolProcessesAllDocuments(t *testing.T) {
	engine := &stubEngine{}
	pool := NewPool(engine, 4, 0)
	pool.Start()

	const n = 50
	go func() {
		for i := 0; i < n; i++ {
			pool.Submit(Document{ObjectID: fmt.Sprintf("obj-%03d", i)})
		}
		pool.Close()
	}()

	seen := make(map[string]bool)
	for out := range pool.Results() {
		if out.Err != nil {
			t.Errorf("unexpected error for %s: %v", out.ObjectID, out.Err)
			continue
		}
		if out.Filing == nil || out.Filing.ObjectID != out.ObjectID {
			t.Errorf("mismatched filing for %s", out.ObjectID)
		}
		seen[out.ObjectID] = true
	}

	if len(seen) != n {
		t.Errorf("expected %d outcomes, got %d", n, len(seen))
	}
	if engine.callCount() != n {
		t.Errorf("expected %d engine calls, got %d", n, engine.callCount())
	}
}

func TestPoolReadFailurePassesThrough(t *testing.T) {
	engine := &stubEngine{}
	pool := NewPool(engine, 1, 0)
	pool.Start()

	readErr := ReadFailure(errors.New("no such file"))
	go func() {
		pool.Submit(Document{ObjectID: "bad", ReadErr: readErr})
		pool.Close()
	}()

	out, ok := <-pool.Results()
	if !ok {
		t.Fatal("no outcome received")
	}
	if !errors.Is(out.Err, readErr) {
		t.Errorf("expected read error, got %v", out.Err)
	}
	if engine.callCount() != 0 {
		t.Error("engine called for an unreadable document")
	}
}

func TestPoolDocTimeout(t *testing.T) {
	engine := &stubEngine{delay: time.Second}
	pool := NewPool(engine, 1, 10*time.Millisecond)
	pool.Start()

	go func() {
		pool.Submit(Document{ObjectID: "slow"})
		pool.Close()
	}()

	out := <-pool.Results()
	if !errors.Is(out.Err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", out.Err)
	}
}

func TestPoolShutdownStopsWorkers(t *testing.T) {
	engine := &stubEngine{delay: 50 * time.Millisecond}
	pool := NewPool(engine, 2, 0)
	pool.Start()

	pool.Submit(Document{ObjectID: "a"})
	pool.Shutdown()

	// The results channel must close; draining must not hang.
	for range pool.Results() {
	}
}
