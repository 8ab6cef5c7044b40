package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bwdmonkey/givvu-irs-501c3-data/internal/model"
	"github.com/bwdmonkey/givvu-irs-501c3-data/internal/worker"
)

// DirSource yields the XML documents in a directory, sorted by filename
// for a deterministic feed order. A file that cannot be read still yields
// a document carrying the read error, so the failure report accounts for
// it.
type DirSource struct {
	files []string
	pos   int
}

// NewDirSource lists *.xml under dir.
func NewDirSource(dir string) (*DirSource, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.xml"))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	sort.Strings(files)
	return &DirSource{files: files}, nil
}

// Len is the number of documents the source will yield.
func (s *DirSource) Len() int { return len(s.files) }

// Next implements worker.Source.
func (s *DirSource) Next() (worker.Document, error) {
	if s.pos >= len(s.files) {
		return worker.Document{}, io.EOF
	}
	path := s.files[s.pos]
	s.pos++

	doc := worker.Document{
		ObjectID: ObjectIDFromPath(path),
		Path:     path,
	}
	data, err := os.ReadFile(path)
	if err != nil {
		doc.ReadErr = worker.ReadFailure(err)
		return doc, nil
	}
	doc.Data = data
	return doc, nil
}

// ObjectIDFromPath derives the object ID from a document filename:
// "201541349349307794_public.xml" and "201541349349307794.xml" both map
// to "201541349349307794".
func ObjectIDFromPath(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.TrimSuffix(stem, "_public")
}

// JSONLSink writes the run's four output streams as JSON Lines under one
// directory: filings.jsonl, schedule_m.jsonl, warnings.jsonl and
// failures.jsonl.
type JSONLSink struct {
	files   []*os.File
	writers []*bufio.Writer

	filings   *json.Encoder
	schedules *json.Encoder
	warnings  *json.Encoder
	failures  *json.Encoder
}

// NewJSONLSink creates (truncating) the output files under dir.
func NewJSONLSink(dir string) (*JSONLSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	s := &JSONLSink{}
	encoders := []struct {
		name string
		enc  **json.Encoder
	}{
		{"filings.jsonl", &s.filings},
		{"schedule_m.jsonl", &s.schedules},
		{"warnings.jsonl", &s.warnings},
		{"failures.jsonl", &s.failures},
	}
	for _, e := range encoders {
		f, err := os.Create(filepath.Join(dir, e.name))
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("create %s: %w", e.name, err)
		}
		w := bufio.NewWriter(f)
		s.files = append(s.files, f)
		s.writers = append(s.writers, w)
		*e.enc = json.NewEncoder(w)
	}
	return s, nil
}

// WriteFiling implements worker.Sink.
func (s *JSONLSink) WriteFiling(f *model.Filing) error {
	return s.filings.Encode(f)
}

// WriteSchedule implements worker.Sink.
func (s *JSONLSink) WriteSchedule(sched *model.ScheduleM) error {
	return s.schedules.Encode(sched)
}

// WriteWarning implements worker.Sink.
func (s *JSONLSink) WriteWarning(w model.Warning) error {
	return s.warnings.Encode(&w)
}

// WriteFailure implements worker.Sink.
func (s *JSONLSink) WriteFailure(e model.FailureEntry) error {
	return s.failures.Encode(&e)
}

// Close flushes and closes every stream.
func (s *JSONLSink) Close() error {
	var firstErr error
	for _, w := range s.writers {
		if err := w.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, f := range s.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
