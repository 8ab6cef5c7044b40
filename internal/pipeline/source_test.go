package pipeline

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/bwdmonkey/givvu-irs-501c3-data/internal/model"
)

func TestObjectIDFromPath(t *testing.T) {
	cases := map[string]string{
		"/data/xml/201541349349307794_public.xml": "201541349349307794",
		"/data/xml/201541349349307794.xml":        "201541349349307794",
		"202243219349300000_public.xml":           "202243219349300000",
	}
	for in, want := range cases {
		if got := ObjectIDFromPath(in); got != want {
			t.Errorf("ObjectIDFromPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDirSourceYieldsSortedDocuments(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b_public.xml", "a_public.xml", "c.xml", "ignored.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("<Return/>"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	source, err := NewDirSource(dir)
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	if source.Len() != 3 {
		t.Fatalf("expected 3 documents, got %d", source.Len())
	}

	var ids []string
	for {
		doc, err := source.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if doc.ReadErr != nil {
			t.Fatalf("read error for %s: %v", doc.ObjectID, doc.ReadErr)
		}
		if string(doc.Data) != "<Return/>" {
			t.Errorf("unexpected data for %s", doc.ObjectID)
		}
		ids = append(ids, doc.ObjectID)
	}

	want := []string{"a", "b", "c"}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("position %d: got %s, want %s", i, ids[i], want[i])
		}
	}
}

func TestJSONLSinkWritesFourStreams(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewJSONLSink(dir)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}

	ein := "041349349"
	if err := sink.WriteFiling(&model.Filing{ObjectID: "obj1", FormType: "990", EIN: &ein}); err != nil {
		t.Fatalf("write filing: %v", err)
	}
	if err := sink.WriteSchedule(&model.ScheduleM{ObjectID: "obj1", EIN: ein}); err != nil {
		t.Fatalf("write schedule: %v", err)
	}
	if err := sink.WriteWarning(model.Warning{ObjectID: "obj1", Field: "total_revenue_cy", Raw: "N/A", Message: "not numeric"}); err != nil {
		t.Fatalf("write warning: %v", err)
	}
	if err := sink.WriteFailure(model.FailureEntry{ObjectID: "obj2", Kind: model.FailureParse, Message: "no root"}); err != nil {
		t.Fatalf("write failure: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	readLines := func(name string) []map[string]any {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		defer func() { _ = f.Close() }()

		var out []map[string]any
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			var rec map[string]any
			if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
				t.Fatalf("parse %s line: %v", name, err)
			}
			out = append(out, rec)
		}
		return out
	}

	filings := readLines("filings.jsonl")
	if len(filings) != 1 || filings[0]["object_id"] != "obj1" {
		t.Errorf("unexpected filings: %v", filings)
	}
	if filings[0]["website"] != nil {
		t.Error("absent field not serialized as null")
	}

	schedules := readLines("schedule_m.jsonl")
	if len(schedules) != 1 {
		t.Fatalf("expected 1 schedule, got %d", len(schedules))
	}
	if _, ok := schedules[0]["clothing_household_x"]; !ok {
		t.Error("schedule record missing flattened line columns")
	}

	if n := len(readLines("warnings.jsonl")); n != 1 {
		t.Errorf("expected 1 warning, got %d", n)
	}
	failures := readLines("failures.jsonl")
	if len(failures) != 1 || failures[0]["kind"] != "parse" {
		t.Errorf("unexpected failures: %v", failures)
	}
}
