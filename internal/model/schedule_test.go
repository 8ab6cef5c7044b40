package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func int64p(v int64) *int64 { return &v }
func boolp(v bool) *bool    { return &v }
func strp(v string) *string { return &v }

func TestPropertyLinesShape(t *testing.T) {
	if len(PropertyLines) != 28 {
		t.Fatalf("expected 28 property lines, got %d", len(PropertyLines))
	}
	for i, line := range PropertyLines {
		if line.Line != i+1 {
			t.Errorf("line %d declared at index %d", line.Line, i)
		}
		wantDesc := line.Line >= 25
		if line.HasDesc != wantDesc {
			t.Errorf("line %d: HasDesc = %v", line.Line, line.HasDesc)
		}
	}
}

func TestAnyReceived(t *testing.T) {
	var s ScheduleM
	if s.AnyReceived() {
		t.Error("empty schedule reported received")
	}

	s.Groups[4].Received = boolp(false)
	if s.AnyReceived() {
		t.Error("explicit false counted as received")
	}

	s.Groups[4].Received = boolp(true)
	if !s.AnyReceived() {
		t.Error("received flag not detected")
	}
}

func TestScheduleMMarshalJSON(t *testing.T) {
	s := &ScheduleM{
		ObjectID: "201541349349307794",
		EIN:      "041349349",
		TaxYear:  int64p(2022),
	}
	s.Groups[4] = PropertyGroup{
		Received: boolp(true),
		Count:    int64p(12),
		Amount:   int64p(45000),
		Method:   strp("Thrift Shop Value"),
	}
	s.Groups[24].Desc = strp("Cryptocurrency")
	s.NumForms8283 = int64p(2)

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(data)

	// Absent values are explicit nulls, never omitted or zeroed.
	for _, want := range []string{
		`"object_id":"201541349349307794"`,
		`"ein":"041349349"`,
		`"tax_year":2022`,
		`"clothing_household_x":true`,
		`"clothing_household_count":12`,
		`"clothing_household_amount":45000`,
		`"clothing_household_method":"Thrift Shop Value"`,
		`"art_works_x":null`,
		`"food_inventory_amount":null`,
		`"other_1_desc":"Cryptocurrency"`,
		`"other_2_desc":null`,
		`"num_forms_8283":2`,
		`"gift_acceptance_policy":null`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s", want)
		}
	}

	// Key order is the stable column layout: identity, lines 1-28, summary.
	idIdx := strings.Index(out, `"object_id"`)
	artIdx := strings.Index(out, `"art_works_x"`)
	clothingIdx := strings.Index(out, `"clothing_household_x"`)
	summaryIdx := strings.Index(out, `"num_forms_8283"`)
	if !(idIdx < artIdx && artIdx < clothingIdx && clothingIdx < summaryIdx) {
		t.Error("keys out of column order")
	}

	// Only lines 25-28 carry a description key.
	if strings.Contains(out, `"clothing_household_desc"`) {
		t.Error("description key leaked onto a non-Other line")
	}

	// Marshal must be deterministic for idempotent batch output.
	again, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal again: %v", err)
	}
	if string(again) != out {
		t.Error("marshal output not stable across calls")
	}
}

func TestFilingMarshalNulls(t *testing.T) {
	f := &Filing{ObjectID: "obj", FormType: "990"}
	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(data)

	for _, want := range []string{
		`"ein":null`,
		`"website":null`,
		`"total_revenue_cy":null`,
		`"has_schedule_m":null`,
		`"low_confidence_version":false`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s", want)
		}
	}
}
