package model

// Warning records a recovered per-field problem (typically a coercion
// failure): the field is emitted as absent and the warning preserved for
// reconciliation. A warning never fails the record.
type Warning struct {
	ObjectID string `json:"object_id"`
	Field    string `json:"field"`
	Raw      string `json:"raw,omitempty"`
	Message  string `json:"message"`
}

// FailureKind classifies why a document yielded no record.
type FailureKind string

const (
	FailureParse   FailureKind = "parse"   // malformed or truncated XML
	FailureTimeout FailureKind = "timeout" // per-document budget exceeded
	FailureRead    FailureKind = "read"    // document bytes unavailable
)

// FailureEntry is one row of the batch failure report. The failure report
// is the authoritative record of data loss: every document that produced
// no filing record appears here with a reason, so downstream can reconcile
// output counts against the input document count.
type FailureEntry struct {
	ObjectID string      `json:"object_id"`
	Field    string      `json:"field,omitempty"`
	Kind     FailureKind `json:"kind"`
	Message  string      `json:"message"`
}

// RunSummary is the batch driver's accounting for one extraction run.
type RunSummary struct {
	Documents int `json:"documents"`
	Filings   int `json:"filings"`
	Schedules int `json:"schedules"`
	Warnings  int `json:"warnings"`
	Failures  int `json:"failures"`
}
