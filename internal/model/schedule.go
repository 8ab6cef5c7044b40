package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PropertyLine identifies one of the 28 noncash property-type lines on
// Schedule M (Form 990).
type PropertyLine struct {
	Line        int    // 1-based line number on the schedule
	Prefix      string // canonical field prefix, e.g. "clothing_household"
	Description string // IRS line caption
	HasDesc     bool   // lines 25-28 carry a free-text category description
}

// PropertyLines lists the 28 Schedule M property types in line order.
// This order is the serialization order for ScheduleM records.
var PropertyLines = []PropertyLine{
	{1, "art_works", "Art - Works of art", false},
	{2, "art_historical", "Art - Historical treasures", false},
	{3, "art_fractional", "Art - Fractional interests", false},
	{4, "books_publications", "Books and publications", false},
	{5, "clothing_household", "Clothing and household goods", false},
	{6, "cars_vehicles", "Cars and other vehicles", false},
	{7, "boats_planes", "Boats and planes", false},
	{8, "intellectual_property", "Intellectual property", false},
	{9, "securities_publicly_traded", "Securities - Publicly traded", false},
	{10, "securities_closely_held", "Securities - Closely held stock", false},
	{11, "securities_partnership", "Securities - Partnership, LLC, or trust", false},
	{12, "securities_misc", "Securities - Miscellaneous", false},
	{13, "conservation_historic", "Qualified conservation - Historic structures", false},
	{14, "conservation_other", "Qualified conservation - Other", false},
	{15, "real_estate_residential", "Real estate - Residential", false},
	{16, "real_estate_commercial", "Real estate - Commercial", false},
	{17, "real_estate_other", "Real estate - Other", false},
	{18, "collectibles", "Collectibles", false},
	{19, "food_inventory", "Food inventory", false},
	{20, "drugs_medical", "Drugs and medical supplies", false},
	{21, "taxidermy", "Taxidermy", false},
	{22, "historical_artifacts", "Historical artifacts", false},
	{23, "scientific_specimens", "Scientific specimens", false},
	{24, "archaeological_artifacts", "Archeological artifacts", false},
	{25, "other_1", "Other (1)", true},
	{26, "other_2", "Other (2)", true},
	{27, "other_3", "Other (3)", true},
	{28, "other_4", "Other (4)", true},
}

// PropertyGroup holds the four reported values for one property-type line,
// plus the category description on the four "Other" lines. All fields are
// pointers: the source document is the sole source of truth, and absence
// must survive as null rather than degrade to zero or false.
type PropertyGroup struct {
	Received *bool
	Count    *int64
	Amount   *int64
	Method   *string
	Desc     *string // only populated for lines 25-28
}

// ScheduleM is the in-kind contribution schedule extracted for one filing.
// Groups is indexed in PropertyLines order.
type ScheduleM struct {
	ObjectID string
	EIN      string
	TaxYear  *int64

	Groups [28]PropertyGroup

	// Summary questions, lines 29-32
	NumForms8283         *int64
	GiftAcceptancePolicy *bool
	UsesThirdParties     *bool
	Hold3YearsRequired   *bool
}

// AnyReceived reports whether at least one property-type line has its
// received checkbox set.
func (s *ScheduleM) AnyReceived() bool {
	for i := range s.Groups {
		if s.Groups[i].Received != nil && *s.Groups[i].Received {
			return true
		}
	}
	return false
}

// MarshalJSON flattens the record into the stable column layout consumed
// downstream: identity fields, then per-line {prefix}_x/_count/_amount/
// _method(/_desc), then the four summary fields. Every key is always
// present so absent values appear as explicit nulls.
func (s *ScheduleM) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	w := jsonFieldWriter{buf: &buf}
	w.field("object_id", s.ObjectID)
	w.field("ein", s.EIN)
	w.field("tax_year", s.TaxYear)

	for i, line := range PropertyLines {
		g := &s.Groups[i]
		w.field(line.Prefix+"_x", g.Received)
		w.field(line.Prefix+"_count", g.Count)
		w.field(line.Prefix+"_amount", g.Amount)
		w.field(line.Prefix+"_method", g.Method)
		if line.HasDesc {
			w.field(line.Prefix+"_desc", g.Desc)
		}
	}

	w.field("num_forms_8283", s.NumForms8283)
	w.field("gift_acceptance_policy", s.GiftAcceptancePolicy)
	w.field("uses_third_parties", s.UsesThirdParties)
	w.field("hold_3_years_required", s.Hold3YearsRequired)

	if w.err != nil {
		return nil, w.err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// jsonFieldWriter appends key/value pairs to a JSON object under
// construction, remembering the first encode error.
type jsonFieldWriter struct {
	buf *bytes.Buffer
	err error
	n   int
}

func (w *jsonFieldWriter) field(key string, value interface{}) {
	if w.err != nil {
		return
	}
	if w.n > 0 {
		w.buf.WriteByte(',')
	}
	w.n++

	k, err := json.Marshal(key)
	if err != nil {
		w.err = fmt.Errorf("marshal key %q: %w", key, err)
		return
	}
	v, err := json.Marshal(value)
	if err != nil {
		w.err = fmt.Errorf("marshal field %q: %w", key, err)
		return
	}
	w.buf.Write(k)
	w.buf.WriteByte(':')
	w.buf.Write(v)
}
