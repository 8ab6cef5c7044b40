package pipeline

import "fmt"

// Upstream sources. The e-file corpus and its yearly indexes live in the
// public IRS S3 bucket; the EO BMF extracts are served per state from
// irs.gov; the community concordance overlay is fetched from its repo.
const (
	s3BaseURL  = "https://s3.amazonaws.com/irs-form-990"
	bmfBaseURL = "https://www.irs.gov/pub/irs-soi"

	// ConcordanceCSVURL is the master concordance file maintained by the
	// Nonprofit Open Data Collective, usable as a field-map overlay.
	ConcordanceCSVURL = "https://raw.githubusercontent.com/Nonprofit-Open-Data-Collective/" +
		"irs-efile-master-concordance-file/master/concordance.csv"
)

// IndexURL returns the yearly filing-index CSV location.
func IndexURL(year int) string {
	return fmt.Sprintf("%s/index_%d.csv", s3BaseURL, year)
}

// ReturnXMLURL returns the location of one e-filed return.
func ReturnXMLURL(objectID string) string {
	return fmt.Sprintf("%s/%s_public.xml", s3BaseURL, objectID)
}

// bmfStateCodes lists the 50 states plus DC and PR, the full set of EO BMF
// extract files the IRS publishes.
var bmfStateCodes = []string{
	"al", "ak", "az", "ar", "ca", "co", "ct", "de", "dc", "fl",
	"ga", "hi", "id", "il", "in", "ia", "ks", "ky", "la", "me",
	"md", "ma", "mi", "mn", "ms", "mo", "mt", "ne", "nv", "nh",
	"nj", "nm", "ny", "nc", "nd", "oh", "ok", "or", "pa", "ri",
	"sc", "sd", "tn", "tx", "ut", "vt", "va", "wa", "wv", "wi",
	"wy", "pr",
}

func bmfURL(code string) string {
	return fmt.Sprintf("%s/eo_%s.csv", bmfBaseURL, code)
}
