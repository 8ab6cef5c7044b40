package extract

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/bwdmonkey/givvu-irs-501c3-data/internal/concordance"
)

// efileNamespace is the namespace every well-formed e-file return declares.
const efileNamespace = "http://www.irs.gov/efile"

// ResolveVersion buckets a document into one of the field map's version
// groups from its root metadata (the returnVersion attribute, e.g.
// "2022v5.0", backed by the namespace declaration). It never fails:
// unknown or missing metadata resolves to the most recent group as a
// best-effort default, with lowConfidence=true so downstream can filter
// those records instead of us silently dropping the document.
func ResolveVersion(doc *etree.Document) (group string, lowConfidence bool) {
	root := doc.Root()
	if root == nil {
		return concordance.VersionDefault, true
	}

	year, ok := versionYear(root.SelectAttrValue("returnVersion", ""))
	if !ok {
		// Some vendors put the attribute on a nested Return element.
		if ret := firstDescendant(root, "Return"); ret != nil {
			year, ok = versionYear(ret.SelectAttrValue("returnVersion", ""))
		}
	}
	if !ok {
		return concordance.VersionDefault, true
	}

	switch {
	case year >= 2016:
		return concordance.VersionV2016, false
	case year >= 2013:
		return concordance.VersionV2013, false
	case year >= 1998:
		return concordance.VersionV2009, false
	default:
		return concordance.VersionDefault, true
	}
}

// versionYear parses the schema year out of a returnVersion value like
// "2016v3.0".
func versionYear(rv string) (int, bool) {
	rv = strings.TrimSpace(rv)
	if len(rv) < 4 {
		return 0, false
	}
	y, err := strconv.Atoi(rv[:4])
	if err != nil {
		return 0, false
	}
	return y, true
}

// DeclaresEfileNamespace reports whether the document root declares the
// IRS e-file namespace. Informational only; resolution does not depend
// on it.
func DeclaresEfileNamespace(doc *etree.Document) bool {
	root := doc.Root()
	if root == nil {
		return false
	}
	return root.SelectAttrValue("xmlns", "") == efileNamespace
}
