package extract

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/bwdmonkey/givvu-irs-501c3-data/internal/concordance"
	"github.com/bwdmonkey/givvu-irs-501c3-data/internal/model"
)

// Evaluator resolves canonical fields against a document by walking the
// field map's candidate locations in order and returning the first
// candidate that matches at least one node with non-whitespace text.
// No match is a normal absent result, never an error: optional fields
// and schema drift make absence an expected outcome.
type Evaluator struct {
	cmap   *concordance.Map
	policy model.DuplicatePolicy
}

// NewEvaluator creates an evaluator over a loaded field map.
func NewEvaluator(cmap *concordance.Map, policy model.DuplicatePolicy) *Evaluator {
	if policy != model.DuplicateLast {
		policy = model.DuplicateFirst
	}
	return &Evaluator{cmap: cmap, policy: policy}
}

// Evaluate resolves a singular field against the whole document under the
// given version group. When a location matches several nodes the
// configured duplicate policy picks the winner (first in document order
// by default).
func (ev *Evaluator) Evaluate(doc *etree.Document, field, group string) (string, bool, error) {
	return ev.evaluate(doc, nil, field, group)
}

// EvaluateWithin resolves a field whose candidate locations are relative
// to a previously located scope element (the Schedule M container).
func (ev *Evaluator) EvaluateWithin(scope *etree.Element, field, group string) (string, bool, error) {
	return ev.evaluate(nil, scope, field, group)
}

func (ev *Evaluator) evaluate(doc *etree.Document, scope *etree.Element, field, group string) (string, bool, error) {
	cands, err := ev.cmap.Lookup(field, group)
	if err != nil {
		return "", false, err
	}

	for i := range cands {
		nodes := ev.matchNodes(doc, scope, &cands[i])
		if raw, ok := ev.pick(nodes); ok {
			return raw, true, nil
		}
	}

	// Local-name fallback: try the last segment of each candidate as a
	// bare descendant name. Vendors rearrange parent containers more
	// often than they rename leaf elements. Scoped (schedule) fields are
	// excluded: their leaf names repeat across property groups, so a
	// bare-name search would bleed values between lines.
	if scope != nil {
		return "", false, nil
	}
	var root *etree.Element
	if doc != nil {
		root = doc.Root()
	}
	if root == nil {
		return "", false, nil
	}
	seen := map[string]bool{}
	for i := range cands {
		name := lastSegment(&cands[i])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if raw, ok := ev.pick(findDescendants(root, name)); ok {
			return raw, true, nil
		}
	}
	return "", false, nil
}

// matchNodes returns the nodes a candidate matches, in document order.
func (ev *Evaluator) matchNodes(doc *etree.Document, scope *etree.Element, c *concordance.Candidate) []*etree.Element {
	if c.Absolute() {
		if doc == nil {
			return nil
		}
		return doc.FindElementsPath(c.Path())
	}
	if scope == nil && doc != nil {
		scope = doc.Root()
	}
	if scope == nil {
		return nil
	}
	current := []*etree.Element{scope}
	for _, seg := range c.Segments() {
		var next []*etree.Element
		for _, el := range current {
			next = append(next, findDescendants(el, seg)...)
		}
		if len(next) == 0 {
			return nil
		}
		current = next
	}
	return current
}

// pick selects a single raw value from matched nodes. Nodes whose text is
// empty after trimming do not count as matches, so the candidate falls
// through to the next location.
func (ev *Evaluator) pick(nodes []*etree.Element) (string, bool) {
	raws := textValues(nodes)
	if len(raws) == 0 {
		return "", false
	}
	if ev.policy == model.DuplicateLast {
		return raws[len(raws)-1], true
	}
	return raws[0], true
}

func textValues(nodes []*etree.Element) []string {
	var out []string
	for _, n := range nodes {
		if t := n.Text(); strings.TrimSpace(t) != "" {
			out = append(out, t)
		}
	}
	return out
}

func lastSegment(c *concordance.Candidate) string {
	if c.Absolute() {
		raw := strings.Trim(c.Raw, "/")
		parts := strings.Split(raw, "/")
		return parts[len(parts)-1]
	}
	segs := c.Segments()
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}
